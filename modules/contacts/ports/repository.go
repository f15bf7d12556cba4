package ports

import (
	"context"

	"github.com/andreypavlenko/crmcore/modules/contacts/model"
)

// ListOptions defines options for listing contacts.
type ListOptions struct {
	Limit     int
	Offset    int
	Stage     *int
	Persona   *string
	CompanyID *string
	SortBy    string // "created_at", "updated_at", "name"
	SortDir   string // "asc", "desc"
}

// UpsertResult reports whether BulkUpsert created a new row or matched an
// existing one, mirroring the insert-vs-update branch of spec §4.3
// steps 6/7.
type UpsertResult struct {
	Contact *model.Contact
	Created bool
}

// ContactRepository defines the interface for contact data access.
// BulkUpsert implements the import worker's per-batch main pass
// (spec §4.3 step 5): row-level conflict detection, merge-on-update,
// set_on_insert-on-create, executed as one unordered bulk write.
type ContactRepository interface {
	Create(ctx context.Context, contact *model.Contact) error
	GetByID(ctx context.Context, contactID string) (*model.Contact, error)
	GetByEmails(ctx context.Context, emails []string) (map[string]*model.Contact, error)
	GetByLinkedInURLs(ctx context.Context, normalizedURLs []string) (map[string]*model.Contact, error)
	List(ctx context.Context, opts *ListOptions) ([]*model.ContactDTO, int, error)
	Update(ctx context.Context, contact *model.Contact) error
	Delete(ctx context.Context, contactID string) error

	// BulkUpsert applies the §4.3 steps 6/7 merge/insert rules for an
	// entire parsed batch in one unordered pass, returning one result
	// per input row (nil entry on a per-op failure that was logged and
	// skipped) plus the conflict rows it detected along the way.
	BulkUpsert(ctx context.Context, rows []*model.PreparedRow) ([]*UpsertResult, []*model.ConflictRow, error)

	// FlagForReclassification marks a contact's job title as changed so
	// the reclassification driver picks it up (spec §4.2).
	FlagForReclassification(ctx context.Context, contactID string) error

	// ListForReclassification returns contacts eligible for the
	// reclassification driver (persona_locked = false), paginated by id
	// for a stable full-table sweep.
	ListForReclassification(ctx context.Context, afterID string, limit int) ([]*model.Contact, error)

	// UpdatePersona idempotently writes the classifier's verdict; used
	// by both the import pipeline and the reclassification driver.
	UpdatePersona(ctx context.Context, contactID string, personaID, personaName string) error

	// CountCreatedSince supports the weekly-quota driver's per-persona
	// counters (spec §4.6): contacts created by sourceTag for persona
	// since weekStart.
	CountCreatedSince(ctx context.Context, sourceTag, personaID string, weekStart string) (int, error)

	// CountByPersona supports the scheduler's classifier metrics
	// snapshot job (spec §4.4): current persona distribution across
	// every contact, plus the total row count.
	CountByPersona(ctx context.Context) (personaCounts map[string]int, total int, err error)

	// ListByWebinarEvent returns every contact registered against
	// eventID, for the webinar reminder-email materializer.
	ListByWebinarEvent(ctx context.Context, eventID string) ([]*model.Contact, error)
}
