package handler

import (
	"context"
	"errors"
	"time"

	"github.com/andreypavlenko/crmcore/internal/platform/logger"
	"github.com/andreypavlenko/crmcore/modules/aggregator/model"
	contactsmodel "github.com/andreypavlenko/crmcore/modules/contacts/model"
	contactsports "github.com/andreypavlenko/crmcore/modules/contacts/ports"
	newslettermodel "github.com/andreypavlenko/crmcore/modules/newsletter/model"
	newsletterports "github.com/andreypavlenko/crmcore/modules/newsletter/ports"
	personamodel "github.com/andreypavlenko/crmcore/modules/persona/model"
	personaports "github.com/andreypavlenko/crmcore/modules/persona/ports"
	quotamodel "github.com/andreypavlenko/crmcore/modules/quota/model"
	quotaports "github.com/andreypavlenko/crmcore/modules/quota/ports"
	webinarmodel "github.com/andreypavlenko/crmcore/modules/webinar/model"
	webinarports "github.com/andreypavlenko/crmcore/modules/webinar/ports"
)

func testLogger() (*logger.Logger, error) {
	return logger.New("error", "console")
}

// fakeCaseRepository is an in-memory stand-in for ports.CaseRepository,
// just enough to exercise the handler's routing and status mapping.
type fakeCaseRepository struct {
	cases map[string]*model.Case
}

func newFakeCaseRepository() *fakeCaseRepository {
	return &fakeCaseRepository{cases: map[string]*model.Case{
		"case-1": {ID: "case-1", Name: "Existing", Status: model.CaseStatusActive},
	}}
}

func (f *fakeCaseRepository) Create(ctx context.Context, c *model.Case) error { return nil }
func (f *fakeCaseRepository) GetByID(ctx context.Context, id string) (*model.Case, error) {
	return f.cases[id], nil
}
func (f *fakeCaseRepository) ListByStage(ctx context.Context, stage, status string) ([]*model.Case, error) {
	return nil, nil
}
func (f *fakeCaseRepository) ListByContactID(ctx context.Context, contactID string) ([]*model.Case, error) {
	return nil, nil
}
func (f *fakeCaseRepository) UpdateStatus(ctx context.Context, id, status string) error {
	c, ok := f.cases[id]
	if !ok {
		return errors.New("not found")
	}
	c.Status = status
	return nil
}
func (f *fakeCaseRepository) GetChecklist(ctx context.Context, caseID string) (*model.CaseChecklist, error) {
	return &model.CaseChecklist{CaseID: caseID, Groups: map[string]model.ChecklistGroup{}}, nil
}
func (f *fakeCaseRepository) AddChecklistColumn(ctx context.Context, caseID, groupID string, column model.ChecklistColumn) error {
	return nil
}
func (f *fakeCaseRepository) SetChecklistCell(ctx context.Context, caseID, groupID, contactID, columnID string, checked bool, at time.Time) error {
	return nil
}
func (f *fakeCaseRepository) ListContactRoles(ctx context.Context, caseID string) ([]*model.ContactRole, error) {
	return nil, nil
}
func (f *fakeCaseRepository) SetContactRoles(ctx context.Context, caseID, contactID string, roles []string) error {
	return nil
}

// fakeKeywordRepository stubs personaports.KeywordRepository.
type fakeKeywordRepository struct{}

func (f *fakeKeywordRepository) AllKeywords(ctx context.Context) ([]*personamodel.Keyword, error) {
	return nil, nil
}
func (f *fakeKeywordRepository) AllPriorities(ctx context.Context) ([]*personamodel.Priority, error) {
	return nil, nil
}
func (f *fakeKeywordRepository) GetByKeyword(ctx context.Context, keywordNormalized string) (*personamodel.Keyword, error) {
	return nil, nil
}
func (f *fakeKeywordRepository) Create(ctx context.Context, keyword *personamodel.Keyword) error {
	return nil
}
func (f *fakeKeywordRepository) Replace(ctx context.Context, keyword *personamodel.Keyword) error {
	return nil
}
func (f *fakeKeywordRepository) Delete(ctx context.Context, id string) error { return nil }
func (f *fakeKeywordRepository) List(ctx context.Context, personaID string) ([]*personamodel.Keyword, error) {
	return nil, nil
}

var _ personaports.KeywordRepository = (*fakeKeywordRepository)(nil)

// fakeContactRepository embeds the real interface so only the methods
// the aggregator actually calls need implementations.
type fakeContactRepository struct {
	contactsports.ContactRepository
}

func (f *fakeContactRepository) CountCreatedSince(ctx context.Context, sourceTag, personaID string, weekStart string) (int, error) {
	return 0, nil
}
func (f *fakeContactRepository) GetByID(ctx context.Context, contactID string) (*contactsmodel.Contact, error) {
	return nil, nil
}

// fakeAlertRepository stubs quotaports.AlertRepository.
type fakeAlertRepository struct{}

func (f *fakeAlertRepository) IsBlocked(ctx context.Context, weekKey, personaID string) (bool, error) {
	return false, nil
}
func (f *fakeAlertRepository) Raise(ctx context.Context, weekKey, personaID, detail string) error {
	return nil
}
func (f *fakeAlertRepository) Resolve(ctx context.Context, id string) error { return nil }
func (f *fakeAlertRepository) ListUnresolved(ctx context.Context, weekKey string) ([]*quotamodel.RateLimitAlert, error) {
	return nil, nil
}

var _ quotaports.AlertRepository = (*fakeAlertRepository)(nil)

// fakeEventRepository stubs webinarports.EventRepository.
type fakeEventRepository struct{}

func (f *fakeEventRepository) Create(ctx context.Context, e *webinarmodel.Event) error { return nil }
func (f *fakeEventRepository) ListStartingWithin(ctx context.Context, now time.Time, window time.Duration) ([]*webinarmodel.Event, error) {
	return nil, nil
}

var _ webinarports.EventRepository = (*fakeEventRepository)(nil)

// fakeNewsletterRepository stubs newsletterports.NewsletterRepository.
type fakeNewsletterRepository struct{}

func (f *fakeNewsletterRepository) Create(ctx context.Context, n *newslettermodel.Newsletter) error {
	return nil
}
func (f *fakeNewsletterRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*newslettermodel.Newsletter, error) {
	return nil, nil
}
func (f *fakeNewsletterRepository) MarkSent(ctx context.Context, id string, sentAt time.Time, recipientCount int) error {
	return nil
}
func (f *fakeNewsletterRepository) MarkFailed(ctx context.Context, id string, errMsg string) error {
	return nil
}
func (f *fakeNewsletterRepository) CountSentSince(ctx context.Context, since time.Time) (int, error) {
	return 0, nil
}

var _ newsletterports.NewsletterRepository = (*fakeNewsletterRepository)(nil)
