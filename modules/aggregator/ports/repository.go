package ports

import (
	"context"
	"time"

	"github.com/andreypavlenko/crmcore/modules/aggregator/model"
)

// CaseRepository persists the "current cases" section's data model:
// cases, their per-group checklists, and per-contact role assignments
// (spec §4.5).
type CaseRepository interface {
	Create(ctx context.Context, c *model.Case) error
	GetByID(ctx context.Context, id string) (*model.Case, error)
	ListByStage(ctx context.Context, stage, status string) ([]*model.Case, error)
	ListByContactID(ctx context.Context, contactID string) ([]*model.Case, error)
	UpdateStatus(ctx context.Context, id, status string) error

	GetChecklist(ctx context.Context, caseID string) (*model.CaseChecklist, error)
	AddChecklistColumn(ctx context.Context, caseID, groupID string, column model.ChecklistColumn) error
	SetChecklistCell(ctx context.Context, caseID, groupID, contactID, columnID string, checked bool, at time.Time) error

	ListContactRoles(ctx context.Context, caseID string) ([]*model.ContactRole, error)
	SetContactRoles(ctx context.Context, caseID, contactID string, roles []string) error
}
