package ports

import (
	"context"
	"time"

	"github.com/andreypavlenko/crmcore/modules/scheduler/model"
)

// ScheduleRepository persists search_schedules rows.
type ScheduleRepository interface {
	Create(ctx context.Context, s *model.Schedule) error
	GetByID(ctx context.Context, id string) (*model.Schedule, error)
	// ListDue returns active schedules whose next_run has passed.
	ListDue(ctx context.Context, now time.Time, limit int) ([]*model.Schedule, error)
	MarkRunning(ctx context.Context, id string) error
	Complete(ctx context.Context, id string, lastRun time.Time, status string, nextRun time.Time) error
}
