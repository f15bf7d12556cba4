package ports

import (
	"context"
	"time"

	"github.com/andreypavlenko/crmcore/modules/webinar/model"
)

// EventRepository persists scheduled webinar events.
type EventRepository interface {
	Create(ctx context.Context, e *model.Event) error
	// ListStartingWithin returns every event whose starts_at falls
	// inside [now, now+window), used to find the events an offset needs
	// evaluating against on this tick.
	ListStartingWithin(ctx context.Context, now time.Time, window time.Duration) ([]*model.Event, error)
}
