package ports

import (
	"context"
	"time"

	"github.com/andreypavlenko/crmcore/modules/newsletter/model"
)

// NewsletterRepository persists generated and scheduled newsletters.
type NewsletterRepository interface {
	Create(ctx context.Context, n *model.Newsletter) error
	// ListDue returns scheduled newsletters whose scheduled_at has
	// passed, for the scheduler's 15-minute send job.
	ListDue(ctx context.Context, now time.Time, limit int) ([]*model.Newsletter, error)
	MarkSent(ctx context.Context, id string, sentAt time.Time, recipientCount int) error
	MarkFailed(ctx context.Context, id string, errMsg string) error

	// CountSentSince reports how many newsletters have gone out since
	// the given time, for the aggregator's content-presence leaf
	// (spec §4.5).
	CountSentSince(ctx context.Context, since time.Time) (int, error)
}
