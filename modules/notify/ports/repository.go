package ports

import (
	"context"
	"time"

	"github.com/andreypavlenko/crmcore/modules/notify/model"
)

// NotificationRepository persists one-shot operational notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	ListUnread(ctx context.Context, limit int) ([]*model.Notification, error)
	MarkRead(ctx context.Context, id string) error
}

// EmailLogRepository persists the outbound email queue.
type EmailLogRepository interface {
	Enqueue(ctx context.Context, e *model.EmailLogEntry) error
	ListDue(ctx context.Context, now time.Time, limit int) ([]*model.EmailLogEntry, error)
	MarkSent(ctx context.Context, id string, sentAt time.Time, messageID string) error
	MarkFailed(ctx context.Context, id string, errMsg string) error
	// Exists reports whether an entry already exists for (rule,
	// contactID), used by the webinar reminder materializer and the
	// cadence-style senders to stay idempotent across scheduler ticks.
	Exists(ctx context.Context, rule, contactID string) (bool, error)
}
