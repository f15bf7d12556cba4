package service

import (
	"context"
	"time"

	"github.com/andreypavlenko/crmcore/internal/platform/logger"
	"github.com/andreypavlenko/crmcore/internal/platform/mailer"
	"github.com/andreypavlenko/crmcore/modules/notify/model"
	"github.com/andreypavlenko/crmcore/modules/notify/ports"
)

// emailDrainBatchSize bounds how many queued emails one DrainEmailQueue
// call sends before returning control to the scheduler tick.
const emailDrainBatchSize = 50

// NotifyService is the shared collaborator every periodic job and
// domain service uses to raise a notification or queue an email
// (spec §4.4 "failures... are caught, logged, and converted to a
// notification row").
type NotifyService struct {
	notifications ports.NotificationRepository
	emailLog      ports.EmailLogRepository
	mailer        *mailer.Mailer
	log           *logger.Logger
}

func NewNotifyService(notifications ports.NotificationRepository, emailLog ports.EmailLogRepository, m *mailer.Mailer, log *logger.Logger) *NotifyService {
	return &NotifyService{notifications: notifications, emailLog: emailLog, mailer: m, log: log}
}

// Notify raises a one-shot operational notification. Never returns an
// error to the caller's critical path — a failed notification write is
// logged and swallowed, since the job that triggered it has already
// failed and must not fail twice.
func (s *NotifyService) Notify(ctx context.Context, kind, message string, detail map[string]string) {
	n := &model.Notification{Kind: kind, Message: message, Detail: detail}
	if err := s.notifications.Create(ctx, n); err != nil && s.log != nil {
		s.log.WithError("notification_write_failed").Error("failed to persist notification")
	}
}

func (s *NotifyService) ListUnread(ctx context.Context, limit int) ([]*model.Notification, error) {
	return s.notifications.ListUnread(ctx, limit)
}

func (s *NotifyService) MarkRead(ctx context.Context, id string) error {
	return s.notifications.MarkRead(ctx, id)
}

// EnqueueEmail queues one outbound email (webinar reminder, newsletter,
// cadence rule) for later delivery by DrainEmailQueue.
func (s *NotifyService) EnqueueEmail(ctx context.Context, e *model.EmailLogEntry) error {
	if e.ScheduledAt.IsZero() {
		e.ScheduledAt = time.Now().UTC()
	}
	return s.emailLog.Enqueue(ctx, e)
}

// DrainEmailQueue sends every due (scheduled_at <= now, status=queued)
// email through the Mailer, up to emailDrainBatchSize per call. Returns
// the number of emails successfully sent.
func (s *NotifyService) DrainEmailQueue(ctx context.Context) (int, error) {
	due, err := s.emailLog.ListDue(ctx, time.Now().UTC(), emailDrainBatchSize)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, e := range due {
		messageID, err := s.mailer.Send(ctx, e.ToAddress, e.Subject, e.HTMLBody, e.TextBody)
		if err != nil {
			if markErr := s.emailLog.MarkFailed(ctx, e.ID, err.Error()); markErr != nil && s.log != nil {
				s.log.WithError("email_mark_failed_error").Error("failed to mark email-log entry failed")
			}
			continue
		}
		if err := s.emailLog.MarkSent(ctx, e.ID, time.Now().UTC(), messageID); err != nil && s.log != nil {
			s.log.WithError("email_mark_sent_error").Error("failed to mark email-log entry sent")
			continue
		}
		sent++
	}
	return sent, nil
}
