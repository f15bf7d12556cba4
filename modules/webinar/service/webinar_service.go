package service

import (
	"context"
	"fmt"
	"time"

	"github.com/andreypavlenko/crmcore/internal/platform/logger"
	contactsmodel "github.com/andreypavlenko/crmcore/modules/contacts/model"
	contactsports "github.com/andreypavlenko/crmcore/modules/contacts/ports"
	notifymodel "github.com/andreypavlenko/crmcore/modules/notify/model"
	notifyports "github.com/andreypavlenko/crmcore/modules/notify/ports"
	"github.com/andreypavlenko/crmcore/modules/webinar/model"
	"github.com/andreypavlenko/crmcore/modules/webinar/ports"
)

// widestLookahead must cover the longest Offset.Lead so a single
// ListStartingWithin call sees every event any offset could still fire
// for on this tick.
const widestLookahead = 8 * 24 * time.Hour

// notifier is the slice of notify.NotifyService this module depends
// on.
type notifier interface {
	EnqueueEmail(ctx context.Context, e *notifymodel.EmailLogEntry) error
}

// Service materializes webinar reminder emails (supplemented feature,
// grounded on webinar_emails.py's E06/E08/E10 stages). It is driven by
// the scheduler's periodic "webinar reminders" job, not by request
// handlers.
type Service struct {
	events   ports.EventRepository
	contacts contactsports.ContactRepository
	emailLog notifyports.EmailLogRepository
	notify   notifier
	log      *logger.Logger
}

func NewService(events ports.EventRepository, contacts contactsports.ContactRepository, emailLog notifyports.EmailLogRepository, notify notifier, log *logger.Logger) *Service {
	return &Service{
		events:   events,
		contacts: contacts,
		emailLog: emailLog,
		notify:   notify,
		log:      log,
	}
}

// CreateEvent registers a webinar event so MaterializeReminders has
// something to schedule reminders against.
func (s *Service) CreateEvent(ctx context.Context, name string, startsAt time.Time) (*model.Event, error) {
	e := &model.Event{Name: name, StartsAt: startsAt}
	if err := s.events.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("create webinar event: %w", err)
	}
	return e, nil
}

// MaterializeReminders finds every event, for every offset, whose
// reminder send-time has arrived but whose start time has not, and
// enqueues one reminder email per registered attendee who has not
// already received that rule. Idempotent across ticks: a contact only
// ever gets one email per (event, offset) pair, guarded by email_log's
// (rule, contact_id) existence check.
func (s *Service) MaterializeReminders(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	events, err := s.events.ListStartingWithin(ctx, now, widestLookahead)
	if err != nil {
		return 0, fmt.Errorf("list upcoming webinar events: %w", err)
	}

	enqueued := 0
	for _, event := range events {
		for _, offset := range model.Offsets {
			sendAt := event.StartsAt.Add(-offset.Lead)
			if now.Before(sendAt) {
				continue
			}

			attendees, err := s.contacts.ListByWebinarEvent(ctx, event.ID)
			if err != nil {
				if s.log != nil {
					s.log.WithError("webinar_attendees_lookup_failed").Error("failed to list webinar attendees")
				}
				continue
			}

			for _, contact := range attendees {
				if err := s.materializeOne(ctx, event, offset, contact); err != nil && s.log != nil {
					s.log.WithError("webinar_reminder_enqueue_failed").Error("failed to enqueue webinar reminder")
					continue
				}
				enqueued++
			}
		}
	}
	return enqueued, nil
}

func (s *Service) materializeOne(ctx context.Context, event *model.Event, offset model.Offset, contact *contactsmodel.Contact) error {
	if contact.PrimaryEmail == nil || *contact.PrimaryEmail == "" {
		return nil
	}

	already, err := s.emailLog.Exists(ctx, offset.Rule, contact.ID)
	if err != nil {
		return fmt.Errorf("check email log: %w", err)
	}
	if already {
		return nil
	}

	contactID := contact.ID
	subject := fmt.Sprintf("Reminder: %s", event.Name)
	html := fmt.Sprintf("<p>Hi %s,</p><p>This is a reminder that <strong>%s</strong> starts at %s.</p>",
		contact.Name, event.Name, event.StartsAt.Format(time.RFC1123))
	text := fmt.Sprintf("Hi %s,\n\nThis is a reminder that %s starts at %s.", contact.Name, event.Name, event.StartsAt.Format(time.RFC1123))

	entry := &notifymodel.EmailLogEntry{
		Rule:        offset.Rule,
		ContactID:   &contactID,
		ToAddress:   *contact.PrimaryEmail,
		Subject:     subject,
		HTMLBody:    html,
		TextBody:    text,
		Status:      notifymodel.EmailStatusQueued,
		ScheduledAt: time.Now().UTC(),
	}
	return s.notify.EnqueueEmail(ctx, entry)
}
