package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/andreypavlenko/crmcore/internal/platform/llm"
	"github.com/andreypavlenko/crmcore/internal/platform/logger"
	contactsports "github.com/andreypavlenko/crmcore/modules/contacts/ports"
	"github.com/andreypavlenko/crmcore/modules/newsletter/model"
	"github.com/andreypavlenko/crmcore/modules/newsletter/ports"
	notifymodel "github.com/andreypavlenko/crmcore/modules/notify/model"
	webinarmodel "github.com/andreypavlenko/crmcore/modules/webinar/model"
	webinarports "github.com/andreypavlenko/crmcore/modules/webinar/ports"
)

// recipientPageSize bounds how many contacts one List call pulls while
// fanning a newsletter out to its audience.
const recipientPageSize = 200

// eventLookahead is how far ahead GenerateWeekly looks for upcoming webinar
// events to feature in generated content.
const eventLookahead = 14 * 24 * time.Hour

// notifier is the slice of notify.NotifyService this module depends
// on.
type notifier interface {
	EnqueueEmail(ctx context.Context, e *notifymodel.EmailLogEntry) error
}

// Service drives the Monday auto-newsletter content generation and the
// 15-minute scheduled-send job (spec SPEC_FULL.md §3, grounded on
// scheduler_worker.py's generate_auto_newsletter_content /
// process_scheduled_newsletters pair).
type Service struct {
	newsletters ports.NewsletterRepository
	contacts    contactsports.ContactRepository
	events      webinarports.EventRepository
	llm         *llm.Adapter
	notify      notifier
	log         *logger.Logger
}

func NewService(newsletters ports.NewsletterRepository, contacts contactsports.ContactRepository, events webinarports.EventRepository, llmAdapter *llm.Adapter, notify notifier, log *logger.Logger) *Service {
	return &Service{
		newsletters: newsletters,
		contacts:    contacts,
		events:      events,
		llm:         llmAdapter,
		notify:      notify,
		log:         log,
	}
}

// GenerateWeekly builds one newsletter from upcoming webinar events and
// schedules it for immediate send on the next drain tick. Intended to
// be called by the scheduler's weekly Monday 09:00 UTC job.
func (s *Service) GenerateWeekly(ctx context.Context) (*model.Newsletter, error) {
	events, err := s.events.ListStartingWithin(ctx, time.Now().UTC(), eventLookahead)
	if err != nil {
		return nil, fmt.Errorf("list upcoming events: %w", err)
	}

	prompt := buildGenerationPrompt(events)
	content, err := s.llm.Send(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate newsletter content: %w", err)
	}

	subject, html := splitSubjectAndBody(content)
	n := &model.Newsletter{
		Subject:     subject,
		HTMLBody:    html,
		TextBody:    stripTags(html),
		ScheduledAt: time.Now().UTC(),
	}
	if err := s.newsletters.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("create newsletter: %w", err)
	}
	return n, nil
}

func buildGenerationPrompt(events []*webinarmodel.Event) string {
	var b strings.Builder
	b.WriteString("Write a short weekly newsletter email. Reply with the subject on the first line, then a blank line, then the HTML body.\n\n")
	if len(events) == 0 {
		b.WriteString("There are no upcoming events to feature this week.\n")
		return b.String()
	}
	b.WriteString("Upcoming events:\n")
	for _, e := range events {
		b.WriteString(fmt.Sprintf("- %s on %s\n", e.Name, e.StartsAt.Format("Jan 2, 2006")))
	}
	return b.String()
}

// splitSubjectAndBody parses the LLM's "subject\n\nbody" convention,
// falling back to a generic subject if the model didn't follow it.
func splitSubjectAndBody(content string) (subject, html string) {
	parts := strings.SplitN(strings.TrimSpace(content), "\n\n", 2)
	if len(parts) == 2 {
		return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	}
	return "Weekly Update", strings.TrimSpace(content)
}

func stripTags(html string) string {
	var b strings.Builder
	inTag := false
	for _, r := range html {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// SendDue drains every newsletter whose scheduled_at has passed,
// fanning each out to every contact with a primary email on file.
// Intended to be called by the scheduler's 15-minute job.
func (s *Service) SendDue(ctx context.Context) (int, error) {
	due, err := s.newsletters.ListDue(ctx, time.Now().UTC(), 100)
	if err != nil {
		return 0, fmt.Errorf("list due newsletters: %w", err)
	}

	sent := 0
	for _, n := range due {
		count, err := s.sendOne(ctx, n)
		if err != nil {
			if markErr := s.newsletters.MarkFailed(ctx, n.ID, err.Error()); markErr != nil && s.log != nil {
				s.log.WithError("newsletter_mark_failed_error").Error("failed to mark newsletter failed")
			}
			continue
		}
		if err := s.newsletters.MarkSent(ctx, n.ID, time.Now().UTC(), count); err != nil && s.log != nil {
			s.log.WithError("newsletter_mark_sent_error").Error("failed to mark newsletter sent")
		}
		sent++
	}
	return sent, nil
}

func (s *Service) sendOne(ctx context.Context, n *model.Newsletter) (int, error) {
	recipients := 0
	offset := 0
	for {
		page, total, err := s.contacts.List(ctx, &contactsports.ListOptions{Limit: recipientPageSize, Offset: offset})
		if err != nil {
			return recipients, fmt.Errorf("list recipients: %w", err)
		}
		for _, c := range page {
			if c.PrimaryEmail == nil || *c.PrimaryEmail == "" {
				continue
			}
			entry := &notifymodel.EmailLogEntry{
				Rule:        "newsletter:" + n.ID,
				ContactID:   &c.ID,
				ToAddress:   *c.PrimaryEmail,
				Subject:     n.Subject,
				HTMLBody:    n.HTMLBody,
				TextBody:    n.TextBody,
				Status:      notifymodel.EmailStatusQueued,
				ScheduledAt: time.Now().UTC(),
			}
			if err := s.notify.EnqueueEmail(ctx, entry); err != nil {
				if s.log != nil {
					s.log.WithError("newsletter_recipient_enqueue_failed").Error("failed to enqueue newsletter email")
				}
				continue
			}
			recipients++
		}
		offset += recipientPageSize
		if offset >= total || len(page) == 0 {
			break
		}
	}
	return recipients, nil
}
