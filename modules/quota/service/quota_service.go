package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/andreypavlenko/crmcore/internal/config"
	"github.com/andreypavlenko/crmcore/internal/platform/logger"
	"github.com/andreypavlenko/crmcore/internal/platform/outbound"
	contactsmodel "github.com/andreypavlenko/crmcore/modules/contacts/model"
	contactsports "github.com/andreypavlenko/crmcore/modules/contacts/ports"
	"github.com/andreypavlenko/crmcore/modules/quota/model"
	"github.com/andreypavlenko/crmcore/modules/quota/ports"
)

// actorItem is one row of the position-search actor's dataset output.
type actorItem struct {
	FullName    string `json:"full_name"`
	LinkedInURL string `json:"linkedin_url"`
	Email       string `json:"email"`
	JobTitle    string `json:"job_title"`
}

// QuotaService implements the weekly-quota and position-search driver
// (spec §4.6): keyword rotation, rate-limit alerting, and deduplicated
// contact insertion up to the remaining weekly goal.
type QuotaService struct {
	keywords  ports.SearchKeywordRepository
	alerts    ports.AlertRepository
	contacts  contactsports.ContactRepository
	actor     *outbound.Client
	actorID   string
	goalPerFinder int
	log       *logger.Logger
}

func NewQuotaService(
	keywords ports.SearchKeywordRepository,
	alerts ports.AlertRepository,
	contacts contactsports.ContactRepository,
	actor *outbound.Client,
	cfg config.OutboundConfig,
	goals config.WeeklyGoalsConfig,
	log *logger.Logger,
) *QuotaService {
	return &QuotaService{
		keywords:      keywords,
		alerts:        alerts,
		contacts:      contacts,
		actor:         actor,
		actorID:       cfg.ApifyActorID,
		goalPerFinder: goals.PerFinder,
		log:           log,
	}
}

// WeekKey returns the ISO-week key ("2026-W31") a timestamp falls in,
// used to scope rate-limit alerts (spec §4.6). The weekly contact
// counter is scoped by weekStart's Monday date instead.
func WeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

func weekStart(t time.Time) time.Time {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return t.AddDate(0, 0, -(weekday - 1)).Truncate(24 * time.Hour)
}

// SearchRun dispatches one position-search cycle for a persona: checks
// the weekly rate-limit gate, rotates to the least-recently-used
// keyword, calls the outbound actor, and inserts new contacts up to
// the remaining weekly goal (spec §4.6).
func (s *QuotaService) SearchRun(ctx context.Context, personaID string) (*model.RunResult, error) {
	now := time.Now().UTC()
	weekKey := WeekKey(now)

	blocked, err := s.alerts.IsBlocked(ctx, weekKey, personaID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, model.ErrRateLimited
	}

	created, err := s.contacts.CountCreatedSince(ctx, contactsmodel.SourcePositionSearch, personaID, weekStart(now).Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	remaining := s.goalPerFinder - created
	if remaining <= 0 {
		return nil, model.ErrGoalMet
	}

	kw, err := s.keywords.NextKeyword(ctx, personaID)
	if err != nil {
		return nil, err
	}
	if kw == nil {
		return nil, model.ErrNoKeyword
	}

	result := &model.RunResult{PersonaID: personaID, Keyword: kw.Keyword, RemainingBefore: remaining}

	path := fmt.Sprintf("/acts/%s/run-sync-get-dataset-items?keyword=%s", s.actorID, kw.Keyword)
	body, err := s.actor.Get(ctx, path)
	if err == outbound.ErrRateLimited {
		if raiseErr := s.alerts.Raise(ctx, weekKey, personaID, "position-search actor returned a rate-limit response"); raiseErr != nil && s.log != nil {
			s.log.WithError("alert_raise_failed").Error("failed to raise rate-limit alert")
		}
		result.RateLimited = true
		return result, nil
	}
	if err != nil {
		return nil, err
	}

	var items []actorItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("quota: decoding actor response: %w", err)
	}

	createdCount, err := s.insertNew(ctx, items, personaID, remaining)
	if err != nil {
		return nil, err
	}

	if err := s.keywords.MarkUsed(ctx, kw.ID, now, createdCount); err != nil {
		return nil, err
	}
	result.ContactsFound = createdCount
	return result, nil
}

// insertNew filters out contacts that already exist (deduped by
// LinkedIn URL and email, spec §4.6) and inserts the rest up to limit.
func (s *QuotaService) insertNew(ctx context.Context, items []actorItem, personaID string, limit int) (int, error) {
	urls := make([]string, 0, len(items))
	emails := make([]string, 0, len(items))
	for _, it := range items {
		if it.LinkedInURL != "" {
			urls = append(urls, strings.ToLower(it.LinkedInURL))
		}
		if it.Email != "" {
			emails = append(emails, strings.ToLower(it.Email))
		}
	}

	byURL, err := s.contacts.GetByLinkedInURLs(ctx, urls)
	if err != nil {
		return 0, err
	}
	byEmail, err := s.contacts.GetByEmails(ctx, emails)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, it := range items {
		if created >= limit {
			break
		}
		url := strings.ToLower(it.LinkedInURL)
		email := strings.ToLower(it.Email)
		if url != "" {
			if _, exists := byURL[url]; exists {
				continue
			}
		}
		if email != "" {
			if _, exists := byEmail[email]; exists {
				continue
			}
		}

		contact := &contactsmodel.Contact{
			Name:     it.FullName,
			Source:   contactsmodel.SourcePositionSearch,
			Stage:    contactsmodel.StageMin,
			Persona:  &personaID,
		}
		if url != "" {
			contact.LinkedInURLNorm = &url
		}
		if email != "" {
			contact.PrimaryEmail = &email
			contact.Emails = []contactsmodel.Email{{Email: email, IsPrimary: true}}
		}
		if it.JobTitle != "" {
			contact.JobTitle = &it.JobTitle
		}

		if err := s.contacts.Create(ctx, contact); err != nil {
			if s.log != nil {
				s.log.WithError("quota_contact_create_failed").Warn("failed to create position-search contact")
			}
			continue
		}
		created++
	}
	return created, nil
}

// ListAlerts exposes the current week's unresolved rate-limit alerts
// to the traffic-light aggregator (spec §4.5 "external-dependency
// leaves").
func (s *QuotaService) ListAlerts(ctx context.Context, weekKey string) ([]*model.RateLimitAlert, error) {
	return s.alerts.ListUnresolved(ctx, weekKey)
}

func (s *QuotaService) ResolveAlert(ctx context.Context, id string) error {
	return s.alerts.Resolve(ctx, id)
}

func (s *QuotaService) CreateKeyword(ctx context.Context, personaID, keyword string) error {
	return s.keywords.Create(ctx, &model.SearchKeyword{PersonaID: personaID, Keyword: strings.TrimSpace(keyword)})
}

func (s *QuotaService) ListKeywords(ctx context.Context, personaID string) ([]*model.SearchKeyword, error) {
	return s.keywords.List(ctx, personaID)
}
