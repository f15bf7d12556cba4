package service

import (
	"context"
	"fmt"
	"time"

	"github.com/andreypavlenko/crmcore/modules/aggregator/model"
	contactsmodel "github.com/andreypavlenko/crmcore/modules/contacts/model"
)

// weekKey returns the ISO-week key ("2026-W31") a timestamp falls in,
// matching quota.service.WeekKey's format without importing a sibling
// service package for one helper.
func weekKey(t time.Time) string {
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

// ComputeSections evaluates every leaf in the tree and aggregates
// parents with the gray > red > yellow > green priority rule (spec
// §4.5), returning a flat node_id -> {status, metadata} map.
func (s *Service) ComputeSections(ctx context.Context) (map[string]model.Node, error) {
	now := time.Now().UTC()
	wk := weekKey(now)
	ws := weekStart(now).Format("2006-01-02")

	nodes := map[string]model.Node{}
	childrenByParent := map[string][]model.Status{}

	priorities, err := s.personas.AllPriorities(ctx)
	if err != nil {
		return nil, fmt.Errorf("aggregator: listing persona priorities: %w", err)
	}
	for _, p := range priorities {
		status, meta, err := s.computePositionSearchLeaf(ctx, p.PersonaID, wk, ws)
		if err != nil {
			return nil, fmt.Errorf("aggregator: position search leaf %s: %w", p.PersonaID, err)
		}
		leafID := positionSearchParent + ":" + p.PersonaID
		nodes[leafID] = model.Node{ID: leafID, ParentID: positionSearchParent, Status: status, Metadata: meta}
		childrenByParent[positionSearchParent] = append(childrenByParent[positionSearchParent], status)
	}

	for _, leaf := range staticLeaves {
		status, meta, err := s.computeStaticLeaf(ctx, leaf, now)
		if err != nil {
			return nil, fmt.Errorf("aggregator: leaf %s: %w", leaf.ID, err)
		}
		nodes[leaf.ID] = model.Node{ID: leaf.ID, ParentID: leaf.ParentID, Status: status, Metadata: meta}
		childrenByParent[leaf.ParentID] = append(childrenByParent[leaf.ParentID], status)
	}

	for _, parentID := range sectionIDs {
		nodes[parentID] = model.Node{ID: parentID, Status: model.Combine(childrenByParent[parentID])}
	}
	return nodes, nil
}

// computePositionSearchLeaf blends the external-dependency rule (an
// unresolved rate-limit alert forces red regardless of the counter)
// with the time-gated counter rule (spec §4.5).
func (s *Service) computePositionSearchLeaf(ctx context.Context, personaID, wk, weekStartStr string) (model.Status, map[string]string, error) {
	blocked, err := s.alerts.IsBlocked(ctx, wk, personaID)
	if err != nil {
		return "", nil, err
	}
	if blocked {
		return model.StatusRed, map[string]string{"reason": "rate_limited", "persona_id": personaID}, nil
	}

	count, err := s.contacts.CountCreatedSince(ctx, contactsmodel.SourcePositionSearch, personaID, weekStartStr)
	if err != nil {
		return "", nil, err
	}
	meta := map[string]string{
		"persona_id": personaID,
		"count":      fmt.Sprint(count),
		"goal":       fmt.Sprint(s.goalPerFinder),
	}
	switch {
	case count >= s.goalPerFinder:
		return model.StatusGreen, meta, nil
	case count > 0:
		return model.StatusYellow, meta, nil
	default:
		return model.StatusRed, meta, nil
	}
}

func (s *Service) computeStaticLeaf(ctx context.Context, leaf leafSpec, now time.Time) (model.Status, map[string]string, error) {
	switch leaf.Kind {
	case leafComingSoon:
		return model.StatusGray, map[string]string{"reason": "coming_soon"}, nil

	case leafContentPresence:
		switch leaf.ID {
		case "webinar_reminders_upcoming":
			return s.computeWebinarLeaf(ctx, leaf, now)
		case "weekly_newsletter_sent":
			return s.computeNewsletterLeaf(ctx, leaf, now)
		}
	}
	return model.StatusGray, nil, fmt.Errorf("unhandled leaf %s", leaf.ID)
}

func (s *Service) computeWebinarLeaf(ctx context.Context, leaf leafSpec, now time.Time) (model.Status, map[string]string, error) {
	window := time.Duration(leaf.RecentWindowDays) * 24 * time.Hour
	soon, err := s.webinarEvents.ListStartingWithin(ctx, now, window)
	if err != nil {
		return "", nil, err
	}
	if len(soon) > 0 {
		return model.StatusGreen, map[string]string{"upcoming_within_window": fmt.Sprint(len(soon))}, nil
	}

	// Nothing in the near window; check further out before giving up.
	farther, err := s.webinarEvents.ListStartingWithin(ctx, now, 90*24*time.Hour)
	if err != nil {
		return "", nil, err
	}
	if len(farther) > 0 {
		return model.StatusYellow, map[string]string{"upcoming_beyond_window": fmt.Sprint(len(farther))}, nil
	}
	return model.StatusRed, nil, nil
}

func (s *Service) computeNewsletterLeaf(ctx context.Context, leaf leafSpec, now time.Time) (model.Status, map[string]string, error) {
	since := now.Add(-time.Duration(leaf.RecentWindowDays) * 24 * time.Hour)
	recent, err := s.newsletters.CountSentSince(ctx, since)
	if err != nil {
		return "", nil, err
	}
	if recent > 0 {
		return model.StatusGreen, map[string]string{"sent_recently": fmt.Sprint(recent)}, nil
	}

	everSent, err := s.newsletters.CountSentSince(ctx, time.Time{})
	if err != nil {
		return "", nil, err
	}
	if everSent > 0 {
		return model.StatusYellow, nil, nil
	}
	return model.StatusRed, nil, nil
}
