package service

import (
	"context"
	"time"

	"github.com/andreypavlenko/crmcore/modules/aggregator/model"
)

// ContactSummary is one case's contact, enriched with its case-level
// roles (spec §4.5 "current cases").
type ContactSummary struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email,omitempty"`
	Roles []string `json:"roles"`
}

// CaseSummary is one ganados case plus everything the delivery UI
// needs to render it (test_delivery_ganados.py's required fields).
type CaseSummary struct {
	Case         *model.Case          `json:"-"`
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	Stage        string               `json:"stage"`
	Status       string               `json:"status"`
	Contacts     []ContactSummary     `json:"contacts"`
	Checklist    map[string]groupView `json:"checklist"`
	WeeklyStatus model.Status         `json:"weekly_status"`
}

type groupView struct {
	Columns []model.ChecklistColumn                   `json:"columns"`
	Cells   map[string]map[string]model.ChecklistCell `json:"cells"`
}

// CurrentCasesResult is ComputeCurrentCases' return value: the per-case
// breakdown and the section's combined status.
type CurrentCasesResult struct {
	Cases         []CaseSummary `json:"cases"`
	SectionStatus model.Status  `json:"section_status"`
}

// ComputeCurrentCases implements spec §4.5's "current cases" special
// section: one status per Stage-4 "ganados" case based on pending
// checklist tasks, then combined across cases with the same
// gray>red>yellow>green rule.
func (s *Service) ComputeCurrentCases(ctx context.Context) (*CurrentCasesResult, error) {
	now := time.Now().UTC()
	wk := weekKey(now)

	cases, err := s.cases.ListByStage(ctx, model.StageGanados, model.CaseStatusActive)
	if err != nil {
		return nil, err
	}

	summaries := make([]CaseSummary, 0, len(cases))
	statuses := make([]model.Status, 0, len(cases))
	for _, c := range cases {
		checklist, err := s.cases.GetChecklist(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		roles, err := s.cases.ListContactRoles(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		rolesByContact := make(map[string][]string, len(roles))
		for _, r := range roles {
			rolesByContact[r.ContactID] = r.Roles
		}

		contacts := make([]ContactSummary, 0, len(c.ContactIDs))
		for _, contactID := range c.ContactIDs {
			summary := ContactSummary{ID: contactID, Roles: rolesByContact[contactID]}
			if contact, err := s.contacts.GetByID(ctx, contactID); err == nil && contact != nil {
				summary.Name = contact.Name
				if contact.PrimaryEmail != nil {
					summary.Email = *contact.PrimaryEmail
				}
			}
			contacts = append(contacts, summary)
		}

		status := pendingTaskStatus(checklist, c.ContactIDs, now, wk)
		summaries = append(summaries, CaseSummary{
			Case:         c,
			ID:           c.ID,
			Name:         c.Name,
			Stage:        c.Stage,
			Status:       c.Status,
			Contacts:     contacts,
			Checklist:    toGroupView(checklist),
			WeeklyStatus: status,
		})
		statuses = append(statuses, status)
	}

	return &CurrentCasesResult{Cases: summaries, SectionStatus: model.Combine(statuses)}, nil
}

func toGroupView(checklist *model.CaseChecklist) map[string]groupView {
	out := make(map[string]groupView, len(checklist.Groups))
	for groupID, g := range checklist.Groups {
		out[groupID] = groupView{Columns: g.Columns, Cells: g.Cells}
	}
	return out
}

// pendingTaskStatus implements spec §4.5's per-case rule: a pending
// task is a cell that is unchecked (or implicitly missing, which
// ChecklistGroup.Cell already reports as unchecked) against a column
// whose due date has passed. No pending task -> green. Otherwise
// yellow if any cell was checked within the current ISO week, else
// red.
func pendingTaskStatus(checklist *model.CaseChecklist, contactIDs []string, now time.Time, currentWeekKey string) model.Status {
	pending := false
	checkedThisWeek := false

	for _, group := range checklist.Groups {
		for _, column := range group.Columns {
			pastDue := !column.DueDate.After(now)
			for _, contactID := range contactIDs {
				cell := group.Cell(contactID, column.ID)
				if !cell.Checked {
					if pastDue {
						pending = true
					}
					continue
				}
				if cell.CheckedAt != nil && weekKey(*cell.CheckedAt) == currentWeekKey {
					checkedThisWeek = true
				}
			}
		}
	}

	switch {
	case !pending:
		return model.StatusGreen
	case checkedThisWeek:
		return model.StatusYellow
	default:
		return model.StatusRed
	}
}
