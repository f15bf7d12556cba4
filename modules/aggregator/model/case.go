// Package model holds the data shapes for the traffic-light aggregator
// and its "current cases" special section (spec §4.5), grounded on
// test_delivery_ganados.py and test_case_level_roles.py from the
// original Python implementation.
package model

import "time"

// Stage-4 "ganados" is the only stage the "current cases" section
// watches; Concluidos is the terminal status an operator moves a case
// to once delivery work is done.
const (
	StageGanados = "ganados"

	CaseStatusActive     = "active"
	CaseStatusConcluidos = "concluidos"
)

// Case is one delivery case: a named group of contacts moving through
// a pipeline stage, with a per-case checklist and per-contact roles.
type Case struct {
	ID         string
	Name       string
	Stage      string
	Status     string
	ContactIDs []string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ChecklistColumn is one task/milestone within a checklist group, due
// on a fixed date (e.g. "Send onboarding packet", due in 7 days).
type ChecklistColumn struct {
	ID      string
	Title   string
	DueDate time.Time
}

// ChecklistCell is one contact's completion state against one column.
type ChecklistCell struct {
	Checked   bool
	CheckedAt *time.Time
}

// ChecklistGroup is one role-based sub-team's checklist (e.g.
// "deal_makers_team", "coachees", "students"): a set of columns and,
// per contact, a cell per column.
type ChecklistGroup struct {
	Columns []ChecklistColumn
	// Cells is keyed contact_id -> column_id.
	Cells map[string]map[string]ChecklistCell
}

// CaseChecklist is the full per-group checklist for one case.
type CaseChecklist struct {
	CaseID    string
	Groups    map[string]ChecklistGroup
	UpdatedAt time.Time
}

// ContactRole records which checklist group(s) a contact belongs to
// within a case; a contact with multiple roles appears in multiple
// groups (test_case_level_roles.py).
type ContactRole struct {
	CaseID    string
	ContactID string
	Roles     []string
}

// Cell looks up one contact/column cell, returning the zero value
// (unchecked, no checked_at) when the cell was never written.
func (g ChecklistGroup) Cell(contactID, columnID string) ChecklistCell {
	if byColumn, ok := g.Cells[contactID]; ok {
		if cell, ok := byColumn[columnID]; ok {
			return cell
		}
	}
	return ChecklistCell{}
}
