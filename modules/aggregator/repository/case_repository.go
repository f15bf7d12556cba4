package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/andreypavlenko/crmcore/modules/aggregator/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CaseRepository implements ports.CaseRepository against the cases,
// case_checklists and case_contact_roles tables.
type CaseRepository struct {
	pool *pgxpool.Pool
}

func NewCaseRepository(pool *pgxpool.Pool) *CaseRepository {
	return &CaseRepository{pool: pool}
}

func (r *CaseRepository) Create(ctx context.Context, c *model.Case) error {
	c.ID = uuid.New().String()
	if c.Status == "" {
		c.Status = model.CaseStatusActive
	}
	c.CreatedAt = time.Now().UTC()
	c.UpdatedAt = c.CreatedAt

	contactIDs, err := json.Marshal(c.ContactIDs)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO cases (id, name, stage, status, contact_ids, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.pool.Exec(ctx, query, c.ID, c.Name, c.Stage, c.Status, contactIDs, c.CreatedAt, c.UpdatedAt)
	return err
}

func (r *CaseRepository) scanCase(row pgx.Row) (*model.Case, error) {
	c := &model.Case{}
	var contactIDs []byte
	err := row.Scan(&c.ID, &c.Name, &c.Stage, &c.Status, &contactIDs, &c.CreatedAt, &c.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(contactIDs) > 0 {
		if err := json.Unmarshal(contactIDs, &c.ContactIDs); err != nil {
			return nil, err
		}
	}
	return c, nil
}

const caseColumns = `id, name, stage, status, contact_ids, created_at, updated_at`

func (r *CaseRepository) GetByID(ctx context.Context, id string) (*model.Case, error) {
	query := `SELECT ` + caseColumns + ` FROM cases WHERE id = $1`
	return r.scanCase(r.pool.QueryRow(ctx, query, id))
}

func (r *CaseRepository) ListByStage(ctx context.Context, stage, status string) ([]*model.Case, error) {
	query := `SELECT ` + caseColumns + ` FROM cases WHERE stage = $1 AND status = $2 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, stage, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Case
	for rows.Next() {
		c, err := r.scanCase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CaseRepository) ListByContactID(ctx context.Context, contactID string) ([]*model.Case, error) {
	query := `SELECT ` + caseColumns + ` FROM cases WHERE contact_ids @> $1::jsonb ORDER BY created_at ASC`
	needle, err := json.Marshal([]string{contactID})
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, query, needle)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Case
	for rows.Next() {
		c, err := r.scanCase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CaseRepository) UpdateStatus(ctx context.Context, id, status string) error {
	query := `UPDATE cases SET status = $2, updated_at = now() WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// checklistGroupJSON / checklistCellJSON mirror model.ChecklistGroup /
// model.ChecklistCell but with exported, json-tagged fields so the
// groups jsonb column round-trips through encoding/json.
type checklistColumnJSON struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	DueDate time.Time `json:"due_date"`
}

type checklistCellJSON struct {
	Checked   bool       `json:"checked"`
	CheckedAt *time.Time `json:"checked_at,omitempty"`
}

type checklistGroupJSON struct {
	Columns []checklistColumnJSON                    `json:"columns"`
	Cells   map[string]map[string]checklistCellJSON `json:"cells"`
}

func toGroupsJSON(groups map[string]model.ChecklistGroup) map[string]checklistGroupJSON {
	out := make(map[string]checklistGroupJSON, len(groups))
	for groupID, g := range groups {
		cols := make([]checklistColumnJSON, len(g.Columns))
		for i, col := range g.Columns {
			cols[i] = checklistColumnJSON{ID: col.ID, Title: col.Title, DueDate: col.DueDate}
		}
		cells := make(map[string]map[string]checklistCellJSON, len(g.Cells))
		for contactID, byColumn := range g.Cells {
			row := make(map[string]checklistCellJSON, len(byColumn))
			for columnID, cell := range byColumn {
				row[columnID] = checklistCellJSON{Checked: cell.Checked, CheckedAt: cell.CheckedAt}
			}
			cells[contactID] = row
		}
		out[groupID] = checklistGroupJSON{Columns: cols, Cells: cells}
	}
	return out
}

func fromGroupsJSON(groups map[string]checklistGroupJSON) map[string]model.ChecklistGroup {
	out := make(map[string]model.ChecklistGroup, len(groups))
	for groupID, g := range groups {
		cols := make([]model.ChecklistColumn, len(g.Columns))
		for i, col := range g.Columns {
			cols[i] = model.ChecklistColumn{ID: col.ID, Title: col.Title, DueDate: col.DueDate}
		}
		cells := make(map[string]map[string]model.ChecklistCell, len(g.Cells))
		for contactID, byColumn := range g.Cells {
			row := make(map[string]model.ChecklistCell, len(byColumn))
			for columnID, cell := range byColumn {
				row[columnID] = model.ChecklistCell{Checked: cell.Checked, CheckedAt: cell.CheckedAt}
			}
			cells[contactID] = row
		}
		out[groupID] = model.ChecklistGroup{Columns: cols, Cells: cells}
	}
	return out
}

func (r *CaseRepository) GetChecklist(ctx context.Context, caseID string) (*model.CaseChecklist, error) {
	query := `SELECT groups, updated_at FROM case_checklists WHERE case_id = $1`
	var raw []byte
	var updatedAt time.Time
	err := r.pool.QueryRow(ctx, query, caseID).Scan(&raw, &updatedAt)
	if err == pgx.ErrNoRows {
		return &model.CaseChecklist{CaseID: caseID, Groups: map[string]model.ChecklistGroup{}}, nil
	}
	if err != nil {
		return nil, err
	}

	var groups map[string]checklistGroupJSON
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &groups); err != nil {
			return nil, err
		}
	}
	return &model.CaseChecklist{CaseID: caseID, Groups: fromGroupsJSON(groups), UpdatedAt: updatedAt}, nil
}

// mutateChecklist loads the checklist inside a transaction, applies fn,
// and writes it back — the jsonb blob is small enough (per-case, not
// per-contact) that a read-modify-write round trip under a row lock is
// simpler and safer than hand-rolled jsonb_set path expressions.
func (r *CaseRepository) mutateChecklist(ctx context.Context, caseID string, fn func(groups map[string]model.ChecklistGroup)) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var raw []byte
	err = tx.QueryRow(ctx, `SELECT groups FROM case_checklists WHERE case_id = $1 FOR UPDATE`, caseID).Scan(&raw)
	groups := map[string]checklistGroupJSON{}
	switch {
	case err == pgx.ErrNoRows:
		// first write for this case; insert below.
	case err != nil:
		return err
	default:
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &groups); err != nil {
				return err
			}
		}
	}

	decoded := fromGroupsJSON(groups)
	fn(decoded)

	encoded, err := json.Marshal(toGroupsJSON(decoded))
	if err != nil {
		return err
	}

	upsert := `
		INSERT INTO case_checklists (case_id, groups, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (case_id) DO UPDATE SET groups = $2, updated_at = now()
	`
	if _, err := tx.Exec(ctx, upsert, caseID, encoded); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *CaseRepository) AddChecklistColumn(ctx context.Context, caseID, groupID string, column model.ChecklistColumn) error {
	return r.mutateChecklist(ctx, caseID, func(groups map[string]model.ChecklistGroup) {
		g := groups[groupID]
		g.Columns = append(g.Columns, column)
		groups[groupID] = g
	})
}

func (r *CaseRepository) SetChecklistCell(ctx context.Context, caseID, groupID, contactID, columnID string, checked bool, at time.Time) error {
	return r.mutateChecklist(ctx, caseID, func(groups map[string]model.ChecklistGroup) {
		g := groups[groupID]
		if g.Cells == nil {
			g.Cells = map[string]map[string]model.ChecklistCell{}
		}
		if g.Cells[contactID] == nil {
			g.Cells[contactID] = map[string]model.ChecklistCell{}
		}
		cell := model.ChecklistCell{Checked: checked}
		if checked {
			checkedAt := at
			cell.CheckedAt = &checkedAt
		}
		g.Cells[contactID][columnID] = cell
		groups[groupID] = g
	})
}

func (r *CaseRepository) ListContactRoles(ctx context.Context, caseID string) ([]*model.ContactRole, error) {
	query := `SELECT case_id, contact_id, roles FROM case_contact_roles WHERE case_id = $1`
	rows, err := r.pool.Query(ctx, query, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.ContactRole
	for rows.Next() {
		cr := &model.ContactRole{}
		var roles []byte
		if err := rows.Scan(&cr.CaseID, &cr.ContactID, &roles); err != nil {
			return nil, err
		}
		if len(roles) > 0 {
			if err := json.Unmarshal(roles, &cr.Roles); err != nil {
				return nil, err
			}
		}
		out = append(out, cr)
	}
	return out, rows.Err()
}

// SetContactRoles replaces a contact's role assignment within a case.
// Passing an empty slice deletes the row, matching the original
// "roles=[] clears all roles" bugfix (test_case_level_roles.py).
func (r *CaseRepository) SetContactRoles(ctx context.Context, caseID, contactID string, roles []string) error {
	if len(roles) == 0 {
		_, err := r.pool.Exec(ctx, `DELETE FROM case_contact_roles WHERE case_id = $1 AND contact_id = $2`, caseID, contactID)
		return err
	}

	encoded, err := json.Marshal(roles)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO case_contact_roles (case_id, contact_id, roles)
		VALUES ($1, $2, $3)
		ON CONFLICT (case_id, contact_id) DO UPDATE SET roles = $3
	`
	_, err = r.pool.Exec(ctx, query, caseID, contactID, encoded)
	return err
}
