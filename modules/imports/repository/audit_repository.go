package repository

import (
	"context"
	"encoding/json"
	"time"

	contactmodel "github.com/andreypavlenko/crmcore/modules/contacts/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditRepository implements ports.AuditRepository across three
// tables - conflicts, invalid_rows, parse_failures - sharing the same
// shape (spec §3, §6 "Profile-and-week index").
type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

func (r *AuditRepository) SaveConflicts(ctx context.Context, rows []*contactmodel.ConflictRow) error {
	if len(rows) == 0 {
		return nil
	}
	batch := make([][]any, 0, len(rows))
	for _, row := range rows {
		if row.ID == "" {
			row.ID = uuid.New().String()
		}
		if row.CreatedAt.IsZero() {
			row.CreatedAt = time.Now().UTC()
		}
		rawRowJSON, _ := json.Marshal(row.RawRow)
		batch = append(batch, []any{
			row.ID, row.JobID, row.Profile, row.WeekStart, row.RowNumber,
			row.ReasonCode, row.ReasonDetail, rawRowJSON, row.CreatedAt,
		})
	}
	return r.insertBatch(ctx, "conflicts", batch)
}

func (r *AuditRepository) SaveInvalidRows(ctx context.Context, rows []*contactmodel.InvalidRow) error {
	if len(rows) == 0 {
		return nil
	}
	batch := make([][]any, 0, len(rows))
	for _, row := range rows {
		if row.ID == "" {
			row.ID = uuid.New().String()
		}
		if row.CreatedAt.IsZero() {
			row.CreatedAt = time.Now().UTC()
		}
		rawRowJSON, _ := json.Marshal(row.RawRow)
		batch = append(batch, []any{
			row.ID, row.JobID, row.Profile, row.WeekStart, row.RowNumber,
			row.ReasonCode, row.ReasonDetail, rawRowJSON, row.CreatedAt,
		})
	}
	return r.insertBatch(ctx, "invalid_rows", batch)
}

func (r *AuditRepository) SaveParseFailures(ctx context.Context, rows []*contactmodel.ParseFailure) error {
	if len(rows) == 0 {
		return nil
	}
	batch := make([][]any, 0, len(rows))
	for _, row := range rows {
		if row.ID == "" {
			row.ID = uuid.New().String()
		}
		if row.CreatedAt.IsZero() {
			row.CreatedAt = time.Now().UTC()
		}
		rawRowJSON, _ := json.Marshal(row.RawRow)
		batch = append(batch, []any{
			row.ID, row.JobID, row.Profile, row.WeekStart, row.RowNumber,
			row.ReasonCode, row.ReasonDetail, rawRowJSON, row.CreatedAt,
		})
	}
	return r.insertBatch(ctx, "parse_failures", batch)
}

func (r *AuditRepository) insertBatch(ctx context.Context, table string, rows [][]any) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO ` + table + ` (id, job_id, profile, week_start, row_number, reason_code, reason_detail, raw_row, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	for _, args := range rows {
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *AuditRepository) ListConflicts(ctx context.Context, jobID string) ([]*contactmodel.ConflictRow, error) {
	query := `
		SELECT id, job_id, profile, week_start, row_number, reason_code, reason_detail, raw_row, created_at
		FROM conflicts WHERE job_id = $1 ORDER BY row_number ASC
	`
	rows, err := r.pool.Query(ctx, query, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*contactmodel.ConflictRow
	for rows.Next() {
		row := &contactmodel.ConflictRow{}
		var rawRowJSON []byte
		if err := rows.Scan(&row.ID, &row.JobID, &row.Profile, &row.WeekStart, &row.RowNumber,
			&row.ReasonCode, &row.ReasonDetail, &rawRowJSON, &row.CreatedAt); err != nil {
			return nil, err
		}
		_ = json.Unmarshal(rawRowJSON, &row.RawRow)
		result = append(result, row)
	}
	return result, rows.Err()
}

func (r *AuditRepository) ListInvalidRows(ctx context.Context, jobID string) ([]*contactmodel.InvalidRow, error) {
	query := `
		SELECT id, job_id, profile, week_start, row_number, reason_code, reason_detail, raw_row, created_at
		FROM invalid_rows WHERE job_id = $1 ORDER BY row_number ASC
	`
	rows, err := r.pool.Query(ctx, query, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*contactmodel.InvalidRow
	for rows.Next() {
		row := &contactmodel.InvalidRow{}
		var rawRowJSON []byte
		if err := rows.Scan(&row.ID, &row.JobID, &row.Profile, &row.WeekStart, &row.RowNumber,
			&row.ReasonCode, &row.ReasonDetail, &rawRowJSON, &row.CreatedAt); err != nil {
			return nil, err
		}
		_ = json.Unmarshal(rawRowJSON, &row.RawRow)
		result = append(result, row)
	}
	return result, rows.Err()
}

func (r *AuditRepository) ListParseFailures(ctx context.Context, jobID string) ([]*contactmodel.ParseFailure, error) {
	query := `
		SELECT id, job_id, profile, week_start, row_number, reason_code, reason_detail, raw_row, created_at
		FROM parse_failures WHERE job_id = $1 ORDER BY row_number ASC
	`
	rows, err := r.pool.Query(ctx, query, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*contactmodel.ParseFailure
	for rows.Next() {
		row := &contactmodel.ParseFailure{}
		var rawRowJSON []byte
		if err := rows.Scan(&row.ID, &row.JobID, &row.Profile, &row.WeekStart, &row.RowNumber,
			&row.ReasonCode, &row.ReasonDetail, &rawRowJSON, &row.CreatedAt); err != nil {
			return nil, err
		}
		_ = json.Unmarshal(rawRowJSON, &row.RawRow)
		result = append(result, row)
	}
	return result, rows.Err()
}

// ReapExpired deletes audit rows older than the retention window
// across all three tables (spec §9 conflict_ttl_days=90).
func (r *AuditRepository) ReapExpired(ctx context.Context, olderThan time.Time) (int, error) {
	total := 0
	for _, table := range []string{"conflicts", "invalid_rows", "parse_failures"} {
		result, err := r.pool.Exec(ctx, `DELETE FROM `+table+` WHERE created_at < $1`, olderThan)
		if err != nil {
			return total, err
		}
		total += int(result.RowsAffected())
	}
	return total, nil
}
