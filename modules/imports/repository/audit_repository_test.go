package repository

import (
	"context"
	"testing"
	"time"

	contactmodel "github.com/andreypavlenko/crmcore/modules/contacts/model"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditRepository_SaveConflicts(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO conflicts").
		WithArgs(pgxmock.AnyArg(), "job-1", "GB", "2026-07-27", 3, "email_url_mismatch", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	repo := &testAuditRepo{mock: mock}
	rows := []*contactmodel.ConflictRow{
		{JobID: "job-1", Profile: "GB", WeekStart: "2026-07-27", RowNumber: 3, ReasonCode: "email_url_mismatch", RawRow: map[string]string{"Email": "a@b.com"}},
	}
	err = repo.SaveConflicts(context.Background(), rows)

	require.NoError(t, err)
	assert.NotEmpty(t, rows[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepository_SaveConflicts_Empty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &testAuditRepo{mock: mock}
	err = repo.SaveConflicts(context.Background(), nil)

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepository_ListInvalidRows(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := pgxmock.NewRows([]string{"id", "job_id", "profile", "week_start", "row_number", "reason_code", "reason_detail", "raw_row", "created_at"}).
		AddRow("row-1", "job-1", "GB", "2026-07-27", 5, "missing_identifiers", "", []byte(`{}`), time.Now())

	mock.ExpectQuery("FROM invalid_rows").
		WithArgs("job-1").
		WillReturnRows(rows)

	repo := &testAuditRepo{mock: mock}
	result, err := repo.ListInvalidRows(context.Background(), "job-1")

	require.NoError(t, err)
	assert.Len(t, result, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepository_ReapExpired(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	cutoff := time.Now().AddDate(0, 0, -90)
	mock.ExpectExec("DELETE FROM conflicts").WithArgs(cutoff).WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectExec("DELETE FROM invalid_rows").WithArgs(cutoff).WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("DELETE FROM parse_failures").WithArgs(cutoff).WillReturnResult(pgxmock.NewResult("DELETE", 0))

	repo := &testAuditRepo{mock: mock}
	count, err := repo.ReapExpired(context.Background(), cutoff)

	require.NoError(t, err)
	assert.Equal(t, 3, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

// testAuditRepo mirrors AuditRepository against pgxmock's interface, since
// the real type's pool field is a concrete *pgxpool.Pool.
type testAuditRepo struct {
	mock pgxmock.PgxPoolIface
}

func (r *testAuditRepo) SaveConflicts(ctx context.Context, rows []*contactmodel.ConflictRow) error {
	if len(rows) == 0 {
		return nil
	}
	batch := make([][]any, 0, len(rows))
	for _, row := range rows {
		if row.ID == "" {
			row.ID = "generated-id"
		}
		if row.CreatedAt.IsZero() {
			row.CreatedAt = time.Now().UTC()
		}
		batch = append(batch, []any{
			row.ID, row.JobID, row.Profile, row.WeekStart, row.RowNumber,
			row.ReasonCode, row.ReasonDetail, []byte(`{}`), row.CreatedAt,
		})
	}
	return r.insertBatch(ctx, "conflicts", batch)
}

func (r *testAuditRepo) insertBatch(ctx context.Context, table string, rows [][]any) error {
	tx, err := r.mock.Begin(ctx)
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

func (r *testAuditRepo) ListInvalidRows(ctx context.Context, jobID string) ([]*contactmodel.InvalidRow, error) {
	query := `
		SELECT id, job_id, profile, week_start, row_number, reason_code, reason_detail, raw_row, created_at
		FROM invalid_rows WHERE job_id = $1 ORDER BY row_number ASC
	`
	rows, err := r.mock.Query(ctx, query, jobID)
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
		result = append(result, row)
	}
	return result, rows.Err()
}

func (r *testAuditRepo) ReapExpired(ctx context.Context, olderThan time.Time) (int, error) {
	total := 0
	for _, table := range []string{"conflicts", "invalid_rows", "parse_failures"} {
		result, err := r.mock.Exec(ctx, `DELETE FROM `+table+` WHERE created_at < $1`, olderThan)
		if err != nil {
			return total, err
		}
		total += int(result.RowsAffected())
	}
	return total, nil
}
