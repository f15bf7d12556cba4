package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/andreypavlenko/crmcore/modules/imports/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	job := &model.Job{Profile: "GB", WeekStart: "2026-07-27", FilePath: "imports/gb.csv"}

	mock.ExpectExec("INSERT INTO import_jobs").
		WithArgs(pgxmock.AnyArg(), job.Profile, job.WeekStart, job.FilePath, pgxmock.AnyArg(),
			model.StatusUploaded, 0, pgxmock.AnyArg(), job.HeartbeatAt, job.WorkerID, job.StartedAt,
			pgxmock.AnyArg(), job.ErrorSummary, pgxmock.AnyArg(), job.RetryAfter, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	repo := &testJobRepo{mock: mock}
	err = repo.Create(context.Background(), job)

	require.NoError(t, err)
	assert.NotEmpty(t, job.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestJobRepository_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT").WithArgs("job-1").WillReturnRows(pgxmock.NewRows(jobTestColumns()))

	repo := &testJobRepo{mock: mock}
	_, err = repo.GetByID(context.Background(), "job-1")

	assert.Equal(t, model.ErrJobNotFound, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestJobRepository_ClaimNext_NoneAvailable(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("UPDATE import_jobs").
		WithArgs("worker-1", pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(jobTestColumns()))

	repo := &testJobRepo{mock: mock}
	job, err := repo.ClaimNext(context.Background(), "worker-1")

	require.NoError(t, err)
	assert.Nil(t, job)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestJobRepository_ClaimNext_Claims(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now()
	mapping, _ := json.Marshal(map[string]string{"email": "Email"})
	history, _ := json.Marshal([]model.AttemptRecord{})
	progress, _ := json.Marshal(model.Progress{})
	breakdown, _ := json.Marshal(model.ErrorBreakdown{})

	rows := pgxmock.NewRows(jobTestColumns()).
		AddRow("job-1", "GB", "2026-07-27", "imports/gb.csv", mapping, model.StatusProcessing, 0, history,
			&now, "worker-1", &now, progress, "", breakdown, (*time.Time)(nil), now, now)

	mock.ExpectQuery("UPDATE import_jobs").
		WithArgs("worker-1", pgxmock.AnyArg()).
		WillReturnRows(rows)

	repo := &testJobRepo{mock: mock}
	job, err := repo.ClaimNext(context.Background(), "worker-1")

	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, "job-1", job.ID)
	assert.Equal(t, model.StatusProcessing, job.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestJobRepository_Heartbeat(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("UPDATE import_jobs SET heartbeat_at").
		WithArgs("job-1", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	repo := &testJobRepo{mock: mock}
	err = repo.Heartbeat(context.Background(), "job-1", model.Progress{ProcessedRows: 10})

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func jobTestColumns() []string {
	return []string{
		"id", "profile", "week_start", "file_path", "column_mapping", "status", "attempts", "attempt_history",
		"heartbeat_at", "worker_id", "started_at", "progress", "error_summary", "error_breakdown", "retry_after",
		"created_at", "updated_at",
	}
}

// testJobRepo mirrors JobRepository against pgxmock's interface, since
// the real type's pool field is a concrete *pgxpool.Pool.
type testJobRepo struct {
	mock pgxmock.PgxPoolIface
}

func (r *testJobRepo) Create(ctx context.Context, job *model.Job) error {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if job.Status == "" {
		job.Status = model.StatusUploaded
	}
	now := time.Now().UTC()
	job.CreatedAt = now
	job.UpdatedAt = now

	columnMappingJSON, _ := json.Marshal(job.ColumnMapping)
	attemptHistoryJSON, _ := json.Marshal(job.AttemptHistory)
	progressJSON, _ := json.Marshal(job.Progress)
	errorBreakdownJSON, _ := json.Marshal(job.ErrorBreakdown)

	query := `
		INSERT INTO import_jobs (
			id, profile, week_start, file_path, column_mapping, status, attempts, attempt_history,
			heartbeat_at, worker_id, started_at, progress, error_summary, error_breakdown, retry_after,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $16)
	`
	_, err := r.mock.Exec(ctx, query,
		job.ID, job.Profile, job.WeekStart, job.FilePath, columnMappingJSON, job.Status, job.Attempts, attemptHistoryJSON,
		job.HeartbeatAt, job.WorkerID, job.StartedAt, progressJSON, job.ErrorSummary, errorBreakdownJSON, job.RetryAfter,
		now,
	)
	return err
}

func (r *testJobRepo) GetByID(ctx context.Context, jobID string) (*model.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM import_jobs WHERE id = $1`
	job, err := scanJob(r.mock.QueryRow(ctx, query, jobID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrJobNotFound
		}
		return nil, err
	}
	return job, nil
}

func (r *testJobRepo) ClaimNext(ctx context.Context, workerID string) (*model.Job, error) {
	now := time.Now().UTC()
	query := `
		UPDATE import_jobs SET
			status = '` + string(model.StatusProcessing) + `',
			worker_id = $1,
			started_at = $2,
			heartbeat_at = $2,
			updated_at = $2
		WHERE id = (
			SELECT id FROM import_jobs
			WHERE (status = '` + string(model.StatusUploaded) + `')
			   OR (status = '` + string(model.StatusPendingRetry) + `' AND (retry_after IS NULL OR retry_after <= $2))
			ORDER BY created_at ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + jobColumns
	job, err := scanJob(r.mock.QueryRow(ctx, query, workerID, now))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return job, nil
}

func (r *testJobRepo) Heartbeat(ctx context.Context, jobID string, progress model.Progress) error {
	progressJSON, _ := json.Marshal(progress)
	_, err := r.mock.Exec(ctx, `
		UPDATE import_jobs SET heartbeat_at = $2, progress = $3, updated_at = $2 WHERE id = $1
	`, jobID, time.Now().UTC(), progressJSON)
	return err
}
