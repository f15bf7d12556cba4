package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/andreypavlenko/crmcore/modules/imports/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const jobColumns = `
	id, profile, week_start, file_path, column_mapping, status, attempts, attempt_history,
	heartbeat_at, worker_id, started_at, progress, error_summary, error_breakdown, retry_after,
	created_at, updated_at
`

// JobRepository implements ports.JobRepository. Grounded on
// modules/companies/repository/company_repository.go's raw-pgx
// structure, adapted for the status-machine CAS claim of spec §4.3.
type JobRepository struct {
	pool *pgxpool.Pool
}

func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

func scanJob(row pgx.Row) (*model.Job, error) {
	j := &model.Job{}
	var columnMappingRaw, attemptHistoryRaw, progressRaw, errorBreakdownRaw []byte
	err := row.Scan(
		&j.ID, &j.Profile, &j.WeekStart, &j.FilePath, &columnMappingRaw, &j.Status, &j.Attempts, &attemptHistoryRaw,
		&j.HeartbeatAt, &j.WorkerID, &j.StartedAt, &progressRaw, &j.ErrorSummary, &errorBreakdownRaw, &j.RetryAfter,
		&j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	_ = json.Unmarshal(columnMappingRaw, &j.ColumnMapping)
	_ = json.Unmarshal(attemptHistoryRaw, &j.AttemptHistory)
	_ = json.Unmarshal(progressRaw, &j.Progress)
	_ = json.Unmarshal(errorBreakdownRaw, &j.ErrorBreakdown)
	return j, nil
}

func (r *JobRepository) Create(ctx context.Context, job *model.Job) error {
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
	_, err := r.pool.Exec(ctx, query,
		job.ID, job.Profile, job.WeekStart, job.FilePath, columnMappingJSON, job.Status, job.Attempts, attemptHistoryJSON,
		job.HeartbeatAt, job.WorkerID, job.StartedAt, progressJSON, job.ErrorSummary, errorBreakdownJSON, job.RetryAfter,
		now,
	)
	return err
}

func (r *JobRepository) GetByID(ctx context.Context, jobID string) (*model.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM import_jobs WHERE id = $1`
	job, err := scanJob(r.pool.QueryRow(ctx, query, jobID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrJobNotFound
		}
		return nil, err
	}
	return job, nil
}

func (r *JobRepository) Update(ctx context.Context, job *model.Job) error {
	job.UpdatedAt = time.Now().UTC()
	columnMappingJSON, _ := json.Marshal(job.ColumnMapping)
	attemptHistoryJSON, _ := json.Marshal(job.AttemptHistory)
	progressJSON, _ := json.Marshal(job.Progress)
	errorBreakdownJSON, _ := json.Marshal(job.ErrorBreakdown)

	query := `
		UPDATE import_jobs SET
			profile = $2, week_start = $3, file_path = $4, column_mapping = $5, status = $6,
			attempts = $7, attempt_history = $8, heartbeat_at = $9, worker_id = $10, started_at = $11,
			progress = $12, error_summary = $13, error_breakdown = $14, retry_after = $15, updated_at = $16
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		job.ID, job.Profile, job.WeekStart, job.FilePath, columnMappingJSON, job.Status,
		job.Attempts, attemptHistoryJSON, job.HeartbeatAt, job.WorkerID, job.StartedAt,
		progressJSON, job.ErrorSummary, errorBreakdownJSON, job.RetryAfter, job.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return model.ErrJobNotFound
	}
	return nil
}

// ClaimNext implements spec §4.3 step 1: a single UPDATE ... WHERE
// guards the compare-and-set, FIFO by created_at via the subselect.
// If the update touches no rows, no job is claimed this tick.
func (r *JobRepository) ClaimNext(ctx context.Context, workerID string) (*model.Job, error) {
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
	job, err := scanJob(r.pool.QueryRow(ctx, query, workerID, now))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return job, nil
}

func (r *JobRepository) Heartbeat(ctx context.Context, jobID string, progress model.Progress) error {
	progressJSON, _ := json.Marshal(progress)
	_, err := r.pool.Exec(ctx, `
		UPDATE import_jobs SET heartbeat_at = $2, progress = $3, updated_at = $2 WHERE id = $1
	`, jobID, time.Now().UTC(), progressJSON)
	return err
}

// ListOrphaned implements spec §4.3 "Orphan recovery": jobs stuck in
// processing whose heartbeat is stale or absent.
func (r *JobRepository) ListOrphaned(ctx context.Context, olderThan time.Time) ([]*model.Job, error) {
	query := `
		SELECT ` + jobColumns + ` FROM import_jobs
		WHERE status = '` + string(model.StatusProcessing) + `'
		  AND (heartbeat_at IS NULL OR heartbeat_at < $1)
	`
	rows, err := r.pool.Query(ctx, query, olderThan)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*model.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (r *JobRepository) ListByProfile(ctx context.Context, profile string, limit int) ([]*model.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM import_jobs WHERE profile = $1 ORDER BY created_at DESC LIMIT $2`
	rows, err := r.pool.Query(ctx, query, profile, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*model.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}
