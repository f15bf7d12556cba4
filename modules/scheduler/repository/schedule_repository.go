package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/andreypavlenko/crmcore/modules/scheduler/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ScheduleRepository implements ports.ScheduleRepository against the
// search_schedules table.
type ScheduleRepository struct {
	pool *pgxpool.Pool
}

func NewScheduleRepository(pool *pgxpool.Pool) *ScheduleRepository {
	return &ScheduleRepository{pool: pool}
}

func (r *ScheduleRepository) Create(ctx context.Context, s *model.Schedule) error {
	s.ID = uuid.New().String()
	s.Active = true
	s.CreatedAt = time.Now().UTC()
	s.UpdatedAt = s.CreatedAt

	params, err := json.Marshal(s.Params)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO search_schedules (id, schedule_type, entity_id, entity_name, frequency, frequency_days, params, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = r.pool.Exec(ctx, query, s.ID, s.ScheduleType, s.EntityID, s.EntityName, s.Frequency, s.FrequencyDays, params, s.Active, s.CreatedAt, s.UpdatedAt)
	return err
}

func (r *ScheduleRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*model.Schedule, error) {
	query := `
		SELECT id, schedule_type, entity_id, entity_name, frequency, frequency_days, params, active, last_run, last_run_status, next_run, created_at, updated_at
		FROM search_schedules
		WHERE active AND (next_run IS NULL OR next_run <= $1)
		ORDER BY next_run ASC NULLS FIRST
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Schedule
	for rows.Next() {
		s := &model.Schedule{}
		var params []byte
		if err := rows.Scan(&s.ID, &s.ScheduleType, &s.EntityID, &s.EntityName, &s.Frequency, &s.FrequencyDays, &params, &s.Active, &s.LastRun, &s.LastRunStatus, &s.NextRun, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		if len(params) > 0 {
			if err := json.Unmarshal(params, &s.Params); err != nil {
				return nil, err
			}
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *ScheduleRepository) MarkRunning(ctx context.Context, id string) error {
	query := `UPDATE search_schedules SET last_run_status = $2, updated_at = now() WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, model.StatusRunning)
	return err
}

func (r *ScheduleRepository) Complete(ctx context.Context, id string, lastRun time.Time, status string, nextRun time.Time) error {
	query := `
		UPDATE search_schedules
		SET last_run = $2, last_run_status = $3, next_run = $4, updated_at = $2
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, id, lastRun, status, nextRun)
	return err
}

// GetByID supports the manual "run now" admin endpoint.
func (r *ScheduleRepository) GetByID(ctx context.Context, id string) (*model.Schedule, error) {
	query := `
		SELECT id, schedule_type, entity_id, entity_name, frequency, frequency_days, params, active, last_run, last_run_status, next_run, created_at, updated_at
		FROM search_schedules WHERE id = $1
	`
	s := &model.Schedule{}
	var params []byte
	err := r.pool.QueryRow(ctx, query, id).Scan(&s.ID, &s.ScheduleType, &s.EntityID, &s.EntityName, &s.Frequency, &s.FrequencyDays, &params, &s.Active, &s.LastRun, &s.LastRunStatus, &s.NextRun, &s.CreatedAt, &s.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(params) > 0 {
		_ = json.Unmarshal(params, &s.Params)
	}
	return s, nil
}
