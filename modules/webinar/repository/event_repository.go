package repository

import (
	"context"
	"time"

	"github.com/andreypavlenko/crmcore/modules/webinar/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EventRepository implements ports.EventRepository against the
// webinar_events table.
type EventRepository struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

func (r *EventRepository) Create(ctx context.Context, e *model.Event) error {
	e.ID = uuid.New().String()
	e.CreatedAt = time.Now().UTC()
	query := `INSERT INTO webinar_events (id, name, starts_at, created_at) VALUES ($1, $2, $3, $4)`
	_, err := r.pool.Exec(ctx, query, e.ID, e.Name, e.StartsAt, e.CreatedAt)
	return err
}

func (r *EventRepository) ListStartingWithin(ctx context.Context, now time.Time, window time.Duration) ([]*model.Event, error) {
	query := `
		SELECT id, name, starts_at, created_at
		FROM webinar_events
		WHERE starts_at > $1 AND starts_at <= $2
		ORDER BY starts_at ASC
	`
	rows, err := r.pool.Query(ctx, query, now, now.Add(window))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Event
	for rows.Next() {
		e := &model.Event{}
		if err := rows.Scan(&e.ID, &e.Name, &e.StartsAt, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
