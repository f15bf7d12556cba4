package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/andreypavlenko/crmcore/modules/persona/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MetricsRepository implements ports.MetricsRepository against the
// classifier_metrics_snapshots table.
type MetricsRepository struct {
	pool *pgxpool.Pool
}

func NewMetricsRepository(pool *pgxpool.Pool) *MetricsRepository {
	return &MetricsRepository{pool: pool}
}

func (r *MetricsRepository) SaveSnapshot(ctx context.Context, snap *model.MetricsSnapshot) error {
	snap.ID = uuid.New().String()
	snap.TakenAt = time.Now().UTC()
	countsJSON, _ := json.Marshal(snap.PersonaCounts)

	query := `
		INSERT INTO classifier_metrics_snapshots (id, persona_counts, default_count, total_contacts, taken_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query, snap.ID, countsJSON, snap.DefaultCount, snap.TotalContacts, snap.TakenAt)
	return err
}
