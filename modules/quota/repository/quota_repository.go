package repository

import (
	"context"
	"time"

	"github.com/andreypavlenko/crmcore/modules/quota/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SearchKeywordRepository implements ports.SearchKeywordRepository
// against the search_keywords table (spec §4.6 "keyword rotation").
type SearchKeywordRepository struct {
	pool *pgxpool.Pool
}

func NewSearchKeywordRepository(pool *pgxpool.Pool) *SearchKeywordRepository {
	return &SearchKeywordRepository{pool: pool}
}

func (r *SearchKeywordRepository) NextKeyword(ctx context.Context, personaID string) (*model.SearchKeyword, error) {
	query := `
		SELECT id, persona_id, keyword, last_used, use_count, contacts_found, created_at
		FROM search_keywords
		WHERE persona_id = $1
		ORDER BY last_used ASC NULLS FIRST
		LIMIT 1
	`
	kw := &model.SearchKeyword{}
	err := r.pool.QueryRow(ctx, query, personaID).Scan(
		&kw.ID, &kw.PersonaID, &kw.Keyword, &kw.LastUsed, &kw.UseCount, &kw.ContactsFound, &kw.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return kw, nil
}

func (r *SearchKeywordRepository) MarkUsed(ctx context.Context, id string, usedAt time.Time, contactsFound int) error {
	query := `
		UPDATE search_keywords
		SET last_used = $2, use_count = use_count + 1, contacts_found = contacts_found + $3
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, id, usedAt, contactsFound)
	return err
}

func (r *SearchKeywordRepository) Create(ctx context.Context, kw *model.SearchKeyword) error {
	kw.ID = uuid.New().String()
	kw.CreatedAt = time.Now().UTC()
	query := `
		INSERT INTO search_keywords (id, persona_id, keyword, last_used, use_count, contacts_found, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.pool.Exec(ctx, query, kw.ID, kw.PersonaID, kw.Keyword, kw.LastUsed, kw.UseCount, kw.ContactsFound, kw.CreatedAt)
	return err
}

func (r *SearchKeywordRepository) List(ctx context.Context, personaID string) ([]*model.SearchKeyword, error) {
	query := `
		SELECT id, persona_id, keyword, last_used, use_count, contacts_found, created_at
		FROM search_keywords
		WHERE persona_id = $1
		ORDER BY keyword ASC
	`
	rows, err := r.pool.Query(ctx, query, personaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.SearchKeyword
	for rows.Next() {
		kw := &model.SearchKeyword{}
		if err := rows.Scan(&kw.ID, &kw.PersonaID, &kw.Keyword, &kw.LastUsed, &kw.UseCount, &kw.ContactsFound, &kw.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, kw)
	}
	return out, rows.Err()
}

// AlertRepository implements ports.AlertRepository against the
// rate_limit_alerts table (spec §4.6 "Alerts").
type AlertRepository struct {
	pool *pgxpool.Pool
}

func NewAlertRepository(pool *pgxpool.Pool) *AlertRepository {
	return &AlertRepository{pool: pool}
}

func (r *AlertRepository) IsBlocked(ctx context.Context, weekKey, personaID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM rate_limit_alerts WHERE week_key = $1 AND persona_id = $2 AND NOT resolved)`
	err := r.pool.QueryRow(ctx, query, weekKey, personaID).Scan(&exists)
	return exists, err
}

// Raise inserts an alert, or is a no-op if one already exists for this
// (week_key, persona_id) pair (the unique index makes this idempotent).
func (r *AlertRepository) Raise(ctx context.Context, weekKey, personaID, detail string) error {
	query := `
		INSERT INTO rate_limit_alerts (id, week_key, persona_id, detail, resolved, resolved_at, created_at)
		VALUES ($1, $2, $3, $4, false, NULL, $5)
		ON CONFLICT (week_key, persona_id) DO NOTHING
	`
	_, err := r.pool.Exec(ctx, query, uuid.New().String(), weekKey, personaID, detail, time.Now().UTC())
	return err
}

func (r *AlertRepository) Resolve(ctx context.Context, id string) error {
	query := `UPDATE rate_limit_alerts SET resolved = true, resolved_at = $2 WHERE id = $1`
	result, err := r.pool.Exec(ctx, query, id, time.Now().UTC())
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return model.ErrAlertNotFound
	}
	return nil
}

func (r *AlertRepository) ListUnresolved(ctx context.Context, weekKey string) ([]*model.RateLimitAlert, error) {
	query := `
		SELECT id, week_key, persona_id, detail, resolved, resolved_at, created_at
		FROM rate_limit_alerts
		WHERE week_key = $1 AND NOT resolved
		ORDER BY created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, weekKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.RateLimitAlert
	for rows.Next() {
		a := &model.RateLimitAlert{}
		if err := rows.Scan(&a.ID, &a.WeekKey, &a.PersonaID, &a.Detail, &a.Resolved, &a.ResolvedAt, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
