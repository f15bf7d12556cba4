package repository

import (
	"context"
	"errors"
	"time"

	"github.com/andreypavlenko/crmcore/modules/persona/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// KeywordRepository implements ports.KeywordRepository. Grounded on
// modules/companies/repository/company_repository.go.
type KeywordRepository struct {
	pool *pgxpool.Pool
}

func NewKeywordRepository(pool *pgxpool.Pool) *KeywordRepository {
	return &KeywordRepository{pool: pool}
}

func (r *KeywordRepository) AllKeywords(ctx context.Context) ([]*model.Keyword, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, keyword_normalized, persona_id, persona_name, created_at, updated_at
		FROM keywords ORDER BY keyword_normalized
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keywords []*model.Keyword
	for rows.Next() {
		k := &model.Keyword{}
		if err := rows.Scan(&k.ID, &k.KeywordNormalized, &k.PersonaID, &k.PersonaName, &k.CreatedAt, &k.UpdatedAt); err != nil {
			return nil, err
		}
		keywords = append(keywords, k)
	}
	return keywords, rows.Err()
}

func (r *KeywordRepository) AllPriorities(ctx context.Context) ([]*model.Priority, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT persona_id, persona_name, priority FROM persona_priorities ORDER BY priority ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var priorities []*model.Priority
	for rows.Next() {
		p := &model.Priority{}
		if err := rows.Scan(&p.PersonaID, &p.PersonaName, &p.Priority); err != nil {
			return nil, err
		}
		priorities = append(priorities, p)
	}
	return priorities, rows.Err()
}

func (r *KeywordRepository) GetByKeyword(ctx context.Context, keywordNormalized string) (*model.Keyword, error) {
	k := &model.Keyword{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, keyword_normalized, persona_id, persona_name, created_at, updated_at
		FROM keywords WHERE keyword_normalized = $1
	`, keywordNormalized).Scan(&k.ID, &k.KeywordNormalized, &k.PersonaID, &k.PersonaName, &k.CreatedAt, &k.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return k, nil
}

func (r *KeywordRepository) Create(ctx context.Context, keyword *model.Keyword) error {
	if keyword.ID == "" {
		keyword.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	keyword.CreatedAt = now
	keyword.UpdatedAt = now
	_, err := r.pool.Exec(ctx, `
		INSERT INTO keywords (id, keyword_normalized, persona_id, persona_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, keyword.ID, keyword.KeywordNormalized, keyword.PersonaID, keyword.PersonaName, keyword.CreatedAt, keyword.UpdatedAt)
	return err
}

// Replace implements the "replace ownership" branch of spec §4.2's
// keyword mutation rules.
func (r *KeywordRepository) Replace(ctx context.Context, keyword *model.Keyword) error {
	keyword.UpdatedAt = time.Now().UTC()
	_, err := r.pool.Exec(ctx, `
		UPDATE keywords SET persona_id = $2, persona_name = $3, updated_at = $4
		WHERE keyword_normalized = $1
	`, keyword.KeywordNormalized, keyword.PersonaID, keyword.PersonaName, keyword.UpdatedAt)
	return err
}

func (r *KeywordRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM keywords WHERE id = $1`, id)
	return err
}

func (r *KeywordRepository) List(ctx context.Context, personaID string) ([]*model.Keyword, error) {
	query := `SELECT id, keyword_normalized, persona_id, persona_name, created_at, updated_at FROM keywords`
	args := []interface{}{}
	if personaID != "" {
		query += ` WHERE persona_id = $1`
		args = append(args, personaID)
	}
	query += ` ORDER BY keyword_normalized`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keywords []*model.Keyword
	for rows.Next() {
		k := &model.Keyword{}
		if err := rows.Scan(&k.ID, &k.KeywordNormalized, &k.PersonaID, &k.PersonaName, &k.CreatedAt, &k.UpdatedAt); err != nil {
			return nil, err
		}
		keywords = append(keywords, k)
	}
	return keywords, rows.Err()
}
