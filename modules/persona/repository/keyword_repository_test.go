package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/andreypavlenko/crmcore/modules/persona/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeywordRepository_AllKeywords(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now()
	rows := pgxmock.NewRows([]string{"id", "keyword_normalized", "persona_id", "persona_name", "created_at", "updated_at"}).
		AddRow("kw-1", "cfo", "sofia", "Sofia", now, now)

	mock.ExpectQuery("SELECT id, keyword_normalized, persona_id, persona_name, created_at, updated_at").
		WillReturnRows(rows)

	repo := &testKeywordRepo{mock: mock}
	keywords, err := repo.AllKeywords(context.Background())

	require.NoError(t, err)
	assert.Len(t, keywords, 1)
	assert.Equal(t, "cfo", keywords[0].KeywordNormalized)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestKeywordRepository_AllPriorities(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := pgxmock.NewRows([]string{"persona_id", "persona_name", "priority"}).
		AddRow("sofia", "Sofia", 1)

	mock.ExpectQuery("SELECT persona_id, persona_name, priority").WillReturnRows(rows)

	repo := &testKeywordRepo{mock: mock}
	priorities, err := repo.AllPriorities(context.Background())

	require.NoError(t, err)
	require.Len(t, priorities, 1)
	assert.Equal(t, 1, priorities[0].Priority)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestKeywordRepository_GetByKeyword(t *testing.T) {
	t.Run("returns keyword when found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		now := time.Now()
		rows := pgxmock.NewRows([]string{"id", "keyword_normalized", "persona_id", "persona_name", "created_at", "updated_at"}).
			AddRow("kw-1", "cfo", "sofia", "Sofia", now, now)

		mock.ExpectQuery("SELECT id, keyword_normalized, persona_id, persona_name, created_at, updated_at").
			WithArgs("cfo").
			WillReturnRows(rows)

		repo := &testKeywordRepo{mock: mock}
		kw, err := repo.GetByKeyword(context.Background(), "cfo")

		require.NoError(t, err)
		require.NotNil(t, kw)
		assert.Equal(t, "sofia", kw.PersonaID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns nil without error when not found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery("SELECT id, keyword_normalized, persona_id, persona_name, created_at, updated_at").
			WithArgs("nonexistent").
			WillReturnError(pgx.ErrNoRows)

		repo := &testKeywordRepo{mock: mock}
		kw, err := repo.GetByKeyword(context.Background(), "nonexistent")

		require.NoError(t, err)
		assert.Nil(t, kw)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestKeywordRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	kw := &model.Keyword{KeywordNormalized: "cfo", PersonaID: "sofia", PersonaName: "Sofia"}

	mock.ExpectExec("INSERT INTO keywords").
		WithArgs(pgxmock.AnyArg(), kw.KeywordNormalized, kw.PersonaID, kw.PersonaName, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	repo := &testKeywordRepo{mock: mock}
	err = repo.Create(context.Background(), kw)

	require.NoError(t, err)
	assert.NotEmpty(t, kw.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestKeywordRepository_Replace(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	kw := &model.Keyword{KeywordNormalized: "officer", PersonaID: "sofia", PersonaName: "Sofia"}

	mock.ExpectExec("UPDATE keywords").
		WithArgs(kw.KeywordNormalized, kw.PersonaID, kw.PersonaName, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	repo := &testKeywordRepo{mock: mock}
	err = repo.Replace(context.Background(), kw)

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestKeywordRepository_Delete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM keywords").
		WithArgs("kw-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	repo := &testKeywordRepo{mock: mock}
	err = repo.Delete(context.Background(), "kw-1")

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestKeywordRepository_List(t *testing.T) {
	t.Run("filters by persona when given", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		now := time.Now()
		rows := pgxmock.NewRows([]string{"id", "keyword_normalized", "persona_id", "persona_name", "created_at", "updated_at"}).
			AddRow("kw-1", "cfo", "sofia", "Sofia", now, now)

		mock.ExpectQuery("SELECT id, keyword_normalized, persona_id, persona_name, created_at, updated_at FROM keywords WHERE persona_id").
			WithArgs("sofia").
			WillReturnRows(rows)

		repo := &testKeywordRepo{mock: mock}
		keywords, err := repo.List(context.Background(), "sofia")

		require.NoError(t, err)
		assert.Len(t, keywords, 1)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

// testKeywordRepo mirrors KeywordRepository against pgxmock's interface,
// since the real type's pool field is a concrete *pgxpool.Pool.
type testKeywordRepo struct {
	mock pgxmock.PgxPoolIface
}

func (r *testKeywordRepo) AllKeywords(ctx context.Context) ([]*model.Keyword, error) {
	rows, err := r.mock.Query(ctx, `
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

func (r *testKeywordRepo) AllPriorities(ctx context.Context) ([]*model.Priority, error) {
	rows, err := r.mock.Query(ctx, `
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

func (r *testKeywordRepo) GetByKeyword(ctx context.Context, keywordNormalized string) (*model.Keyword, error) {
	k := &model.Keyword{}
	err := r.mock.QueryRow(ctx, `
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

func (r *testKeywordRepo) Create(ctx context.Context, keyword *model.Keyword) error {
	if keyword.ID == "" {
		keyword.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	keyword.CreatedAt = now
	keyword.UpdatedAt = now
	_, err := r.mock.Exec(ctx, `
		INSERT INTO keywords (id, keyword_normalized, persona_id, persona_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, keyword.ID, keyword.KeywordNormalized, keyword.PersonaID, keyword.PersonaName, keyword.CreatedAt, keyword.UpdatedAt)
	return err
}

func (r *testKeywordRepo) Replace(ctx context.Context, keyword *model.Keyword) error {
	keyword.UpdatedAt = time.Now().UTC()
	_, err := r.mock.Exec(ctx, `
		UPDATE keywords SET persona_id = $2, persona_name = $3, updated_at = $4
		WHERE keyword_normalized = $1
	`, keyword.KeywordNormalized, keyword.PersonaID, keyword.PersonaName, keyword.UpdatedAt)
	return err
}

func (r *testKeywordRepo) Delete(ctx context.Context, id string) error {
	_, err := r.mock.Exec(ctx, `DELETE FROM keywords WHERE id = $1`, id)
	return err
}

func (r *testKeywordRepo) List(ctx context.Context, personaID string) ([]*model.Keyword, error) {
	query := `SELECT id, keyword_normalized, persona_id, persona_name, created_at, updated_at FROM keywords`
	args := []interface{}{}
	if personaID != "" {
		query += ` WHERE persona_id = $1`
		args = append(args, personaID)
	}
	query += ` ORDER BY keyword_normalized`

	rows, err := r.mock.Query(ctx, query, args...)
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
