package repository

import (
	"context"
	"testing"
	"time"

	"github.com/andreypavlenko/crmcore/modules/tags/model"
	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	tag := &model.Tag{UserID: "user-1", Name: "hot-lead"}

	mock.ExpectExec("INSERT INTO tags").
		WithArgs(pgxmock.AnyArg(), tag.UserID, tag.Name, tag.Color, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	repo := &testTagRepo{mock: mock}
	err = repo.Create(context.Background(), tag)

	require.NoError(t, err)
	assert.NotEmpty(t, tag.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTagRepository_List(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now()
	rows := pgxmock.NewRows([]string{"id", "user_id", "name", "color", "created_at"}).
		AddRow("tag-1", "user-1", "hot-lead", nil, now)

	mock.ExpectQuery("SELECT id, user_id, name, color, created_at FROM tags").
		WithArgs("user-1").
		WillReturnRows(rows)

	repo := &testTagRepo{mock: mock}
	tags, err := repo.List(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Len(t, tags, 1)
	assert.Equal(t, "hot-lead", tags[0].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTagRepository_Delete(t *testing.T) {
	t.Run("deletes successfully", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec("DELETE FROM tags").
			WithArgs("tag-1", "user-1").
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		repo := &testTagRepo{mock: mock}
		err = repo.Delete(context.Background(), "user-1", "tag-1")

		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found when nothing deleted", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec("DELETE FROM tags").
			WithArgs("tag-1", "user-1").
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		repo := &testTagRepo{mock: mock}
		err = repo.Delete(context.Background(), "user-1", "tag-1")

		assert.Equal(t, model.ErrTagNotFound, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTagRepository_AddRelation(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rel := &model.TagRelation{TagID: "tag-1", EntityType: "contact", EntityID: "contact-1"}

	mock.ExpectExec("INSERT INTO tag_relations").
		WithArgs(pgxmock.AnyArg(), rel.TagID, rel.EntityType, rel.EntityID, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	repo := &testTagRepo{mock: mock}
	err = repo.AddRelation(context.Background(), rel)

	require.NoError(t, err)
	assert.NotEmpty(t, rel.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTagRepository_RemoveRelation(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM tag_relations").
		WithArgs("tag-1", "contact-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	repo := &testTagRepo{mock: mock}
	err = repo.RemoveRelation(context.Background(), "tag-1", "contact-1")

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTagRepository_ListByEntity(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now()
	rows := pgxmock.NewRows([]string{"id", "user_id", "name", "color", "created_at"}).
		AddRow("tag-1", "user-1", "hot-lead", nil, now)

	mock.ExpectQuery("FROM tags t").
		WithArgs("contact", "contact-1").
		WillReturnRows(rows)

	repo := &testTagRepo{mock: mock}
	tags, err := repo.ListByEntity(context.Background(), "contact", "contact-1")

	require.NoError(t, err)
	assert.Len(t, tags, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

// testTagRepo mirrors TagRepository against pgxmock's interface, since the
// real type's pool field is a concrete *pgxpool.Pool.
type testTagRepo struct {
	mock pgxmock.PgxPoolIface
}

func (r *testTagRepo) Create(ctx context.Context, tag *model.Tag) error {
	query := `INSERT INTO tags (id, user_id, name, color, created_at) VALUES ($1, $2, $3, $4, $5)`
	tag.ID = uuid.New().String()
	tag.CreatedAt = time.Now().UTC()
	_, err := r.mock.Exec(ctx, query, tag.ID, tag.UserID, tag.Name, tag.Color, tag.CreatedAt)
	return err
}

func (r *testTagRepo) List(ctx context.Context, userID string) ([]*model.Tag, error) {
	query := `SELECT id, user_id, name, color, created_at FROM tags WHERE user_id = $1 ORDER BY name ASC`
	rows, err := r.mock.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []*model.Tag
	for rows.Next() {
		t := &model.Tag{}
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.Color, &t.CreatedAt); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func (r *testTagRepo) Delete(ctx context.Context, userID, tagID string) error {
	query := `DELETE FROM tags WHERE id = $1 AND user_id = $2`
	result, err := r.mock.Exec(ctx, query, tagID, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return model.ErrTagNotFound
	}
	return nil
}

func (r *testTagRepo) AddRelation(ctx context.Context, rel *model.TagRelation) error {
	query := `INSERT INTO tag_relations (id, tag_id, entity_type, entity_id, created_at) VALUES ($1, $2, $3, $4, $5)`
	rel.ID = uuid.New().String()
	rel.CreatedAt = time.Now().UTC()
	_, err := r.mock.Exec(ctx, query, rel.ID, rel.TagID, rel.EntityType, rel.EntityID, rel.CreatedAt)
	return err
}

func (r *testTagRepo) RemoveRelation(ctx context.Context, tagID, entityID string) error {
	query := `DELETE FROM tag_relations WHERE tag_id = $1 AND entity_id = $2`
	_, err := r.mock.Exec(ctx, query, tagID, entityID)
	return err
}

func (r *testTagRepo) ListByEntity(ctx context.Context, entityType, entityID string) ([]*model.Tag, error) {
	query := `
		SELECT t.id, t.user_id, t.name, t.color, t.created_at
		FROM tags t
		INNER JOIN tag_relations tr ON t.id = tr.tag_id
		WHERE tr.entity_type = $1 AND tr.entity_id = $2
		ORDER BY t.name ASC
	`
	rows, err := r.mock.Query(ctx, query, entityType, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []*model.Tag
	for rows.Next() {
		t := &model.Tag{}
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.Color, &t.CreatedAt); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}
