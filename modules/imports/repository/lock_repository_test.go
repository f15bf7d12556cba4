package repository

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockRepository_TryAcquire(t *testing.T) {
	t.Run("acquires free lock", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec("INSERT INTO profile_locks").
			WithArgs("GB", "job-1", "worker-1", pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		repo := &testLockRepo{mock: mock}
		ok, err := repo.TryAcquire(context.Background(), "GB", "job-1", "worker-1", 300*time.Second)

		require.NoError(t, err)
		assert.True(t, ok)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects when held by another job", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec("INSERT INTO profile_locks").
			WithArgs("GB", "job-2", "worker-1", pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 0))

		repo := &testLockRepo{mock: mock}
		ok, err := repo.TryAcquire(context.Background(), "GB", "job-2", "worker-1", 300*time.Second)

		require.NoError(t, err)
		assert.False(t, ok)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLockRepository_Release(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM profile_locks").
		WithArgs("GB", "job-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	repo := &testLockRepo{mock: mock}
	err = repo.Release(context.Background(), "GB", "job-1")

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLockRepository_Refresh(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("UPDATE profile_locks").
		WithArgs("GB", "job-1", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	repo := &testLockRepo{mock: mock}
	err = repo.Refresh(context.Background(), "GB", "job-1", 300*time.Second)

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

// testLockRepo mirrors LockRepository against pgxmock's interface, since
// the real type's pool field is a concrete *pgxpool.Pool.
type testLockRepo struct {
	mock pgxmock.PgxPoolIface
}

func (r *testLockRepo) TryAcquire(ctx context.Context, profile, jobID, workerID string, ttl time.Duration) (bool, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(ttl)
	query := `
		INSERT INTO profile_locks (profile, job_id, worker_id, acquired_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (profile) DO UPDATE SET
			job_id = EXCLUDED.job_id,
			worker_id = EXCLUDED.worker_id,
			acquired_at = EXCLUDED.acquired_at,
			expires_at = EXCLUDED.expires_at
		WHERE profile_locks.expires_at < $4 OR profile_locks.job_id = $2
	`
	result, err := r.mock.Exec(ctx, query, profile, jobID, workerID, now, expiresAt)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

func (r *testLockRepo) Release(ctx context.Context, profile, jobID string) error {
	_, err := r.mock.Exec(ctx, `DELETE FROM profile_locks WHERE profile = $1 AND job_id = $2`, profile, jobID)
	return err
}

func (r *testLockRepo) Refresh(ctx context.Context, profile, jobID string, ttl time.Duration) error {
	now := time.Now().UTC()
	_, err := r.mock.Exec(ctx, `
		UPDATE profile_locks SET expires_at = $3 WHERE profile = $1 AND job_id = $2
	`, profile, jobID, now.Add(ttl))
	return err
}
