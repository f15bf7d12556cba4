package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// LockRepository implements ports.LockRepository over a single
// profile_locks table keyed on profile (spec §3 "Profile lock",
// §4.3 step 2 exclusive-lock acquisition).
type LockRepository struct {
	pool *pgxpool.Pool
}

func NewLockRepository(pool *pgxpool.Pool) *LockRepository {
	return &LockRepository{pool: pool}
}

// TryAcquire upserts the lock row if it is missing, expired, or
// already owned by jobID; otherwise it leaves the live lock in place
// and reports false. A single statement avoids a check-then-act race
// between concurrent workers.
func (r *LockRepository) TryAcquire(ctx context.Context, profile, jobID, workerID string, ttl time.Duration) (bool, error) {
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
	result, err := r.pool.Exec(ctx, query, profile, jobID, workerID, now, expiresAt)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

func (r *LockRepository) Release(ctx context.Context, profile, jobID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM profile_locks WHERE profile = $1 AND job_id = $2`, profile, jobID)
	return err
}

func (r *LockRepository) ReleaseByJobID(ctx context.Context, jobID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM profile_locks WHERE job_id = $1`, jobID)
	return err
}

func (r *LockRepository) Refresh(ctx context.Context, profile, jobID string, ttl time.Duration) error {
	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx, `
		UPDATE profile_locks SET expires_at = $3 WHERE profile = $1 AND job_id = $2
	`, profile, jobID, now.Add(ttl))
	return err
}
