package ports

import (
	"context"
	"time"

	contactmodel "github.com/andreypavlenko/crmcore/modules/contacts/model"
	"github.com/andreypavlenko/crmcore/modules/imports/model"
)

// JobRepository is the store abstraction for import_job documents.
type JobRepository interface {
	Create(ctx context.Context, job *model.Job) error
	GetByID(ctx context.Context, jobID string) (*model.Job, error)
	Update(ctx context.Context, job *model.Job) error

	// ClaimNext performs the §4.3 step 1 compare-and-set: the oldest
	// eligible job (uploaded, or pending_retry with retry_after <= now)
	// transitions atomically to processing. Returns nil, nil if no job
	// was claimed this tick.
	ClaimNext(ctx context.Context, workerID string) (*model.Job, error)

	// Heartbeat refreshes heartbeat_at and the progress counters
	// in one statement (spec §4.3 step 8).
	Heartbeat(ctx context.Context, jobID string, progress model.Progress) error

	// ListOrphaned returns jobs in processing whose heartbeat is older
	// than the orphan timeout, or who never heartbeated (spec §4.3
	// "Orphan recovery").
	ListOrphaned(ctx context.Context, olderThan time.Time) ([]*model.Job, error)

	ListByProfile(ctx context.Context, profile string, limit int) ([]*model.Job, error)
}

// LockRepository is the store abstraction for profile_lock documents.
type LockRepository interface {
	// TryAcquire upserts the lock if missing, expired, or already owned
	// by jobID (spec §4.3 step 2). Returns false if a live lock is held
	// by a different job.
	TryAcquire(ctx context.Context, profile, jobID, workerID string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, profile, jobID string) error
	ReleaseByJobID(ctx context.Context, jobID string) error
	Refresh(ctx context.Context, profile, jobID string, ttl time.Duration) error
}

// AuditRepository persists the per-row conflict/invalid/parse-failure
// records of spec §3 "Conflict / invalid-row / parse-failure", all
// subject to a 90-day TTL reaper.
type AuditRepository interface {
	SaveConflicts(ctx context.Context, rows []*contactmodel.ConflictRow) error
	SaveInvalidRows(ctx context.Context, rows []*contactmodel.InvalidRow) error
	SaveParseFailures(ctx context.Context, rows []*contactmodel.ParseFailure) error

	ListConflicts(ctx context.Context, jobID string) ([]*contactmodel.ConflictRow, error)
	ListInvalidRows(ctx context.Context, jobID string) ([]*contactmodel.InvalidRow, error)
	ListParseFailures(ctx context.Context, jobID string) ([]*contactmodel.ParseFailure, error)

	// ReapExpired deletes audit rows older than the retention window;
	// driven by the scheduler substrate, not a live DB TTL index since
	// Postgres has no native per-row TTL like the document-store original.
	ReapExpired(ctx context.Context, olderThan time.Time) (int, error)
}

// FileStore is the narrow storage interface the worker depends on for
// streaming the uploaded CSV (spec §6): two independent reads for the
// pre-pass and the main pass, plus deletion on completion (step 9).
type FileStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	Open(ctx context.Context, key string) (ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// ReadCloser mirrors io.ReadCloser without importing io into the ports
// package surface directly (kept minimal for mocking in tests).
type ReadCloser interface {
	Read(p []byte) (n int, err error)
	Close() error
}
