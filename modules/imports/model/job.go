package model

import (
	"errors"
	"time"
)

// Status is the import job status machine (spec §3 "Import job"):
//
//	uploaded → processing → completed
//	              ↓
//	          pending_retry → processing → …
//	              ↓
//	           failed (after N attempts)
//	uploaded|pending_retry|processing → cancelled (by operator; a
//	processing job stops at the worker's next heartbeat check)
type Status string

const (
	StatusUploaded     Status = "uploaded"
	StatusProcessing   Status = "processing"
	StatusPendingRetry Status = "pending_retry"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
	StatusCancelled    Status = "cancelled"
)

// Config is the fixed set of named parameters spec §9 requires: no
// dynamic overrides in core paths.
var Config = struct {
	BatchSize          int
	HeartbeatIntervalS int
	OrphanTimeoutS     int
	MaxAttempts        int
	RetryBackoffS      map[int]int
	LockTTLS           int
	ConflictTTLDays    int
}{
	BatchSize:          500,
	HeartbeatIntervalS: 30,
	OrphanTimeoutS:     300,
	MaxAttempts:        3,
	RetryBackoffS:      map[int]int{1: 60, 2: 300},
	LockTTLS:           300,
	ConflictTTLDays:    90,
}

// AttemptRecord is one entry in a job's attempt_history: the worker id
// that ran the attempt, when it started, and what went wrong.
type AttemptRecord struct {
	WorkerID  string    `json:"worker_id"`
	StartedAt time.Time `json:"started_at"`
	Error     string    `json:"error"`
	Stack     string    `json:"stack,omitempty"`
}

// Progress is the counters published on every heartbeat (spec §4.3
// step 8) and read back by the progress(job_id) API (spec §6).
type Progress struct {
	TotalRows        int            `json:"total_rows"`
	ProcessedRows    int            `json:"processed_rows"`
	ContactsCreated  int            `json:"contacts_created"`
	ContactsUpdated  int            `json:"contacts_updated"`
	ConflictsCount   int            `json:"conflicts_count"`
	InvalidRowsCount int            `json:"invalid_rows_count"`
	PersonaTally     map[string]int `json:"persona_tally,omitempty"`
}

func (p *Progress) PercentComplete() float64 {
	if p.TotalRows == 0 {
		return 0
	}
	return float64(p.ProcessedRows) / float64(p.TotalRows) * 100
}

// ErrorBreakdown groups audit counters by reason code (spec §4.3 step 9).
type ErrorBreakdown map[string]int

// Job is one uploaded CSV (spec §3 "Import job").
type Job struct {
	ID             string
	Profile        string
	WeekStart      string // ISO date of Monday
	FilePath       string // storage key
	ColumnMapping  map[string]string
	Status         Status
	Attempts       int
	AttemptHistory []AttemptRecord
	HeartbeatAt    *time.Time
	WorkerID       string
	StartedAt      *time.Time
	Progress       Progress
	ErrorSummary   string
	ErrorBreakdown ErrorBreakdown
	RetryAfter     *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Lock is the per-profile mutex (spec §3 "Profile lock").
type Lock struct {
	Profile    string
	JobID      string
	WorkerID   string
	AcquiredAt time.Time
	ExpiresAt  time.Time
}

var (
	ErrJobNotFound        = errors.New("import job not found")
	ErrColumnMappingUnset = errors.New("column mapping must be set before start")
	ErrJobNotCancellable  = errors.New("job is not in a cancellable state")
	ErrProfileBusy        = errors.New("profile already has a job in processing")
)

type ErrorCode string

const (
	CodeJobNotFound        ErrorCode = "IMPORT_JOB_NOT_FOUND"
	CodeColumnMappingUnset ErrorCode = "IMPORT_COLUMN_MAPPING_UNSET"
	CodeJobNotCancellable  ErrorCode = "IMPORT_JOB_NOT_CANCELLABLE"
	CodeProfileBusy        ErrorCode = "IMPORT_PROFILE_BUSY"
	CodeInternalError      ErrorCode = "INTERNAL_ERROR"
)
