package model

import "time"

// Newsletter is a generated or hand-authored email blast (spec
// SPEC_FULL.md §3, supplemented feature grounded on
// scheduler_worker.py's process_scheduled_newsletters /
// process_auto_newsletters_monday pair).
type Newsletter struct {
	ID             string
	Subject        string
	HTMLBody       string
	TextBody       string
	ScheduledAt    time.Time
	SentAt         *time.Time
	Status         string
	RecipientCount int
	Error          *string
	CreatedAt      time.Time
}

const (
	StatusScheduled = "scheduled"
	StatusSent      = "sent"
	StatusFailed    = "failed"
)
