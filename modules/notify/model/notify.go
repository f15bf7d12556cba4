package model

import (
	"errors"
	"time"
)

// Notification is a one-shot operational event (spec §4.4 "failures
// inside any periodic job are caught, logged, and converted to a
// notification row"). Unlike Alert, a notification is never resolved —
// it is only ever read or unread.
type Notification struct {
	ID        string
	Kind      string
	Message   string
	Detail    map[string]string
	ReadAt    *time.Time
	CreatedAt time.Time
}

const (
	KindScheduleFailure = "schedule_failure"
	KindImportFailure   = "import_failure"
	KindRateLimitAlert  = "rate_limit_alert"
	KindScrapeResult    = "scrape_result"
)

// EmailStatus values for the email_log queue (spec §3 "email_log").
const (
	EmailStatusQueued = "queued"
	EmailStatusSent   = "sent"
	EmailStatusFailed = "failed"
)

// EmailLogEntry is a queued or sent outbound email (newsletter,
// webinar reminder, or cadence rule). Mailer.Send drains rows whose
// status is queued and scheduled_at <= now.
type EmailLogEntry struct {
	ID           string
	Rule         string
	ContactID    *string
	ToAddress    string
	Subject      string
	HTMLBody     string
	TextBody     string
	Status       string
	ScheduledAt  time.Time
	SentAt       *time.Time
	MessageID    *string
	Error        *string
	CreatedAt    time.Time
}

var (
	ErrNotificationNotFound = errors.New("notification not found")
)
