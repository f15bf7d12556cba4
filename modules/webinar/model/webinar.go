package model

import "time"

// Event is a scheduled webinar (spec SPEC_FULL.md §3, supplemented
// feature grounded on webinar_emails.py's E06-E10 reminder set).
type Event struct {
	ID        string
	Name      string
	StartsAt  time.Time
	CreatedAt time.Time
}

// Offset is one reminder lead time before an event starts.
type Offset struct {
	Rule string
	Lead time.Duration
}

// Offsets are the reminder lead times the materializer enqueues
// (webinar_emails.py's E06/E08/E10 stages: 7 days, 1 day, 1 hour out).
var Offsets = []Offset{
	{Rule: "webinar_reminder_7d", Lead: 7 * 24 * time.Hour},
	{Rule: "webinar_reminder_24h", Lead: 24 * time.Hour},
	{Rule: "webinar_reminder_1h", Lead: time.Hour},
}
