package model

import "time"

// MetricsSnapshot is a point-in-time persona distribution across every
// contact (spec §4.4 "classifier metrics snapshot"), taken every 6h so
// persona drift over time can be charted without scanning contacts
// on every dashboard load.
type MetricsSnapshot struct {
	ID            string
	PersonaCounts map[string]int
	DefaultCount  int
	TotalContacts int
	TakenAt       time.Time
}
