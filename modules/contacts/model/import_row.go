package model

import "time"

// PreparedRow is one normalized CSV row, ready for the §4.3 step 5/6/7
// merge-or-insert decision. It carries everything the batch upsert
// needs without re-deriving it from raw CSV text.
type PreparedRow struct {
	RowNumber int

	Email           *string
	LinkedInURL     *string
	LinkedInURLNorm *string

	FirstName string
	LastName  string
	Name      string

	JobTitle           *string
	JobTitleNormalized *string

	RawCompanyName *string
	CompanyID      *string
	CompanyName    *string

	ConnectedOn *time.Time

	PersonaID   string
	PersonaName string

	SourceProfile string // e.g. "GB", "MG" (spec §3 import job "profile")
}

// ConflictRow is the audit record for spec §4.3 step 5's
// email_url_mismatch case: both indices matched, but to two different
// contacts.
type ConflictRow struct {
	ID           string
	JobID        string
	Profile      string
	WeekStart    string
	RowNumber    int
	ReasonCode   string
	ReasonDetail string
	RawRow       map[string]string
	CreatedAt    time.Time
}

// InvalidRow is the audit record for a row with neither a name nor a
// normalized LinkedIn URL (spec §4.3 step 5).
type InvalidRow struct {
	ID           string
	JobID        string
	Profile      string
	WeekStart    string
	RowNumber    int
	ReasonCode   string
	ReasonDetail string
	RawRow       map[string]string
	CreatedAt    time.Time
}

// ParseFailure is the audit record for a per-field parse failure
// (connected_on, email, LinkedIn URL) that does not invalidate the row.
type ParseFailure struct {
	ID           string
	JobID        string
	Profile      string
	WeekStart    string
	RowNumber    int
	ReasonCode   string
	ReasonDetail string
	RawRow       map[string]string
	CreatedAt    time.Time
}
