// Package errkind names the seven error kinds of the import worker's
// error-handling design (spec §7), used by the retry policy and by
// audit-row writers to pick a reason code rather than a Go error type.
package errkind

type Kind string

const (
	RowInvalid     Kind = "row_invalid"
	FieldParse     Kind = "field_parse"
	Conflict       Kind = "conflict"
	StoreTransient Kind = "store_transient"
	LockContention Kind = "lock_contention"
	Unrecoverable  Kind = "unrecoverable"
	RateLimit      Kind = "rate_limit"
)

// Reason codes used in audit rows and error_breakdown tallies.
const (
	ReasonMissingIdentifiers = "invalid_missing_identifiers"
	ReasonConnectedOnParse   = "connected_on_parse_failed"
	ReasonEmailParse         = "email_parse_failed"
	ReasonLinkedInURLParse   = "linkedin_url_parse_failed"
	ReasonEmailURLMismatch   = "email_url_mismatch"
)
