package model

import "errors"

var (
	ErrCaseNotFound   = errors.New("aggregator: case not found")
	ErrInvalidStatus  = errors.New("aggregator: status must be 'active' or 'concluidos'")
)

// ValidStatus reports whether status is a recognized case status.
func ValidStatus(status string) bool {
	return status == CaseStatusActive || status == CaseStatusConcluidos
}
