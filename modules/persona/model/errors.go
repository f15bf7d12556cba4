package model

import "errors"

var (
	// ErrKeywordRequired is returned when a blank keyword is submitted.
	ErrKeywordRequired = errors.New("keyword is required")

	// ErrKeywordOwnedByHigherPriority is returned when inserting a
	// keyword already owned by a persona with equal or higher (i.e.
	// numerically lower-or-equal) priority (spec §4.2 keyword mutation
	// rules, grounded on job_keywords.py's 409 path).
	ErrKeywordOwnedByHigherPriority = errors.New("keyword already exists with a higher or equal priority persona")

	ErrKeywordNotFound = errors.New("keyword not found")
)

type ErrorCode string

const (
	CodeKeywordRequired              ErrorCode = "KEYWORD_REQUIRED"
	CodeKeywordOwnedByHigherPriority ErrorCode = "KEYWORD_OWNED_BY_HIGHER_PRIORITY"
	CodeKeywordNotFound              ErrorCode = "KEYWORD_NOT_FOUND"
	CodeInternalError                ErrorCode = "INTERNAL_ERROR"
)

func GetErrorCode(err error) ErrorCode {
	switch {
	case errors.Is(err, ErrKeywordRequired):
		return CodeKeywordRequired
	case errors.Is(err, ErrKeywordOwnedByHigherPriority):
		return CodeKeywordOwnedByHigherPriority
	case errors.Is(err, ErrKeywordNotFound):
		return CodeKeywordNotFound
	default:
		return CodeInternalError
	}
}

func GetErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrKeywordRequired):
		return "Keyword is required"
	case errors.Is(err, ErrKeywordOwnedByHigherPriority):
		return "Keyword already exists with a higher or equal priority persona"
	case errors.Is(err, ErrKeywordNotFound):
		return "Keyword not found"
	default:
		return "Internal server error"
	}
}
