package model

import "errors"

var (
	ErrContactNotFound      = errors.New("contact not found")
	ErrIdentifiersRequired  = errors.New("row has neither a name nor a linkedin url")
	ErrInvalidStage         = errors.New("stage must be between 1 and 5")
)

type ErrorCode string

const (
	CodeContactNotFound     ErrorCode = "CONTACT_NOT_FOUND"
	CodeIdentifiersRequired ErrorCode = "IDENTIFIERS_REQUIRED"
	CodeInvalidStage        ErrorCode = "INVALID_STAGE"
	CodeInternalError       ErrorCode = "INTERNAL_ERROR"
)

func GetErrorCode(err error) ErrorCode {
	switch {
	case errors.Is(err, ErrContactNotFound):
		return CodeContactNotFound
	case errors.Is(err, ErrIdentifiersRequired):
		return CodeIdentifiersRequired
	case errors.Is(err, ErrInvalidStage):
		return CodeInvalidStage
	default:
		return CodeInternalError
	}
}

func GetErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrContactNotFound):
		return "Contact not found"
	case errors.Is(err, ErrIdentifiersRequired):
		return "Row has neither a name nor a LinkedIn URL"
	case errors.Is(err, ErrInvalidStage):
		return "Stage must be between 1 and 5"
	default:
		return "Internal server error"
	}
}
