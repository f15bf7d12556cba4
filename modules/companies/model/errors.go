package model

import "errors"

var (
	// ErrCompanyNotFound is returned when a company is not found
	ErrCompanyNotFound = errors.New("company not found")

	// ErrCompanyNameRequired is returned when company name is empty
	ErrCompanyNameRequired = errors.New("company name is required")

	// ErrDuplicateNormalizedName is returned when a company with the
	// same normalized_name already exists (spec §3 invariant).
	ErrDuplicateNormalizedName = errors.New("a company with this normalized name already exists")
)

// ErrorCode represents error codes
type ErrorCode string

const (
	CodeCompanyNotFound        ErrorCode = "COMPANY_NOT_FOUND"
	CodeCompanyNameRequired    ErrorCode = "COMPANY_NAME_REQUIRED"
	CodeDuplicateNormalizedName ErrorCode = "COMPANY_DUPLICATE_NORMALIZED_NAME"
	CodeInternalError          ErrorCode = "INTERNAL_ERROR"
)

// GetErrorCode maps errors to error codes
func GetErrorCode(err error) ErrorCode {
	switch {
	case errors.Is(err, ErrCompanyNotFound):
		return CodeCompanyNotFound
	case errors.Is(err, ErrCompanyNameRequired):
		return CodeCompanyNameRequired
	case errors.Is(err, ErrDuplicateNormalizedName):
		return CodeDuplicateNormalizedName
	default:
		return CodeInternalError
	}
}

// GetErrorMessage returns a user-friendly error message
func GetErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrCompanyNotFound):
		return "Company not found"
	case errors.Is(err, ErrCompanyNameRequired):
		return "Company name is required"
	case errors.Is(err, ErrDuplicateNormalizedName):
		return "A company with this normalized name already exists"
	default:
		return "Internal server error"
	}
}
