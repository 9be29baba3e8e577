package model

import "errors"

var (
	// ErrJobNotFound is returned when a job is not found
	ErrJobNotFound = errors.New("job not found")

	// ErrInvalidSalaryRange is returned when max_salary < min_salary
	ErrInvalidSalaryRange = errors.New("max_salary is less than min_salary")

	// ErrFeeTooLow is returned when fee does not exceed the matching floor
	ErrFeeTooLow = errors.New("fee does not exceed the matching floor")

	// ErrInvalidEmploymentType is returned when employment_type_cd is not in the valid set
	ErrInvalidEmploymentType = errors.New("employment_type_cd is not a valid type")

	// ErrAlreadyEnded is returned when end_at is already in the past
	ErrAlreadyEnded = errors.New("end_at is not in the future")

	// ErrUnknownPrefecture is returned when pref_cd has no matching master row
	ErrUnknownPrefecture = errors.New("pref_cd not found in masters")

	// ErrUnknownCity is returned when city_cd has no matching master row
	ErrUnknownCity = errors.New("city_cd not found in masters")
)

// ErrorCode represents error codes
type ErrorCode string

const (
	CodeJobNotFound           ErrorCode = "JOB_NOT_FOUND"
	CodeInvalidSalaryRange    ErrorCode = "INVALID_SALARY_RANGE"
	CodeFeeTooLow             ErrorCode = "FEE_TOO_LOW"
	CodeInvalidEmploymentType ErrorCode = "INVALID_EMPLOYMENT_TYPE"
	CodeAlreadyEnded          ErrorCode = "ALREADY_ENDED"
	CodeUnknownPrefecture     ErrorCode = "UNKNOWN_PREFECTURE"
	CodeUnknownCity           ErrorCode = "UNKNOWN_CITY"
	CodeInternalError         ErrorCode = "INTERNAL_ERROR"
)

// GetErrorCode maps a rejection error to its reason code, recorded in
// Ingest's rejections[] (§4.B, §6.5).
func GetErrorCode(err error) ErrorCode {
	switch {
	case errors.Is(err, ErrJobNotFound):
		return CodeJobNotFound
	case errors.Is(err, ErrInvalidSalaryRange):
		return CodeInvalidSalaryRange
	case errors.Is(err, ErrFeeTooLow):
		return CodeFeeTooLow
	case errors.Is(err, ErrInvalidEmploymentType):
		return CodeInvalidEmploymentType
	case errors.Is(err, ErrAlreadyEnded):
		return CodeAlreadyEnded
	case errors.Is(err, ErrUnknownPrefecture):
		return CodeUnknownPrefecture
	case errors.Is(err, ErrUnknownCity):
		return CodeUnknownCity
	default:
		return CodeInternalError
	}
}
