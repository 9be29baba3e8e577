package model

import "errors"

var (
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserInactive is returned when a candidate user is not active or
	// not subscribed (§3 eligibility).
	ErrUserInactive = errors.New("user is not active or subscribed")
)

// ErrorCode represents a machine-readable error code.
type ErrorCode string

const (
	CodeUserNotFound  ErrorCode = "USER_NOT_FOUND"
	CodeUserInactive  ErrorCode = "USER_INACTIVE"
	CodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// GetErrorCode maps errors to error codes.
func GetErrorCode(err error) ErrorCode {
	switch {
	case errors.Is(err, ErrUserNotFound):
		return CodeUserNotFound
	case errors.Is(err, ErrUserInactive):
		return CodeUserInactive
	default:
		return CodeInternalError
	}
}
