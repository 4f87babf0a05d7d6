// Package shared contains common domain types, errors and events
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Validation errors
	ErrValidation    = errors.New("validation error")
	ErrInvalidID     = errors.New("invalid ID")
	ErrInvalidInput  = errors.New("invalid input")
	ErrEmptyValue    = errors.New("value cannot be empty")
	ErrInvalidFormat = errors.New("invalid format")

	// State errors
	ErrInvalidState    = errors.New("invalid state")
	ErrStateTransition = errors.New("invalid state transition")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "staff", "attendance", "settings"
	Op      string // Operation that failed, e.g., "Create", "Punch"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Staff domain errors
var (
	ErrUserNotFound         = NewDomainError("staff", "Find", ErrNotFound, "user not found")
	ErrUserNameRequired     = NewDomainError("staff", "Validate", ErrEmptyValue, "name is required")
	ErrUserPasswordRequired = NewDomainError("staff", "Validate", ErrEmptyValue, "password (code) is required")
	ErrInvalidRole          = NewDomainError("staff", "Validate", ErrInvalidInput, "invalid role")
	ErrInvalidCredentials   = NewDomainError("staff", "Authenticate", ErrUnauthorized, "invalid credentials")
)

// Attendance domain errors
var (
	ErrLogNotFound      = NewDomainError("attendance", "Find", ErrNotFound, "time log not found")
	ErrInvalidLogType   = NewDomainError("attendance", "Validate", ErrInvalidInput, "invalid log type")
	ErrPunchNotAllowed  = NewDomainError("attendance", "Punch", ErrStateTransition, "punch type not allowed after the last record")
	ErrWorkDayFinished  = NewDomainError("attendance", "Punch", ErrInvalidState, "work day already finished")
	ErrInvalidTimestamp = NewDomainError("attendance", "Validate", ErrInvalidFormat, "invalid timestamp")
)

// Settings domain errors
var (
	ErrInvalidClock    = NewDomainError("settings", "Validate", ErrInvalidFormat, "time must use HH:MM")
	ErrInvalidSchedule = NewDomainError("settings", "Validate", ErrValidation, "schedule boundaries are out of order")
)

// Notification and backup errors
var (
	ErrRelayFailed   = NewDomainError("notification", "Relay", ErrExternalService, "email relay failed")
	ErrInvalidBackup = NewDomainError("backup", "Import", ErrInvalidFormat, "invalid backup file")
	ErrInvalidRoster = NewDomainError("report", "ImportRoster", ErrInvalidFormat, "invalid roster spreadsheet")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrInvalidFormat)
}

// IsConflict checks if the error comes from a rejected state transition.
func IsConflict(err error) bool {
	return errors.Is(err, ErrInvalidState) || errors.Is(err, ErrStateTransition)
}

// IsForbidden checks if the error is an authorization failure.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsUnauthorized checks if the error is an authentication failure.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout)
}
