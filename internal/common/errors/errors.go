package errors

import (
	"fmt"
	"time"
)

// ErrorCode classifies an application error for transport mapping.
type ErrorCode string

const (
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation   ErrorCode = "VALIDATION_ERROR"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeBadRequest   ErrorCode = "BAD_REQUEST"

	// Giveaway lifecycle
	ErrCodeGiveawayNotFound  ErrorCode = "GIVEAWAY_NOT_FOUND"
	ErrCodeNotAcceptingPicks ErrorCode = "GIVEAWAY_NOT_ACCEPTING_PICKS"
	ErrCodeEntryCutoffPassed ErrorCode = "ENTRY_CUTOFF_PASSED"
	ErrCodeAlreadyCompleted  ErrorCode = "GIVEAWAY_ALREADY_COMPLETED"
	ErrCodeAlreadyCancelled  ErrorCode = "GIVEAWAY_ALREADY_CANCELLED"
	ErrCodeInvalidTransition ErrorCode = "INVALID_STATUS_TRANSITION"

	// Pick placement
	ErrCodeInvalidSlot         ErrorCode = "INVALID_SLOT"
	ErrCodeInvalidPickNumber   ErrorCode = "INVALID_PICK_NUMBER"
	ErrCodeDuplicatePick       ErrorCode = "DUPLICATE_PICK"
	ErrCodeInsufficientCredits ErrorCode = "INSUFFICIENT_CREDITS"
	ErrCodeNoFreeEntries       ErrorCode = "NO_FREE_ENTRIES_REMAINING"

	// Draw submission
	ErrCodeInvalidDrawResult ErrorCode = "INVALID_DRAW_RESULT"

	// Infrastructure
	ErrCodeDatabaseError ErrorCode = "DATABASE_ERROR"
	ErrCodeCacheError    ErrorCode = "CACHE_ERROR"
)

// AppError is a typed application error carried through the delivery layer.
type AppError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	RequestID string                 `json:"request_id,omitempty"`
	Cause     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// IsNotFound reports whether the error is a missing-resource error.
func (e *AppError) IsNotFound() bool {
	return e.Code == ErrCodeNotFound || e.Code == ErrCodeGiveawayNotFound
}

// IsValidation reports whether the error is a caller-correctable validation error.
func (e *AppError) IsValidation() bool {
	return e.Code == ErrCodeValidation ||
		e.Code == ErrCodeBadRequest ||
		e.Code == ErrCodeInvalidSlot ||
		e.Code == ErrCodeInvalidPickNumber ||
		e.Code == ErrCodeInvalidDrawResult
}

// IsInternal reports whether the error should page someone.
func (e *AppError) IsInternal() bool {
	return e.Code == ErrCodeInternal ||
		e.Code == ErrCodeDatabaseError ||
		e.Code == ErrCodeCacheError
}

// WithDetail attaches a detail value for the response body.
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithRequestID tags the error with the request it occurred in.
func (e *AppError) WithRequestID(requestID string) *AppError {
	e.RequestID = requestID
	return e
}

// New creates a new application error.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Wrap wraps an existing error with a code and message.
func Wrap(err error, code ErrorCode, message string) *AppError {
	appErr := New(code, message)
	appErr.Cause = err
	return appErr
}

// Wrapf wraps an existing error with formatting.
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// NewValidationError creates a field-level validation error.
func NewValidationError(field, reason string) *AppError {
	return New(ErrCodeValidation, fmt.Sprintf("Validation failed for field '%s': %s", field, reason)).
		WithDetail("field", field).
		WithDetail("reason", reason)
}

// NewGiveawayNotFoundError creates a missing-giveaway error.
func NewGiveawayNotFoundError(giveawayID string) *AppError {
	return New(ErrCodeGiveawayNotFound, fmt.Sprintf("Giveaway not found: %s", giveawayID)).
		WithDetail("giveaway_id", giveawayID)
}

// NewInsufficientCreditsError carries required vs available balance so the
// caller can decide what to do next.
func NewInsufficientCreditsError(required, available int64) *AppError {
	return New(ErrCodeInsufficientCredits, fmt.Sprintf("Insufficient credits: %d required, %d available", required, available)).
		WithDetail("required", required).
		WithDetail("available", available)
}

// NewForbiddenError creates an authorization error.
func NewForbiddenError(reason string) *AppError {
	return New(ErrCodeForbidden, fmt.Sprintf("Forbidden: %s", reason)).
		WithDetail("reason", reason)
}

// NewDatabaseError creates a storage error.
func NewDatabaseError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeDatabaseError, fmt.Sprintf("Database operation failed: %s", operation)).
		WithDetail("operation", operation)
}

// AsAppError extracts an AppError if err is one.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if err != nil {
		appErr, _ = err.(*AppError)
	}
	return appErr, appErr != nil
}
