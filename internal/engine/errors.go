package engine

import (
	"errors"
	"fmt"
)

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeNotApplicable indicates a strict run hit a transformation whose
	// preconditions do not hold.
	ErrCodeNotApplicable RuntimeErrorCode = "NOT_APPLICABLE"

	// ErrCodeInvalidBefore indicates the input module failed validation.
	ErrCodeInvalidBefore RuntimeErrorCode = "INVALID_BEFORE"

	// ErrCodeInvalidAfter indicates an applied transformation produced an
	// invalid module.
	ErrCodeInvalidAfter RuntimeErrorCode = "INVALID_AFTER"

	// ErrCodeNonDeterministicReplay indicates a replay diverged from the
	// stored log.
	ErrCodeNonDeterministicReplay RuntimeErrorCode = "NON_DETERMINISTIC_REPLAY"

	// ErrCodeQuotaExceeded indicates the sequence exceeded max steps.
	ErrCodeQuotaExceeded RuntimeErrorCode = "QUOTA_EXCEEDED"
)

// RuntimeError represents an error detected while running or replaying a
// sequence.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// SequenceID identifies the persisted sequence, if any.
	SequenceID string

	// Step is the index of the offending step, or -1 for errors that are not
	// tied to a step.
	Step int

	// Cause is the underlying rejection, validation or store error.
	Cause error
}

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Step >= 0 {
		msg = fmt.Sprintf("%s (step=%d)", msg, e.Step)
	}
	if e.SequenceID != "" {
		msg = fmt.Sprintf("%s (sequence=%s)", msg, e.SequenceID)
	}
	return msg
}

// Unwrap returns the cause.
func (e *RuntimeError) Unwrap() error {
	return e.Cause
}

// CodeOf returns the runtime error code carried by err, or "" if err is not
// a runtime error. StepsExceededError maps to ErrCodeQuotaExceeded.
func CodeOf(err error) RuntimeErrorCode {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code
	}
	var se *StepsExceededError
	if errors.As(err, &se) {
		return se.Code()
	}
	return ""
}

// IsNotApplicable returns true if err reports a rejected step in strict mode.
func IsNotApplicable(err error) bool {
	return CodeOf(err) == ErrCodeNotApplicable
}

// IsValidationError returns true if err reports an invalid module before or
// after a step.
func IsValidationError(err error) bool {
	code := CodeOf(err)
	return code == ErrCodeInvalidBefore || code == ErrCodeInvalidAfter
}

// IsReplayMismatch returns true if err reports a diverging replay.
func IsReplayMismatch(err error) bool {
	return CodeOf(err) == ErrCodeNonDeterministicReplay
}

// IsQuotaError returns true if the error is a quota exceeded error.
// Matches both RuntimeError with ErrCodeQuotaExceeded and StepsExceededError.
func IsQuotaError(err error) bool {
	return CodeOf(err) == ErrCodeQuotaExceeded
}

func newReplayError(sequenceID string, step int, format string, args ...any) *RuntimeError {
	return &RuntimeError{
		Code:       ErrCodeNonDeterministicReplay,
		Message:    fmt.Sprintf(format, args...),
		SequenceID: sequenceID,
		Step:       step,
	}
}
