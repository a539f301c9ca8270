package transform

import (
	"errors"
	"fmt"
)

// RejectionCode names the precondition a transformation failed.
type RejectionCode string

const (
	// ErrCodeInvalidFreshID indicates the fresh id is zero or above ir.MaxID.
	ErrCodeInvalidFreshID RejectionCode = "INVALID_FRESH_ID"

	// ErrCodeIDCollision indicates the fresh id already names an instruction.
	ErrCodeIDCollision RejectionCode = "ID_COLLISION"

	// ErrCodeMissingData indicates an empty literal payload.
	ErrCodeMissingData RejectionCode = "MISSING_DATA"

	// ErrCodeDataWidthMismatch indicates the payload word count does not
	// match the type's bit width.
	ErrCodeDataWidthMismatch RejectionCode = "DATA_WIDTH_MISMATCH"

	// ErrCodeUnknownType indicates the type id names no instruction.
	ErrCodeUnknownType RejectionCode = "UNKNOWN_TYPE"

	// ErrCodeNotAType indicates the type id names a non-type instruction.
	ErrCodeNotAType RejectionCode = "NOT_A_TYPE"

	// ErrCodeIneligibleTypeCategory indicates a void, pointer or composite
	// type where a scalar numeric type is required.
	ErrCodeIneligibleTypeCategory RejectionCode = "INELIGIBLE_TYPE_CATEGORY"
)

// RejectionError explains why a transformation is not applicable.
// Rejections are recoverable: callers skip the transformation or pick
// different parameters.
type RejectionError struct {
	Code    RejectionCode
	Kind    Kind
	Message string
}

// Error implements the error interface.
func (e *RejectionError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Code, e.Kind, e.Message)
}

func reject(kind Kind, code RejectionCode, format string, args ...any) *RejectionError {
	return &RejectionError{Code: code, Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// IsRejection returns true if err is or wraps a RejectionError.
func IsRejection(err error) bool {
	var re *RejectionError
	return errors.As(err, &re)
}

// CodeOf returns the code of a wrapped RejectionError, or "" for any other
// error.
func CodeOf(err error) RejectionCode {
	var re *RejectionError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}
