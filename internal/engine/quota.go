package engine

import (
	"errors"
	"fmt"
)

// QuotaEnforcer bounds the number of steps attempted in one sequence.
//
// A sequence file is finite, but drivers that generate transformations on
// the fly are not. The quota is checked before every step, applied or not.
type QuotaEnforcer struct {
	maxSteps int
	current  int
}

// NewQuotaEnforcer creates a quota enforcer with the given limit.
func NewQuotaEnforcer(maxSteps int) *QuotaEnforcer {
	return &QuotaEnforcer{maxSteps: maxSteps}
}

// Check counts one step and returns StepsExceededError once the limit is
// passed.
func (q *QuotaEnforcer) Check(sequenceID string) error {
	q.current++
	if q.current > q.maxSteps {
		return &StepsExceededError{
			SequenceID: sequenceID,
			Steps:      q.current,
			Limit:      q.maxSteps,
		}
	}
	return nil
}

// Reset sets the step counter back to 0.
func (q *QuotaEnforcer) Reset() {
	q.current = 0
}

// Current returns the number of steps counted so far.
func (q *QuotaEnforcer) Current() int {
	return q.current
}

// MaxSteps returns the limit.
func (q *QuotaEnforcer) MaxSteps() int {
	return q.maxSteps
}

// StepsExceededError is returned when a sequence attempts more steps than
// the quota allows. The run stops; steps already applied stay applied.
type StepsExceededError struct {
	SequenceID string // empty when the run is not persisted
	Steps      int
	Limit      int
}

func (e *StepsExceededError) Error() string {
	if e.SequenceID == "" {
		return fmt.Sprintf("exceeded max steps quota: %d steps > %d limit", e.Steps, e.Limit)
	}
	return fmt.Sprintf("sequence %s exceeded max steps quota: %d steps > %d limit",
		e.SequenceID, e.Steps, e.Limit)
}

// Code returns the runtime error code for quota errors.
func (e *StepsExceededError) Code() RuntimeErrorCode {
	return ErrCodeQuotaExceeded
}

// IsStepsExceededError reports whether err wraps a StepsExceededError.
func IsStepsExceededError(err error) bool {
	var se *StepsExceededError
	return errors.As(err, &se)
}
