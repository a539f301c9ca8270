package harness

import (
	"fmt"

	"github.com/roach88/spvfuzz/internal/engine"
	"github.com/roach88/spvfuzz/internal/ir"
)

// StepTrace records one attempted transformation.
type StepTrace struct {
	Index          int    `json:"index"`
	Seq            int64  `json:"seq"`
	Transformation string `json:"transformation"`
	Hash           string `json:"hash"`
	Outcome        string `json:"outcome"` // "applied" or "rejected"
	Code           string `json:"code,omitempty"`
	Digest         string `json:"digest"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every step matched its expect clause and every assertion held.
	Pass bool `json:"pass"`

	// Trace contains every attempted step in order.
	Trace []StepTrace `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// SequenceID is the id the run was recorded under.
	SequenceID string `json:"sequence_id"`

	// Irrelevant lists the ids recorded irrelevant, ascending.
	Irrelevant []ir.ID `json:"irrelevant"`

	// Digest is the final module digest.
	Digest string `json:"digest"`

	// Module is the transformed module.
	Module *ir.Module `json:"-"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:       true,
		Trace:      []StepTrace{},
		Errors:     []string{},
		Irrelevant: []ir.ID{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddStepTrace adds an engine step to the trace.
func (r *Result) AddStepTrace(sr engine.StepResult) {
	outcome := OutcomeApplied
	if !sr.Applied {
		outcome = OutcomeRejected
	}
	r.Trace = append(r.Trace, StepTrace{
		Index:          sr.Index,
		Seq:            sr.Seq,
		Transformation: fmt.Sprint(sr.Transformation),
		Hash:           sr.Hash,
		Outcome:        outcome,
		Code:           string(sr.Rejection),
		Digest:         sr.Digest,
	})
}

// Applied returns the number of applied steps in the trace.
func (r *Result) Applied() int {
	n := 0
	for _, st := range r.Trace {
		if st.Outcome == OutcomeApplied {
			n++
		}
	}
	return n
}
