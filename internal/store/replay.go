package store

import (
	"context"
	"fmt"
)

// SequenceState is the full stored history of a run, used to replay it.
type SequenceState struct {
	Sequence Sequence
	Steps    []Step
	Facts    []Fact
	LastSeq  int64
	Applied  int
	Rejected int
	// FinalDigest is the module digest after the last step, or the initial
	// digest when no step was recorded.
	FinalDigest string
}

// GetSequenceState loads a sequence with all of its steps and facts.
// Returns ErrNotFound (wrapped) when the sequence does not exist.
func (s *Store) GetSequenceState(ctx context.Context, sequenceID string) (SequenceState, error) {
	var state SequenceState

	seq, err := s.ReadSequence(ctx, sequenceID)
	if err != nil {
		return state, fmt.Errorf("get sequence state: %w", err)
	}
	state.Sequence = seq
	state.FinalDigest = seq.InitialDigest

	steps, err := s.ReadSteps(ctx, sequenceID)
	if err != nil {
		return state, fmt.Errorf("get sequence state: %w", err)
	}
	state.Steps = steps

	for _, step := range steps {
		if step.Seq > state.LastSeq {
			state.LastSeq = step.Seq
		}
		switch step.Outcome {
		case OutcomeApplied:
			state.Applied++
		case OutcomeRejected:
			state.Rejected++
		}
		state.FinalDigest = step.ModuleDigest
	}

	facts, err := s.ReadFacts(ctx, sequenceID)
	if err != nil {
		return state, fmt.Errorf("get sequence state: %w", err)
	}
	state.Facts = facts

	return state, nil
}
