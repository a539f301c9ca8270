package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/spvfuzz/internal/ir"
	"github.com/roach88/spvfuzz/internal/store"
	"github.com/roach88/spvfuzz/internal/transform"
	"github.com/roach88/spvfuzz/internal/validate"
)

// Replay rebuilds a stored sequence from its initial module and re-applies
// every recorded step, verifying that the run is reproducible.
//
// Replay follows the same check-then-apply path as Run. It diverges into a
// NON_DETERMINISTIC_REPLAY error when any of these differ from the log:
//   - the initial module digest
//   - a step's seq, index or transformation hash
//   - whether a step applied, and the rejection code if it did not
//   - the module digest after a step
//   - the set of recorded facts
//
// Replay never writes to the store and does not run the validator.
func (e *Engine) Replay(ctx context.Context, sequenceID string) (*Result, error) {
	if e.store == nil {
		return nil, errors.New("replay: engine has no store")
	}
	state, err := e.store.GetSequenceState(ctx, sequenceID)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}

	m, err := ir.Decode(state.Sequence.InitialModule)
	if err != nil {
		return nil, fmt.Errorf("replay %s: initial module: %w", sequenceID, err)
	}
	env, err := ir.ParseTargetEnv(state.Sequence.TargetEnv)
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", sequenceID, err)
	}
	opts, err := validate.OptionsFromRecord(state.Sequence.ValidatorOptions)
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", sequenceID, err)
	}
	tc := transform.NewContext(nil, env, opts)

	res := &Result{SequenceID: sequenceID, Steps: []StepResult{}, Module: m, Context: tc}
	res.Digest = ModuleDigest(m)
	if res.Digest != state.Sequence.InitialDigest {
		return res, e.mismatch(newReplayError(sequenceID, -1,
			"initial module digest %s, stored %s", res.Digest, state.Sequence.InitialDigest))
	}

	log := e.logger.With("sequence", sequenceID)
	log.Info("replay starting", "steps", len(state.Steps))

	clock := NewClock()
	for _, st := range state.Steps {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := e.replayStep(res, m, tc, st, clock.Next()); err != nil {
			return res, e.mismatch(err)
		}
	}

	if err := compareFacts(sequenceID, tc, state.Facts); err != nil {
		return res, e.mismatch(err)
	}

	replaysTotal.WithLabelValues("match").Inc()
	log.Info("replay complete", "applied", res.Applied, "rejected", res.Rejected)
	return res, nil
}

func (e *Engine) replayStep(res *Result, m *ir.Module, tc *transform.Context, st store.Step, seq int64) error {
	i := len(res.Steps)
	if st.Seq != seq || st.Index != i {
		return newReplayError(res.SequenceID, i, "stored step has seq %d index %d, expected seq %d index %d",
			st.Seq, st.Index, seq, i)
	}

	t, err := transform.Decode(st.Transformation)
	if err != nil {
		return &RuntimeError{
			Code:       ErrCodeNonDeterministicReplay,
			Message:    "stored transformation does not decode",
			SequenceID: res.SequenceID,
			Step:       i,
			Cause:      err,
		}
	}
	hash, err := transform.Hash(t)
	if err != nil {
		return fmt.Errorf("replay step %d: %w", i, err)
	}
	if hash != st.TransformationHash {
		return newReplayError(res.SequenceID, i, "transformation hash %s, stored %s", hash, st.TransformationHash)
	}

	sr := StepResult{Index: i, Seq: seq, Transformation: t, Hash: hash}
	if checkErr := t.Check(m, tc); checkErr != nil {
		sr.Rejection = transform.CodeOf(checkErr)
		if st.Outcome != store.OutcomeRejected || st.RejectionCode != string(sr.Rejection) {
			return newReplayError(res.SequenceID, i, "step rejected with %s, stored %s %s",
				sr.Rejection, st.Outcome, st.RejectionCode)
		}
		sr.Digest = res.Digest
		res.Rejected++
	} else {
		if st.Outcome != store.OutcomeApplied {
			return newReplayError(res.SequenceID, i, "step applies, stored %s %s", st.Outcome, st.RejectionCode)
		}
		t.Apply(m, tc)
		sr.Applied = true
		sr.Digest = ModuleDigest(m)
		res.Digest = sr.Digest
		res.Applied++
	}

	if sr.Digest != st.ModuleDigest {
		return newReplayError(res.SequenceID, i, "module digest %s, stored %s", sr.Digest, st.ModuleDigest)
	}
	res.Steps = append(res.Steps, sr)
	return nil
}

func compareFacts(sequenceID string, tc *transform.Context, stored []store.Fact) error {
	var got []string
	for _, f := range tc.Facts().Facts() {
		h, err := f.Hash()
		if err != nil {
			return fmt.Errorf("replay facts: %w", err)
		}
		got = append(got, h)
	}
	want := make([]string, 0, len(stored))
	for _, f := range stored {
		want = append(want, f.Hash)
	}
	slices.Sort(got)
	slices.Sort(want)
	if !slices.Equal(got, want) {
		return newReplayError(sequenceID, -1, "replayed facts (%d) differ from stored facts (%d)", len(got), len(want))
	}
	return nil
}

func (e *Engine) mismatch(err error) error {
	replaysTotal.WithLabelValues("mismatch").Inc()
	e.logger.Error("replay diverged", "error", err)
	return err
}
