package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/spvfuzz/internal/asm"
	"github.com/roach88/spvfuzz/internal/engine"
	"github.com/roach88/spvfuzz/internal/fact"
	"github.com/roach88/spvfuzz/internal/store"
	"github.com/roach88/spvfuzz/internal/testutil"
	"github.com/roach88/spvfuzz/internal/transform"
	"github.com/roach88/spvfuzz/internal/validate"
)

// Harness is the scenario execution engine.
// It runs scenarios against a fresh in-memory store with a fixed sequence id.
type Harness struct {
	store  *store.Store
	engine *engine.Engine
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// A fixed sequence id keeps the recorded log reproducible.
//
// Execution flow:
// 1. Assemble the module for the scenario's target environment
// 2. Apply the steps through the engine with the structural validator
// 3. Compare each step's outcome against its expect clause
// 4. Evaluate assertions on the final module and fact database
// 5. Replay the recorded sequence and check it reaches the same digest
//
// The returned error covers setup failures only (bad module text, bad
// transformation records, store errors). Expectation mismatches are
// reported through Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	env, err := scenario.Env()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve target env: %w", err)
	}
	m, err := asm.Assemble(env, scenario.Module)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble module: %w", err)
	}
	seq, err := scenario.Sequence()
	if err != nil {
		return nil, fmt.Errorf("failed to decode steps: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	mode := engine.ModeLenient
	if scenario.Mode == "strict" {
		mode = engine.ModeStrict
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := &Harness{
		store:  st,
		logger: logger,
		engine: engine.New(
			engine.WithStore(st),
			engine.WithValidator(validate.Structural{}),
			engine.WithMode(mode),
			engine.WithLogger(logger),
			engine.WithIDGenerator(testutil.NewFixedSequenceIDGenerator(scenario.SequenceID)),
		),
	}

	tc := transform.NewContext(fact.NewManager(), env, validate.Options{})
	run, runErr := h.engine.Run(ctx, m, tc, seq)
	if run == nil {
		return nil, fmt.Errorf("failed to run sequence: %w", runErr)
	}

	result := NewResult()
	result.SequenceID = run.SequenceID
	result.Digest = run.Digest
	result.Module = run.Module
	for _, sr := range run.Steps {
		result.AddStepTrace(sr)
	}
	result.Irrelevant = append(result.Irrelevant, tc.Facts().IrrelevantIDs()...)

	// A strict-mode rejection ends the run early; the step comparison
	// below reports it if it was not expected.
	if runErr != nil && !engine.IsNotApplicable(runErr) {
		result.AddError(fmt.Sprintf("run: %v", runErr))
	}

	h.checkSteps(scenario.Steps, result)

	actx := &AssertionContext{Module: run.Module, Context: tc}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	if err := h.verifyReplay(ctx, result); err != nil {
		result.AddError(err.Error())
	}

	return result, nil
}

// checkSteps compares the trace against each step's expect clause.
func (h *Harness) checkSteps(steps []Step, result *Result) {
	for i, step := range steps {
		want := OutcomeApplied
		wantCode := ""
		if step.Expect != nil {
			want = step.Expect.Outcome
			wantCode = step.Expect.Code
		}

		if i >= len(result.Trace) {
			result.AddError(fmt.Sprintf("step %d: expected %s, but the step was not attempted", i, want))
			continue
		}
		got := result.Trace[i]
		if got.Outcome != want {
			msg := fmt.Sprintf("step %d: expected %s, got %s", i, want, got.Outcome)
			if got.Code != "" {
				msg += fmt.Sprintf(" (%s)", got.Code)
			}
			result.AddError(msg)
			continue
		}
		if wantCode != "" && got.Code != wantCode {
			result.AddError(fmt.Sprintf("step %d: expected rejection code %s, got %s", i, wantCode, got.Code))
		}

		h.logger.Info("step checked",
			"step", i,
			"outcome", got.Outcome,
			"code", got.Code,
		)
	}
}

// verifyReplay re-applies the recorded sequence and checks that it reaches
// the digest the run reached.
func (h *Harness) verifyReplay(ctx context.Context, result *Result) error {
	if result.SequenceID == "" {
		return nil
	}
	rep, err := h.engine.Replay(ctx, result.SequenceID)
	if err != nil {
		return fmt.Errorf("replay: %w", err)
	}
	if rep.Digest != result.Digest {
		return fmt.Errorf("replay: final digest %s differs from run digest %s", rep.Digest, result.Digest)
	}
	return nil
}
