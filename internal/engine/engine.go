package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/spvfuzz/internal/fact"
	"github.com/roach88/spvfuzz/internal/ir"
	"github.com/roach88/spvfuzz/internal/record"
	"github.com/roach88/spvfuzz/internal/store"
	"github.com/roach88/spvfuzz/internal/transform"
	"github.com/roach88/spvfuzz/internal/validate"
)

// DefaultMaxSteps is the default maximum number of steps per sequence.
const DefaultMaxSteps = 1000

// Mode decides what happens when a step is not applicable.
type Mode int

const (
	// ModeStrict stops the run at the first rejected step.
	ModeStrict Mode = iota
	// ModeLenient records the rejection and continues, the way a fuzzing
	// driver skips transformations that do not fit the current module.
	ModeLenient
)

func (m Mode) String() string {
	if m == ModeLenient {
		return "lenient"
	}
	return "strict"
}

// Engine applies transformation sequences to modules.
//
// An Engine holds only configuration and may be shared between goroutines.
// The module and context passed to Run are mutated in place and must not be
// shared; RunParallel clones them per sequence.
type Engine struct {
	validator validate.Validator
	store     *store.Store
	logger    *slog.Logger
	maxSteps  int
	mode      Mode
	idGen     SequenceIDGenerator
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithMaxSteps sets the maximum steps quota per sequence.
//
// Default: 1000 steps (DefaultMaxSteps)
func WithMaxSteps(maxSteps int) EngineOption {
	return func(e *Engine) {
		e.maxSteps = maxSteps
	}
}

// WithValidator validates the module before the first step and after every
// applied step. Without a validator no validation happens.
func WithValidator(v validate.Validator) EngineOption {
	return func(e *Engine) {
		e.validator = v
	}
}

// WithStore records every run and step in s.
func WithStore(s *store.Store) EngineOption {
	return func(e *Engine) {
		e.store = s
	}
}

// WithLogger sets the structured logger. Default: discard.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithMode selects strict or lenient handling of rejected steps.
func WithMode(m Mode) EngineOption {
	return func(e *Engine) {
		e.mode = m
	}
}

// WithIDGenerator sets the generator for persisted sequence ids.
// Default: UUIDv7Generator.
func WithIDGenerator(g SequenceIDGenerator) EngineOption {
	return func(e *Engine) {
		e.idGen = g
	}
}

// New creates an Engine. Options can be passed to configure the engine
// (e.g., WithMaxSteps, WithStore).
func New(opts ...EngineOption) *Engine {
	e := &Engine{
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxSteps: DefaultMaxSteps,
		mode:     ModeStrict,
		idGen:    UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// StepResult is the outcome of one attempted transformation.
type StepResult struct {
	Index          int
	Seq            int64
	Transformation transform.Transformation
	Hash           string
	Applied        bool
	// Rejection is the precondition that failed, empty when applied.
	Rejection transform.RejectionCode
	// Digest is the module digest after the step.
	Digest string
}

// Result summarizes a run or replay.
type Result struct {
	// SequenceID is set when the run was persisted or replayed from a store.
	SequenceID string
	Steps      []StepResult
	Applied    int
	Rejected   int
	// Digest is the final module digest.
	Digest string
	// Module and Context are the transformed module and its context.
	Module  *ir.Module
	Context *transform.Context
}

// ModuleDigest is the content hash of the binary encoding of m.
func ModuleDigest(m *ir.Module) string {
	return record.HashBytes(record.DomainModule, ir.Encode(m))
}

// Run applies seq to m in order, mutating m and tc.
//
// For each step the engine checks preconditions, applies the transformation
// when they hold, stamps the step with the next logical clock value and, if
// a validator is configured, validates the result. The returned Result is
// non-nil even on error and holds the steps attempted so far.
func (e *Engine) Run(ctx context.Context, m *ir.Module, tc *transform.Context, seq transform.Sequence) (*Result, error) {
	res := &Result{Steps: []StepResult{}, Module: m, Context: tc}
	if m == nil || tc == nil {
		return res, errors.New("run: module and context are required")
	}

	if err := e.validate(m, tc.Env()); err != nil {
		validationFailures.WithLabelValues(phaseBefore).Inc()
		e.logger.Warn("input module is invalid", "env", tc.Env().String(), "error", err)
		return res, &RuntimeError{
			Code:    ErrCodeInvalidBefore,
			Message: "input module failed validation",
			Step:    -1,
			Cause:   err,
		}
	}

	digest := ModuleDigest(m)
	if e.store != nil {
		res.SequenceID = e.idGen.Generate()
		err := e.store.CreateSequence(ctx, store.Sequence{
			ID:               res.SequenceID,
			TargetEnv:        tc.Env().String(),
			ValidatorOptions: tc.ValidatorOptions().Record(),
			InitialModule:    ir.Encode(m),
			InitialDigest:    digest,
			ToolVersion:      ir.ToolVersion,
			RecordVersion:    ir.RecordVersion,
		})
		if err != nil {
			return res, fmt.Errorf("run: %w", err)
		}
	}
	res.Digest = digest

	log := e.logger.With("sequence", res.SequenceID, "mode", e.mode.String())
	log.Info("sequence starting", "steps", len(seq), "env", tc.Env().String())

	clock := NewClock()
	quota := NewQuotaEnforcer(e.maxSteps)
	for i, t := range seq {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := quota.Check(res.SequenceID); err != nil {
			log.Warn("quota exceeded", "steps", quota.Current(), "limit", quota.MaxSteps())
			return res, err
		}

		timer := prometheus.NewTimer(stepDuration)
		err := e.step(ctx, log, res, m, tc, i, t, clock.Next())
		timer.ObserveDuration()
		if err != nil {
			return res, err
		}
	}

	log.Info("sequence complete", "applied", res.Applied, "rejected", res.Rejected)
	return res, nil
}

// step attempts one transformation and appends its StepResult.
func (e *Engine) step(ctx context.Context, log *slog.Logger, res *Result, m *ir.Module, tc *transform.Context, i int, t transform.Transformation, seq int64) error {
	kind := string(t.Kind())
	hash, err := transform.Hash(t)
	if err != nil {
		return fmt.Errorf("step %d: %w", i, err)
	}
	log = log.With("step", i, "seq", seq, "kind", kind)
	log.Debug("step starting", "hash", hash)

	sr := StepResult{Index: i, Seq: seq, Transformation: t, Hash: hash}
	factsBefore := tc.Facts().Len()

	if checkErr := t.Check(m, tc); checkErr != nil {
		sr.Rejection = transform.CodeOf(checkErr)
		sr.Digest = res.Digest
		res.Steps = append(res.Steps, sr)
		res.Rejected++
		stepsRejected.WithLabelValues(kind, string(sr.Rejection)).Inc()
		log.Info("transformation rejected", "code", string(sr.Rejection), "reason", checkErr.Error())

		if err := e.record(ctx, res.SequenceID, sr, nil); err != nil {
			return err
		}
		if e.mode == ModeStrict {
			return &RuntimeError{
				Code:       ErrCodeNotApplicable,
				Message:    checkErr.Error(),
				SequenceID: res.SequenceID,
				Step:       i,
				Cause:      checkErr,
			}
		}
		return nil
	}

	t.Apply(m, tc)
	sr.Applied = true
	sr.Digest = ModuleDigest(m)
	res.Digest = sr.Digest
	res.Steps = append(res.Steps, sr)
	res.Applied++
	stepsApplied.WithLabelValues(kind).Inc()
	log.Info("transformation applied", "bound", m.Bound())

	if err := e.record(ctx, res.SequenceID, sr, tc.Facts().Facts()[factsBefore:]); err != nil {
		return err
	}

	if err := e.validate(m, tc.Env()); err != nil {
		validationFailures.WithLabelValues(phaseAfter).Inc()
		log.Error("transformation produced an invalid module", "error", err)
		return &RuntimeError{
			Code:       ErrCodeInvalidAfter,
			Message:    fmt.Sprintf("module invalid after %s", kind),
			SequenceID: res.SequenceID,
			Step:       i,
			Cause:      err,
		}
	}
	return nil
}

// record persists a step and the facts it produced. Facts are written
// first so a stored step never lacks its facts.
func (e *Engine) record(ctx context.Context, sequenceID string, sr StepResult, facts []fact.Fact) error {
	if e.store == nil {
		return nil
	}
	for _, f := range facts {
		h, err := f.Hash()
		if err != nil {
			return fmt.Errorf("step %d: %w", sr.Index, err)
		}
		err = e.store.WriteFact(ctx, store.Fact{
			SequenceID: sequenceID,
			Hash:       h,
			Seq:        sr.Seq,
			Fact:       f.Record(),
		})
		if err != nil {
			return fmt.Errorf("step %d: %w", sr.Index, err)
		}
	}

	outcome := store.OutcomeApplied
	if !sr.Applied {
		outcome = store.OutcomeRejected
	}
	inserted, err := e.store.WriteStep(ctx, store.Step{
		SequenceID:         sequenceID,
		Seq:                sr.Seq,
		Index:              sr.Index,
		TransformationHash: sr.Hash,
		Transformation:     sr.Transformation.Record(),
		Outcome:            outcome,
		RejectionCode:      string(sr.Rejection),
		ModuleDigest:       sr.Digest,
	})
	if err != nil {
		return fmt.Errorf("step %d: %w", sr.Index, err)
	}
	if !inserted {
		return fmt.Errorf("step %d: already recorded for sequence %s", sr.Index, sequenceID)
	}
	return nil
}

func (e *Engine) validate(m *ir.Module, env ir.TargetEnv) error {
	if e.validator == nil {
		return nil
	}
	return e.validator.Validate(m, env)
}
