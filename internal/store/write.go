package store

import (
	"context"
	"fmt"

	"github.com/roach88/spvfuzz/internal/record"
)

// Outcome is the result of attempting one step.
type Outcome string

const (
	OutcomeApplied  Outcome = "applied"
	OutcomeRejected Outcome = "rejected"
)

// Sequence is the header row of a run.
type Sequence struct {
	ID               string
	TargetEnv        string
	ValidatorOptions record.Object
	InitialModule    []byte
	InitialDigest    string
	ToolVersion      string
	RecordVersion    string
}

// Step is one attempted transformation. ModuleDigest is the digest of the
// module after the step; for a rejected step it equals the previous digest.
type Step struct {
	SequenceID         string
	Seq                int64
	Index              int
	TransformationHash string
	Transformation     record.Object
	Outcome            Outcome
	RejectionCode      string
	ModuleDigest       string
}

// Fact is a fact recorded while applying a step. Seq is the logical time of
// the step that produced it.
type Fact struct {
	SequenceID string
	Hash       string
	Seq        int64
	Fact       record.Object
}

// CreateSequence inserts the sequence header row.
// Uses ON CONFLICT(id) DO NOTHING for idempotency.
func (s *Store) CreateSequence(ctx context.Context, seq Sequence) error {
	optsJSON, err := marshalObject("validator options", seq.ValidatorOptions)
	if err != nil {
		return fmt.Errorf("create sequence: %w", err)
	}
	module := seq.InitialModule
	if module == nil {
		module = []byte{}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sequences
		(id, target_env, validator_options, initial_module, initial_digest, tool_version, record_version)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		seq.ID,
		seq.TargetEnv,
		optsJSON,
		module,
		seq.InitialDigest,
		seq.ToolVersion,
		seq.RecordVersion,
	)
	if err != nil {
		return fmt.Errorf("create sequence: %w", err)
	}
	return nil
}

// WriteStep inserts a step record. Returns true when the row was inserted
// and false when a step with the same seq or index already exists.
//
// Note: the sequence referenced by SequenceID must exist (foreign key constraint).
func (s *Store) WriteStep(ctx context.Context, step Step) (bool, error) {
	if step.Outcome != OutcomeApplied && step.Outcome != OutcomeRejected {
		return false, fmt.Errorf("write step: invalid outcome %q", step.Outcome)
	}
	tJSON, err := marshalObject("transformation", step.Transformation)
	if err != nil {
		return false, fmt.Errorf("write step: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO steps
		(sequence_id, seq, step_index, transformation_hash, transformation, outcome, rejection_code, module_digest)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		step.SequenceID,
		step.Seq,
		step.Index,
		step.TransformationHash,
		tJSON,
		string(step.Outcome),
		step.RejectionCode,
		step.ModuleDigest,
	)
	if err != nil {
		return false, fmt.Errorf("write step: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("write step: rows affected: %w", err)
	}
	return rows > 0, nil
}

// WriteFact inserts a fact record. A fact with the same hash already stored
// for the sequence is silently ignored, keeping its original seq.
func (s *Store) WriteFact(ctx context.Context, f Fact) error {
	factJSON, err := marshalObject("fact", f.Fact)
	if err != nil {
		return fmt.Errorf("write fact: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO facts (sequence_id, hash, seq, fact)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(sequence_id, hash) DO NOTHING
	`,
		f.SequenceID,
		f.Hash,
		f.Seq,
		factJSON,
	)
	if err != nil {
		return fmt.Errorf("write fact: %w", err)
	}
	return nil
}
