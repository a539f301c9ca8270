package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ReadSequence returns the header row of a run.
// Returns ErrNotFound when no sequence has the id.
func (s *Store) ReadSequence(ctx context.Context, id string) (Sequence, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, target_env, validator_options, initial_module, initial_digest, tool_version, record_version
		FROM sequences
		WHERE id = ?
	`, id)

	var seq Sequence
	var optsJSON string
	err := row.Scan(&seq.ID, &seq.TargetEnv, &optsJSON, &seq.InitialModule, &seq.InitialDigest, &seq.ToolVersion, &seq.RecordVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return Sequence{}, fmt.Errorf("read sequence %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Sequence{}, fmt.Errorf("read sequence %s: %w", id, err)
	}

	seq.ValidatorOptions, err = unmarshalObject("validator options", optsJSON)
	if err != nil {
		return Sequence{}, fmt.Errorf("read sequence %s: %w", id, err)
	}
	return seq, nil
}

// ListSequences returns every sequence id. UUIDv7 ids sort by creation time.
func (s *Store) ListSequences(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM sequences
		ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list sequences: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("list sequences: scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sequences: %w", err)
	}
	return ids, nil
}

// ReadSteps returns all steps of a sequence in logical-clock order.
func (s *Store) ReadSteps(ctx context.Context, sequenceID string) ([]Step, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sequence_id, seq, step_index, transformation_hash, transformation, outcome, rejection_code, module_digest
		FROM steps
		WHERE sequence_id = ?
		ORDER BY seq ASC
	`, sequenceID)
	if err != nil {
		return nil, fmt.Errorf("read steps: %w", err)
	}
	defer rows.Close()

	steps := []Step{}
	for rows.Next() {
		step, err := scanStep(rows)
		if err != nil {
			return nil, fmt.Errorf("read steps: %w", err)
		}
		steps = append(steps, step)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read steps: %w", err)
	}
	return steps, nil
}

func scanStep(rows *sql.Rows) (Step, error) {
	var step Step
	var tJSON, outcome string
	err := rows.Scan(
		&step.SequenceID,
		&step.Seq,
		&step.Index,
		&step.TransformationHash,
		&tJSON,
		&outcome,
		&step.RejectionCode,
		&step.ModuleDigest,
	)
	if err != nil {
		return Step{}, fmt.Errorf("scan step: %w", err)
	}
	step.Outcome = Outcome(outcome)
	step.Transformation, err = unmarshalObject("transformation", tJSON)
	if err != nil {
		return Step{}, err
	}
	return step, nil
}

// ReadFacts returns all facts of a sequence ordered by the seq that recorded
// them, then by hash.
func (s *Store) ReadFacts(ctx context.Context, sequenceID string) ([]Fact, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sequence_id, hash, seq, fact
		FROM facts
		WHERE sequence_id = ?
		ORDER BY seq ASC, hash COLLATE BINARY ASC
	`, sequenceID)
	if err != nil {
		return nil, fmt.Errorf("read facts: %w", err)
	}
	defer rows.Close()

	facts := []Fact{}
	for rows.Next() {
		var f Fact
		var factJSON string
		if err := rows.Scan(&f.SequenceID, &f.Hash, &f.Seq, &factJSON); err != nil {
			return nil, fmt.Errorf("read facts: scan: %w", err)
		}
		f.Fact, err = unmarshalObject("fact", factJSON)
		if err != nil {
			return nil, fmt.Errorf("read facts: %w", err)
		}
		facts = append(facts, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read facts: %w", err)
	}
	return facts, nil
}
