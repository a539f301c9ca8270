package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/spvfuzz/internal/record"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestSequence creates a sequence header with minimal required fields.
func createTestSequence(id string) Sequence {
	return Sequence{
		ID:               id,
		TargetEnv:        "spv1.3",
		ValidatorOptions: record.Object{"relax_logical_pointer": record.Bool(false)},
		InitialModule:    []byte{0x03, 0x02, 0x23, 0x07},
		InitialDigest:    "digest-0",
		ToolVersion:      "0.1.0",
		RecordVersion:    "1",
	}
}

// createTestStep creates an applied step with a small transformation record.
func createTestStep(sequenceID string, seq int64, index int) Step {
	return Step{
		SequenceID:         sequenceID,
		Seq:                seq,
		Index:              index,
		TransformationHash: "thash",
		Transformation: record.Object{
			"kind":     record.String("add_constant_scalar"),
			"fresh_id": record.Int(100 + int64(index)),
		},
		Outcome:      OutcomeApplied,
		ModuleDigest: "digest",
	}
}
