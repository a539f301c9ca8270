package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/spvfuzz/internal/record"
)

func TestCreateSequence_Roundtrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	want := createTestSequence("seq1")
	require.NoError(t, s.CreateSequence(ctx, want))

	got, err := s.ReadSequence(ctx, "seq1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestCreateSequence_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first := createTestSequence("seq1")
	require.NoError(t, s.CreateSequence(ctx, first))

	second := createTestSequence("seq1")
	second.TargetEnv = "vulkan1.1"
	require.NoError(t, s.CreateSequence(ctx, second))

	got, err := s.ReadSequence(ctx, "seq1")
	require.NoError(t, err)
	assert.Equal(t, "spv1.3", got.TargetEnv, "first write wins")
}

func TestCreateSequence_NilOptionsAndModule(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	seq := Sequence{ID: "seq1", TargetEnv: "spv1.3"}
	require.NoError(t, s.CreateSequence(ctx, seq))

	got, err := s.ReadSequence(ctx, "seq1")
	require.NoError(t, err)
	assert.Equal(t, record.Object{}, got.ValidatorOptions)
	assert.Empty(t, got.InitialModule)
}

func TestWriteStep_InsertAndDuplicate(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateSequence(ctx, createTestSequence("seq1")))

	inserted, err := s.WriteStep(ctx, createTestStep("seq1", 1, 0))
	require.NoError(t, err)
	assert.True(t, inserted)

	// Same seq.
	inserted, err = s.WriteStep(ctx, createTestStep("seq1", 1, 0))
	require.NoError(t, err)
	assert.False(t, inserted)

	// Same index under a different seq.
	inserted, err = s.WriteStep(ctx, createTestStep("seq1", 2, 0))
	require.NoError(t, err)
	assert.False(t, inserted)

	steps, err := s.ReadSteps(ctx, "seq1")
	require.NoError(t, err)
	assert.Len(t, steps, 1)
}

func TestWriteStep_InvalidOutcome(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateSequence(ctx, createTestSequence("seq1")))

	step := createTestStep("seq1", 1, 0)
	step.Outcome = "maybe"
	_, err := s.WriteStep(ctx, step)
	assert.ErrorContains(t, err, "invalid outcome")
}

func TestWriteStep_StoresCanonicalJSON(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateSequence(ctx, createTestSequence("seq1")))

	step := createTestStep("seq1", 1, 0)
	step.Transformation = record.Object{
		"words":    record.Words([]uint32{1, 2}),
		"kind":     record.String("add_constant_scalar"),
		"fresh_id": record.Int(100),
	}
	_, err := s.WriteStep(ctx, step)
	require.NoError(t, err)

	var raw string
	require.NoError(t, s.db.QueryRow("SELECT transformation FROM steps WHERE sequence_id = 'seq1'").Scan(&raw))
	assert.Equal(t, `{"fresh_id":100,"kind":"add_constant_scalar","words":[1,2]}`, raw)
}

func TestWriteFact_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateSequence(ctx, createTestSequence("seq1")))

	f := Fact{
		SequenceID: "seq1",
		Hash:       "fhash",
		Seq:        3,
		Fact:       record.Object{"kind": record.String("irrelevant"), "ids": record.Words([]uint32{106})},
	}
	require.NoError(t, s.WriteFact(ctx, f))

	again := f
	again.Seq = 9
	require.NoError(t, s.WriteFact(ctx, again))

	facts, err := s.ReadFacts(ctx, "seq1")
	require.NoError(t, err)
	require.Len(t, facts, 1)
	assert.Equal(t, int64(3), facts[0].Seq, "original seq is kept")
	assert.Equal(t, f.Fact, facts[0].Fact)
}
