package fact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/spvfuzz/internal/ir"
	"github.com/roach88/spvfuzz/internal/record"
)

func TestManager_Irrelevant(t *testing.T) {
	m := NewManager()

	assert.False(t, m.IsIrrelevant(100))
	assert.False(t, m.IsIrrelevant(2020), "unknown ids are never irrelevant")

	m.RecordIrrelevant(106)
	m.RecordIrrelevant(106)
	m.RecordIrrelevant(101)

	assert.True(t, m.IsIrrelevant(106))
	assert.True(t, m.IsIrrelevant(101))
	assert.False(t, m.IsIrrelevant(100))
	assert.Equal(t, []ir.ID{101, 106}, m.IrrelevantIDs())
	assert.Equal(t, 2, m.Len(), "recording twice adds one fact")
}

func TestManager_Synonyms(t *testing.T) {
	m := NewManager()

	m.RecordSynonym(5, 9)
	m.RecordSynonym(9, 3)
	m.RecordSynonym(3, 5)
	m.RecordSynonym(20, 21)

	assert.True(t, m.IsSynonymous(5, 3))
	assert.True(t, m.IsSynonymous(3, 9))
	assert.True(t, m.IsSynonymous(7, 7))
	assert.False(t, m.IsSynonymous(5, 20))
	assert.Equal(t, []ir.ID{3, 9}, m.SynonymsOf(5))
	assert.Equal(t, []ir.ID{5, 9}, m.SynonymsOf(3))
	assert.Equal(t, []ir.ID{21}, m.SynonymsOf(20))
	assert.Empty(t, m.SynonymsOf(99))
	assert.Equal(t, 3, m.Len(), "redundant synonym is not logged")
}

func TestManager_FactsInRecordingOrder(t *testing.T) {
	m := NewManager()
	m.RecordIrrelevant(7)
	m.RecordSynonym(1, 2)
	m.RecordIrrelevant(3)

	assert.Equal(t, []Fact{Irrelevant(7), Synonym(1, 2), Irrelevant(3)}, m.Facts())
}

func TestManager_CloneIsIndependent(t *testing.T) {
	m := NewManager()
	m.RecordIrrelevant(1)
	m.RecordSynonym(2, 3)

	c := m.Clone()
	c.RecordIrrelevant(4)
	c.RecordSynonym(3, 5)

	assert.True(t, c.IsIrrelevant(1))
	assert.True(t, c.IsSynonymous(2, 5))
	assert.False(t, m.IsIrrelevant(4))
	assert.False(t, m.IsSynonymous(2, 5))
	assert.Equal(t, 2, m.Len())
}

func TestFact_RecordRoundTrip(t *testing.T) {
	for _, f := range []Fact{Irrelevant(106), Synonym(4, 9)} {
		back, err := FromRecord(f.Record())
		require.NoError(t, err)
		assert.Equal(t, f, back)
	}
}

func TestFromRecord_Errors(t *testing.T) {
	tests := []struct {
		name string
		obj  record.Object
	}{
		{"missing kind", record.Object{"ids": record.Words([]uint32{1})}},
		{"unknown kind", record.Object{"kind": record.String("livesIn"), "ids": record.Words([]uint32{1})}},
		{"wrong arity", record.Object{"kind": record.String("synonym"), "ids": record.Words([]uint32{1})}},
		{"zero id", record.Object{"kind": record.String("irrelevant"), "ids": record.Words([]uint32{0})}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromRecord(tt.obj)
			assert.Error(t, err)
		})
	}
}

func TestManager_AddRestoresState(t *testing.T) {
	src := NewManager()
	src.RecordIrrelevant(8)
	src.RecordSynonym(1, 2)

	dst := NewManager()
	for _, f := range src.Facts() {
		require.NoError(t, dst.Add(f))
	}
	assert.Equal(t, src.Facts(), dst.Facts())
	assert.True(t, dst.IsIrrelevant(8))

	assert.Error(t, dst.Add(Fact{Kind: KindIrrelevant}))
}

func TestFact_HashStable(t *testing.T) {
	h1, err := Irrelevant(5).Hash()
	require.NoError(t, err)
	h2, err := Irrelevant(5).Hash()
	require.NoError(t, err)
	h3, err := Irrelevant(6).Hash()
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
}
