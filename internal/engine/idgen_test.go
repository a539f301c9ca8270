package engine

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDv7Generator_ValidFormat(t *testing.T) {
	id := UUIDv7Generator{}.Generate()

	parsed, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
	assert.Len(t, id, 36)
}

func TestUUIDv7Generator_SortsByCreation(t *testing.T) {
	gen := UUIDv7Generator{}
	prev := gen.Generate()
	for i := 0; i < 100; i++ {
		next := gen.Generate()
		assert.Less(t, prev, next)
		prev = next
	}
}

func TestUUIDv7Generator_Concurrent(t *testing.T) {
	gen := UUIDv7Generator{}
	const n = 200

	var mu sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := gen.Generate()
			mu.Lock()
			seen[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, n)
}

func TestFixedGenerator_Sequential(t *testing.T) {
	gen := NewFixedGenerator("seq-1", "seq-2")

	assert.Equal(t, "seq-1", gen.Generate())
	assert.Equal(t, "seq-2", gen.Generate())
	assert.Panics(t, func() { gen.Generate() })
}

func TestFixedGenerator_Empty(t *testing.T) {
	gen := NewFixedGenerator()
	assert.Panics(t, func() { gen.Generate() })
}
