package engine

import (
	"sync"

	"github.com/google/uuid"
)

// SequenceIDGenerator names persisted sequences.
// Implemented by UUIDv7Generator (production) and FixedGenerator (tests).
type SequenceIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 sequence ids, so
// store.ListSequences returns runs in creation order.
//
// Thread-safety: stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate returns a new hyphenated UUIDv7.
// Panics if UUID generation fails.
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined sequence ids for tests.
//
// Thread-safety: safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedGenerator creates a generator that returns ids in order.
//
// Example:
//
//	gen := NewFixedGenerator("seq-1", "seq-2")
//	gen.Generate() // "seq-1"
//	gen.Generate() // "seq-2"
//	gen.Generate() // panic: all ids exhausted
func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// Generate returns the next predetermined id.
// Panics if all ids have been consumed, which flags a test that created
// more sequences than it expected.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedGenerator: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}
