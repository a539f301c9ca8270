package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedSequenceIDGenerator_ReturnsSameID(t *testing.T) {
	gen := NewFixedSequenceIDGenerator("test-sequence-123")

	assert.Equal(t, "test-sequence-123", gen.Generate())
	assert.Equal(t, "test-sequence-123", gen.Generate())
	assert.Equal(t, "test-sequence-123", gen.Generate())
}

func TestFixedSequenceIDGenerator_EmptyIDDefault(t *testing.T) {
	gen := NewFixedSequenceIDGenerator("")
	assert.Equal(t, DefaultSequenceID, gen.Generate())
}

func TestFixedSequenceIDGenerator_ThreadSafe(t *testing.T) {
	gen := NewFixedSequenceIDGenerator("thread-safe-id")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				assert.Equal(t, "thread-safe-id", gen.Generate())
			}
		}()
	}
	wg.Wait()
}
