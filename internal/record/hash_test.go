package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashIsKeyOrderIndependent(t *testing.T) {
	a := Object{"fresh_id": Int(100), "type_id": Int(6)}
	b := Object{"type_id": Int(6), "fresh_id": Int(100)}

	assert.Equal(t, MustHash(DomainTransformation, a), MustHash(DomainTransformation, b))
}

func TestHashDomainSeparation(t *testing.T) {
	obj := Object{"id": Int(1)}

	assert.NotEqual(t, MustHash(DomainTransformation, obj), MustHash(DomainFact, obj))
}

func TestHashFormat(t *testing.T) {
	h, err := Hash(DomainModule, Object{})
	require.NoError(t, err)
	assert.Len(t, h, 64)
	assert.Regexp(t, "^[0-9a-f]{64}$", h)
}

func TestHashBytesMatchesHash(t *testing.T) {
	obj := Object{"x": Int(7)}
	canonical, err := MarshalCanonical(obj)
	require.NoError(t, err)

	assert.Equal(t, HashBytes(DomainFact, canonical), MustHash(DomainFact, obj))
}
