package asm

import (
	"slices"

	"github.com/roach88/spvfuzz/internal/ir"
)

// generatorWord is the header position of the generator magic. Modules built
// by different tools may differ there and still be equal.
const generatorWord = 2

// IsEqual reports whether m encodes to the same binary as expected assembled
// for env. The generator word is ignored. Text that does not assemble is
// never equal.
func IsEqual(env ir.TargetEnv, expected string, m *ir.Module) bool {
	want, err := Assemble(env, expected)
	if err != nil {
		return false
	}
	a := ir.EncodeWords(want)
	b := ir.EncodeWords(m)
	a[generatorWord], b[generatorWord] = 0, 0
	return slices.Equal(a, b)
}
