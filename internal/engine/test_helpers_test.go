package engine

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/spvfuzz/internal/asm"
	"github.com/roach88/spvfuzz/internal/ir"
	"github.com/roach88/spvfuzz/internal/store"
	"github.com/roach88/spvfuzz/internal/transform"
	"github.com/roach88/spvfuzz/internal/validate"
)

const env = ir.EnvUniversal1_3

const shader = `
               OpCapability Shader
          %1 = OpExtInstImport "GLSL.std.450"
               OpMemoryModel Logical GLSL450
               OpEntryPoint Fragment %4 "main"
               OpExecutionMode %4 OriginUpperLeft
               OpSource ESSL 310
               OpName %4 "main"
          %2 = OpTypeVoid
          %3 = OpTypeFunction %2
          %6 = OpTypeInt 32 1
          %7 = OpTypePointer Function %6
          %9 = OpConstant %6 1
         %10 = OpTypeInt 32 0
         %14 = OpTypeFloat 32
          %4 = OpFunction %2 None %3
          %5 = OpLabel
          %8 = OpVariable %7 Function
               OpStore %8 %9
               OpReturn
               OpFunctionEnd
`

var (
	float3  = math.Float32bits(3.0)
	float30 = math.Float32bits(30.0)
)

func newShader(t *testing.T) (*ir.Module, *transform.Context) {
	t.Helper()
	m, err := asm.Assemble(env, shader)
	require.NoError(t, err)
	return m, transform.NewContext(nil, env, validate.Options{})
}

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// constants returns six applicable steps; the last three are irrelevant.
func constants() transform.Sequence {
	return transform.Sequence{
		transform.NewAddConstantScalar(100, 6, []uint32{1}, false),
		transform.NewAddConstantScalar(101, 10, []uint32{2}, false),
		transform.NewAddConstantScalar(102, 14, []uint32{float3}, false),
		transform.NewAddConstantScalar(103, 6, []uint32{10}, true),
		transform.NewAddConstantScalar(104, 10, []uint32{20}, true),
		transform.NewAddConstantScalar(105, 14, []uint32{float30}, true),
	}
}

// withCollision is constants with a step reusing %102 inserted at index 3.
func withCollision() transform.Sequence {
	seq := constants()
	collide := transform.NewAddConstantScalar(102, 14, []uint32{float30}, false)
	return append(seq[:3:3], append(transform.Sequence{collide}, seq[3:]...)...)
}
