package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/spvfuzz/internal/ir"
	"github.com/roach88/spvfuzz/internal/transform"
)

const minimalScenario = `
name: minimal
description: "One constant"
module: |2
               OpCapability Shader
               OpMemoryModel Logical GLSL450
          %1 = OpTypeInt 32 0
steps:
  - transformation:
      kind: add_constant_scalar
      fresh_id: 5
      type_id: 1
      words: [3]
      is_irrelevant: true
assertions:
  - type: irrelevant
    ids: [5]
`

func TestLoadScenario_ValidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minimal.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalScenario), 0644))

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "minimal", scenario.Name)
	assert.Equal(t, "One constant", scenario.Description)
	require.Len(t, scenario.Steps, 1)
	assert.Nil(t, scenario.Steps[0].Expect)
	require.Len(t, scenario.Assertions, 1)
	assert.Equal(t, AssertIrrelevant, scenario.Assertions[0].Type)
	assert.Equal(t, []uint32{5}, scenario.Assertions[0].IDs)

	env, err := scenario.Env()
	require.NoError(t, err)
	assert.Equal(t, ir.DefaultTargetEnv, env)

	seq, err := scenario.Sequence()
	require.NoError(t, err)
	require.Len(t, seq, 1)
	assert.Equal(t, transform.NewAddConstantScalar(5, 1, []uint32{3}, true), seq[0])
}

func TestLoadScenario_FileNotFound(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_TestdataFiles(t *testing.T) {
	files, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, f := range files {
		t.Run(filepath.Base(f), func(t *testing.T) {
			_, err := LoadScenario(f)
			require.NoError(t, err)
		})
	}
}

func TestParseScenario_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown field",
			yaml:    minimalScenario + "assertion: []\n",
			wantErr: "field assertion not found",
		},
		{
			name: "missing name",
			yaml: `
description: d
module: "OpCapability Shader"
steps: [{transformation: {kind: add_constant_scalar}}]
assertions: [{type: valid}]
`,
			wantErr: "name is required",
		},
		{
			name: "missing module",
			yaml: `
name: n
description: d
steps: [{transformation: {kind: add_constant_scalar}}]
assertions: [{type: valid}]
`,
			wantErr: "module is required",
		},
		{
			name: "no steps",
			yaml: `
name: n
description: d
module: "OpCapability Shader"
steps: []
assertions: [{type: valid}]
`,
			wantErr: "steps list is required",
		},
		{
			name: "no assertions",
			yaml: `
name: n
description: d
module: "OpCapability Shader"
steps: [{transformation: {kind: add_constant_scalar, fresh_id: 1, type_id: 2, words: [1], is_irrelevant: false}}]
`,
			wantErr: "assertions list is required",
		},
		{
			name: "bad target env",
			yaml: `
name: n
description: d
target_env: opengl4.5
module: "OpCapability Shader"
steps: [{transformation: {kind: add_constant_scalar, fresh_id: 1, type_id: 2, words: [1], is_irrelevant: false}}]
assertions: [{type: valid}]
`,
			wantErr: "target_env",
		},
		{
			name: "bad mode",
			yaml: `
name: n
description: d
mode: eager
module: "OpCapability Shader"
steps: [{transformation: {kind: add_constant_scalar, fresh_id: 1, type_id: 2, words: [1], is_irrelevant: false}}]
assertions: [{type: valid}]
`,
			wantErr: "mode must be lenient or strict",
		},
		{
			name: "unknown transformation kind",
			yaml: `
name: n
description: d
module: "OpCapability Shader"
steps: [{transformation: {kind: add_bogus}}]
assertions: [{type: valid}]
`,
			wantErr: "steps[0]",
		},
		{
			name: "code on applied step",
			yaml: `
name: n
description: d
module: "OpCapability Shader"
steps:
  - transformation: {kind: add_constant_scalar, fresh_id: 1, type_id: 2, words: [1], is_irrelevant: false}
    expect: {outcome: applied, code: ID_COLLISION}
assertions: [{type: valid}]
`,
			wantErr: "code is only valid for rejected steps",
		},
		{
			name: "unknown outcome",
			yaml: `
name: n
description: d
module: "OpCapability Shader"
steps:
  - transformation: {kind: add_constant_scalar, fresh_id: 1, type_id: 2, words: [1], is_irrelevant: false}
    expect: {outcome: skipped}
assertions: [{type: valid}]
`,
			wantErr: `unknown outcome "skipped"`,
		},
		{
			name: "irrelevant without ids",
			yaml: `
name: n
description: d
module: "OpCapability Shader"
steps: [{transformation: {kind: add_constant_scalar, fresh_id: 1, type_id: 2, words: [1], is_irrelevant: false}}]
assertions: [{type: irrelevant}]
`,
			wantErr: "ids list is required for irrelevant",
		},
		{
			name: "final_module without module",
			yaml: `
name: n
description: d
module: "OpCapability Shader"
steps: [{transformation: {kind: add_constant_scalar, fresh_id: 1, type_id: 2, words: [1], is_irrelevant: false}}]
assertions: [{type: final_module}]
`,
			wantErr: "module is required for final_module",
		},
		{
			name: "unknown assertion type",
			yaml: `
name: n
description: d
module: "OpCapability Shader"
steps: [{transformation: {kind: add_constant_scalar, fresh_id: 1, type_id: 2, words: [1], is_irrelevant: false}}]
assertions: [{type: trace_contains}]
`,
			wantErr: `unknown assertion type "trace_contains"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
