package harness

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithGolden_AddConstantScalar(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/add_constant_scalar.yaml")
	require.NoError(t, err)

	// To regenerate:
	//   go test ./internal/harness -run TestRunWithGolden_AddConstantScalar -update
	require.NoError(t, RunWithGolden(t, scenario))
}

func TestAssertGolden_ReusesResult(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/add_constant_scalar.yaml")
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	AssertGolden(t, "add_constant_scalar", result)
}

func TestSnapshot(t *testing.T) {
	result, err := Run(mustParse(t, minimalScenario))
	require.NoError(t, err)

	snap := string(Snapshot(result))
	assert.True(t, strings.HasPrefix(snap, "; SPIR-V\n; Version: 1.3\n"), snap)
	assert.Contains(t, snap, "; Bound: 6\n")
	assert.Contains(t, snap, "          %5 = OpConstant %1 3\n")
}

func TestSnapshot_NoModule(t *testing.T) {
	assert.Nil(t, Snapshot(NewResult()))
}
