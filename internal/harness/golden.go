package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/spvfuzz/internal/asm"
)

// Snapshot renders the transformed module for golden comparison: the
// header comment block followed by the aligned disassembly.
func Snapshot(result *Result) []byte {
	if result.Module == nil {
		return nil
	}
	return []byte(asm.DisassembleWith(result.Module, asm.Options{Indent: true}))
}

// RunWithGolden executes a scenario and compares the transformed module
// against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the module doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}

	AssertGolden(t, scenario.Name, result)
	return nil
}

// AssertGolden compares the given result's module against a golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, Snapshot(result))
}
