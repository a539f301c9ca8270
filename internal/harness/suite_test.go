package harness

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindScenarios(t *testing.T) {
	files, err := FindScenarios("testdata/scenarios", "")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join("testdata", "scenarios", "add_constant_scalar.yaml"),
		filepath.Join("testdata", "scenarios", "strict_stops_on_rejection.yaml"),
		filepath.Join("testdata", "scenarios", "wide_scalars.yaml"),
	}, files)
}

func TestFindScenarios_Filter(t *testing.T) {
	files, err := FindScenarios("testdata/scenarios", "wide_*")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join("testdata", "scenarios", "wide_scalars.yaml")}, files)

	_, err = FindScenarios("testdata/scenarios", "[")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid filter pattern")
}

func TestFindScenarios_SingleFile(t *testing.T) {
	path := filepath.Join("testdata", "scenarios", "wide_scalars.yaml")
	files, err := FindScenarios(path, "")
	require.NoError(t, err)
	assert.Equal(t, []string{path}, files)
}

func TestFindScenarios_SkipsOtherFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yml"), []byte(minimalScenario), 0644))

	files, err := FindScenarios(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.yml")}, files)
}

func TestFindScenarios_NotFound(t *testing.T) {
	_, err := FindScenarios(filepath.Join(t.TempDir(), "missing"), "")

	var nf *ScenarioNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Contains(t, nf.Error(), "does not exist")
}

func TestRunSuite(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	broken := filepath.Join(dir, "broken.yaml")
	failing := filepath.Join(dir, "failing.yaml")
	require.NoError(t, os.WriteFile(good, []byte(minimalScenario), 0644))
	require.NoError(t, os.WriteFile(broken, []byte("name: [unclosed"), 0644))
	require.NoError(t, os.WriteFile(failing, []byte(minimalScenario+"  - type: applied_count\n    count: 9\n"), 0644))

	result := RunSuite(context.Background(), []string{good, broken, failing})

	assert.Equal(t, 3, result.TotalScenarios)
	assert.Equal(t, 1, result.Passed)
	assert.Equal(t, 2, result.Failed)
	require.Len(t, result.Failures, 2)
	assert.Equal(t, broken, result.Failures[0].ScenarioPath)
	assert.Contains(t, result.Failures[0].Error, "failed to load scenario")
	assert.Equal(t, failing, result.Failures[1].ScenarioPath)
	assert.Contains(t, result.Failures[1].Error, "scenario assertions failed")
}

func TestRunSuite_Testdata(t *testing.T) {
	files, err := FindScenarios("testdata/scenarios", "")
	require.NoError(t, err)

	result := RunSuite(context.Background(), files)
	assert.Equal(t, len(files), result.Passed, "failures: %v", result.Failures)
	assert.Empty(t, result.Failures)
}
