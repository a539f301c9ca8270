package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/spvfuzz/internal/ir"
	"github.com/roach88/spvfuzz/internal/validate"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ir.EnvUniversal1_3, cfg.TargetEnv)
	assert.Equal(t, ValidatorStructural, cfg.ValidatorKind)
	assert.Equal(t, validate.Options{}, cfg.Validator)
	assert.False(t, cfg.Lenient)
	assert.Equal(t, 1000, cfg.MaxSteps)
	assert.Equal(t, 1, cfg.Workers)
	assert.Empty(t, cfg.Database)
	assert.Zero(t, cfg.ValidatorTimeout)
}

func TestLoad_File(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "spvfuzz.cue"))
	require.NoError(t, err)

	assert.Equal(t, ir.EnvVulkan1_1, cfg.TargetEnv)
	assert.Equal(t, ValidatorExternal, cfg.ValidatorKind)
	assert.Equal(t, "/opt/spirv/bin/spirv-val", cfg.ValidatorPath)
	assert.Equal(t, 30*time.Second, cfg.ValidatorTimeout)
	assert.Equal(t, validate.Options{RelaxLogicalPointer: true}, cfg.Validator)
	assert.True(t, cfg.Lenient)
	assert.Equal(t, 250, cfg.MaxSteps)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "runs.db", cfg.Database)
}

func TestLoad_Directory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.cue"), []byte(`spvfuzz: max_steps: 7`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.cue"), []byte(`spvfuzz: mode: "lenient"`), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.MaxSteps)
	assert.True(t, cfg.Lenient)
}

func TestLoad_TestdataDirectory(t *testing.T) {
	fromDir, err := Load("testdata")
	require.NoError(t, err)

	fromFile, err := Load(filepath.Join("testdata", "spvfuzz.cue"))
	require.NoError(t, err)
	assert.Equal(t, fromFile, fromDir)
}

func TestLoad_EmptyDirectory(t *testing.T) {
	_, err := Load(t.TempDir())

	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "path", ce.Field)
	assert.Contains(t, ce.Message, "no .cue files")
}

func TestLoad_MissingPath(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.cue"))

	var ce *ConfigError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "path", ce.Field)
}

func TestLoadString_PartialOverrides(t *testing.T) {
	cfg, err := LoadString(`spvfuzz: validator: scalar_block_layout: true`, "partial.cue")
	require.NoError(t, err)

	assert.Equal(t, validate.Options{ScalarBlockLayout: true}, cfg.Validator)
	assert.Equal(t, ValidatorStructural, cfg.ValidatorKind)
	assert.Equal(t, 1000, cfg.MaxSteps)
}

func TestLoadString_NoBlockYieldsDefaults(t *testing.T) {
	cfg, err := LoadString(`other: 1`, "other.cue")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadString_Errors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		field string
	}{
		{"unknown env", `spvfuzz: target_env: "opencl2.2"`, "target_env"},
		{"zero steps", `spvfuzz: max_steps: 0`, "max_steps"},
		{"too many workers", `spvfuzz: workers: 1000`, "workers"},
		{"bad mode", `spvfuzz: mode: "chaotic"`, "mode"},
		{"bad validator", `spvfuzz: validator: kind: "magic"`, "validator.kind"},
		{"unknown field", `spvfuzz: seed: 42`, "seed"},
		{"wrong type", `spvfuzz: database: 3`, "database"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadString(tt.src, "bad.cue")
			require.Error(t, err)

			var ce *ConfigError
			require.True(t, errors.As(err, &ce), "got %T: %v", err, err)
			assert.Contains(t, ce.Error(), tt.field)
		})
	}
}

func TestLoadString_SyntaxError(t *testing.T) {
	_, err := LoadString(`spvfuzz: {`, "broken.cue")
	require.Error(t, err)

	var ce *ConfigError
	require.True(t, errors.As(err, &ce))
	assert.True(t, ce.Pos.IsValid())
	assert.Contains(t, ce.Error(), "broken.cue")
}

func TestConfigError_Error(t *testing.T) {
	err := &ConfigError{Field: "max_steps", Message: "must be positive"}
	assert.Equal(t, "max_steps: must be positive", err.Error())
}

func TestNewValidator(t *testing.T) {
	cfg := Default()
	v, err := cfg.NewValidator()
	require.NoError(t, err)
	assert.IsType(t, validate.Structural{}, v)

	cfg.ValidatorKind = ValidatorNone
	v, err = cfg.NewValidator()
	require.NoError(t, err)
	assert.Nil(t, v)

	cfg.ValidatorKind = ValidatorExternal
	cfg.ValidatorPath = "/usr/bin/spirv-val"
	cfg.ValidatorTimeout = time.Second
	cfg.Validator = validate.Options{SkipBlockLayout: true}
	v, err = cfg.NewValidator()
	require.NoError(t, err)
	ext, ok := v.(*validate.External)
	require.True(t, ok)
	assert.Equal(t, "/usr/bin/spirv-val", ext.Path)
	assert.Equal(t, time.Second, ext.Timeout)
	assert.True(t, ext.Options.SkipBlockLayout)

	cfg.ValidatorKind = "magic"
	_, err = cfg.NewValidator()
	assert.Error(t, err)
}
