package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/spvfuzz/internal/validate"
)

func TestValidateValidModule(t *testing.T) {
	shader := writeShader(t, t.TempDir())

	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	stdout, err := execute(t, cmd, shader)
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ "+shader+" is valid for spv1.3")
}

func TestValidateInvalidModule(t *testing.T) {
	bad := writeFile(t, t.TempDir(), "bad.spvasm", "OpCapability Shader\n%1 = OpTypeVoid\n")

	t.Run("text", func(t *testing.T) {
		cmd := NewValidateCommand(&RootOptions{Format: "text"})
		stdout, err := execute(t, cmd, bad)
		require.Error(t, err)
		assert.Equal(t, ExitFailure, GetExitCode(err))
		assert.Contains(t, stdout, "✗ "+bad+" is invalid")
		assert.Contains(t, stdout, "["+validate.CodeMemoryModel+"]")
	})

	t.Run("json", func(t *testing.T) {
		cmd := NewValidateCommand(&RootOptions{Format: "json"})
		stdout, err := execute(t, cmd, bad)
		require.Error(t, err)

		var result ValidationResult
		resp := decodeResponse(t, stdout, &result)
		assert.Equal(t, "error", resp.Status)
		require.NotNil(t, resp.Error)
		assert.Equal(t, ErrCodeInvalidModule, resp.Error.Code)
		assert.False(t, result.Valid)
		assert.Equal(t, "structural", result.Validator)
		require.NotEmpty(t, result.Errors)
		assert.Equal(t, validate.CodeMemoryModel, result.Errors[0].Code)
	})
}

func TestValidateTargetEnv(t *testing.T) {
	// Only 32-bit types and logical addressing, so Vulkan accepts it too.
	shader := writeShader(t, t.TempDir())

	cmd := NewValidateCommand(&RootOptions{Format: "json"})
	stdout, err := execute(t, cmd, shader, "--env", "vulkan1.0")
	require.NoError(t, err)

	var result ValidationResult
	decodeResponse(t, stdout, &result)
	assert.True(t, result.Valid)
	assert.Equal(t, "vulkan1.0", result.TargetEnv)
}

func TestValidateErrors(t *testing.T) {
	shader := writeShader(t, t.TempDir())

	tests := []struct {
		name string
		args []string
		code string
	}{
		{"missing module", []string{filepath.Join(t.TempDir(), "none.spv")}, ErrCodeNotFound},
		{"syntax error", []string{writeFile(t, t.TempDir(), "x.spvasm", "%1 = OpNoSuchThing\n")}, ErrCodeModule},
		{"bad env", []string{shader, "--env", "dx12"}, ErrCodeFlag},
		{"unknown validator", []string{shader, "--validator", "bogus"}, ErrCodeConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewValidateCommand(&RootOptions{Format: "json"})
			stdout, err := execute(t, cmd, tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))

			resp := decodeResponse(t, stdout, nil)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}
