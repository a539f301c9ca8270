package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/spvfuzz/internal/asm"
	"github.com/roach88/spvfuzz/internal/ir"
	"github.com/roach88/spvfuzz/internal/testutil"
)

func TestAsRequiresOutput(t *testing.T) {
	cmd := NewAsCommand(&RootOptions{Format: "text"})
	_, err := execute(t, cmd, "shader.spvasm")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestAsThenDis(t *testing.T) {
	dir := t.TempDir()
	shader := writeShader(t, dir)
	bin := filepath.Join(dir, "shader.spv")

	cmd := NewAsCommand(&RootOptions{Format: "text"})
	stdout, err := execute(t, cmd, shader, "-o", bin)
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ Assembled")
	assert.Contains(t, stdout, "bound 18")

	data, err := os.ReadFile(bin)
	require.NoError(t, err)
	assert.True(t, isBinary(data))

	dis := NewDisCommand(&RootOptions{Format: "text"})
	stdout, err = execute(t, dis, bin)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "; SPIR-V\n; Version: 1.3\n"))
	assert.True(t, asm.IsEqual(ir.DefaultTargetEnv, stdout, testutil.MustModule(t, ir.DefaultTargetEnv, testutil.Shader)))
}

func TestAsJSON(t *testing.T) {
	dir := t.TempDir()
	shader := writeShader(t, dir)
	bin := filepath.Join(dir, "shader.spv")

	cmd := NewAsCommand(&RootOptions{Format: "json"})
	stdout, err := execute(t, cmd, shader, "-o", bin, "--env", "spv1.5")
	require.NoError(t, err)

	var result AssembleResult
	decodeResponse(t, stdout, &result)
	assert.Equal(t, "spv1.5", result.TargetEnv)
	assert.Equal(t, uint32(18), result.Bound)
	assert.Equal(t, bin, result.Output)

	data, err := os.ReadFile(bin)
	require.NoError(t, err)
	assert.Equal(t, len(data), result.Bytes)
	m, err := ir.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, ir.EnvUniversal1_5.SPIRVVersion(), m.Header.Version)
}

func TestDisOptions(t *testing.T) {
	dir := t.TempDir()
	shader := writeShader(t, dir)

	t.Run("no header", func(t *testing.T) {
		cmd := NewDisCommand(&RootOptions{Format: "text"})
		stdout, err := execute(t, cmd, shader, "--no-header")
		require.NoError(t, err)
		assert.NotContains(t, stdout, "; SPIR-V")
		assert.Contains(t, stdout, "         %17 = OpConstant %14 3\n")
	})

	t.Run("no indent", func(t *testing.T) {
		cmd := NewDisCommand(&RootOptions{Format: "text"})
		stdout, err := execute(t, cmd, shader, "--no-header", "--no-indent")
		require.NoError(t, err)
		assert.Contains(t, stdout, "\n%17 = OpConstant %14 3\n")
	})

	t.Run("to file", func(t *testing.T) {
		out := filepath.Join(dir, "out.spvasm")
		cmd := NewDisCommand(&RootOptions{Format: "json"})
		stdout, err := execute(t, cmd, shader, "-o", out)
		require.NoError(t, err)

		var result DisassembleResult
		decodeResponse(t, stdout, &result)
		assert.Equal(t, out, result.Output)
		assert.Empty(t, result.Text)

		text, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Contains(t, string(text), "; Bound: 18")
	})
}

func TestAsSyntaxError(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.spvasm", "%1 = OpTypeInt 32\n")

	cmd := NewAsCommand(&RootOptions{Format: "json"})
	stdout, err := execute(t, cmd, bad, "-o", filepath.Join(dir, "bad.spv"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	resp := decodeResponse(t, stdout, nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeModule, resp.Error.Code)
}
