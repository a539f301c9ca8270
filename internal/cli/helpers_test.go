package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/spvfuzz/internal/testutil"
)

// twoSteps adds %100 as an irrelevant int and then reuses %6, which is
// rejected with ID_COLLISION.
const twoSteps = `transformations:
  - kind: add_constant_scalar
    fresh_id: 100
    type_id: 6
    words: [1]
    is_irrelevant: true
  - kind: add_constant_scalar
    fresh_id: 6
    type_id: 10
    words: [2]
    is_irrelevant: false
`

const oneStep = `transformations:
  - kind: add_constant_scalar
    fresh_id: 101
    type_id: 14
    words: [1065353216]
    is_irrelevant: false
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// writeShader writes the reference shader as assembly.
func writeShader(t *testing.T, dir string) string {
	t.Helper()
	return writeFile(t, dir, "shader.spvasm", testutil.Shader)
}

// execute runs cmd with args and returns stdout.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(errBuf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// decodeResponse parses a JSON CLIResponse and decodes its data into out.
func decodeResponse(t *testing.T, raw string, out any) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))
	if out != nil && resp.Data != nil {
		data, err := json.Marshal(resp.Data)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(data, out))
	}
	return resp
}
