package validate

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/roach88/spvfuzz/internal/ir"
)

// DefaultValidatorBinary is looked up on PATH by LookupExternal.
const DefaultValidatorBinary = "spirv-val"

// External validates by encoding the module to a temporary file and running
// spirv-val on it.
type External struct {
	// Path is the spirv-val executable.
	Path string
	// Options are translated to command line switches.
	Options Options
	// Timeout bounds one invocation. Zero means no limit.
	Timeout time.Duration
}

// LookupExternal finds spirv-val on PATH.
func LookupExternal(opts Options) (*External, error) {
	path, err := exec.LookPath(DefaultValidatorBinary)
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", DefaultValidatorBinary, err)
	}
	return &External{Path: path, Options: opts}, nil
}

// ExternalError carries the diagnostics of a failed spirv-val run.
type ExternalError struct {
	ExitCode int
	Output   string
}

func (e *ExternalError) Error() string {
	return fmt.Sprintf("spirv-val exited with %d: %s", e.ExitCode, strings.TrimSpace(e.Output))
}

// Validate implements Validator.
func (v *External) Validate(m *ir.Module, env ir.TargetEnv) error {
	dir, err := os.MkdirTemp("", "spvfuzz-val-")
	if err != nil {
		return fmt.Errorf("external validate: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "module.spv")
	if err := os.WriteFile(path, ir.Encode(m), 0o600); err != nil {
		return fmt.Errorf("external validate: %w", err)
	}

	ctx := context.Background()
	if v.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.Timeout)
		defer cancel()
	}

	args := append([]string{"--target-env", env.String()}, v.Options.Flags()...)
	args = append(args, path)

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, v.Path, args...)
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return &ExternalError{ExitCode: exitErr.ExitCode(), Output: out.String()}
		}
		return fmt.Errorf("external validate: run %s: %w", v.Path, err)
	}
	return nil
}
