package cli

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/spvfuzz/internal/asm"
	"github.com/roach88/spvfuzz/internal/config"
	"github.com/roach88/spvfuzz/internal/ir"
	"github.com/roach88/spvfuzz/internal/transform"
)

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeNotFound    = "E002" // Path not found
	ErrCodeConfig      = "E003" // Configuration did not load or resolve
	ErrCodeModule      = "E004" // Module did not assemble or decode
	ErrCodeSequence    = "E005" // Sequence file did not parse
	ErrCodeWriteFailed = "E006" // File write error
	ErrCodeDatabase    = "E007" // Run log could not be opened or read
	ErrCodeFlag        = "E008" // Flag value out of range

	// Verdicts
	ErrCodeNotApplicable = "E101" // strict run hit a rejected step
	ErrCodeInvalidBefore = "E102" // input module failed validation
	ErrCodeInvalidAfter  = "E103" // a step produced an invalid module
	ErrCodeQuota         = "E104" // max steps exceeded
	ErrCodeInvalidModule = "E110" // validate found rule violations
	ErrCodeReplay        = "E111" // replay diverged from the run log
	ErrCodeTestFailed    = "E112" // scenario suite had failures
)

// LoadError is a failure to read one of the command inputs.
type LoadError struct {
	Code    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// outputLoadError reports err and returns an ExitCommandError.
func outputLoadError(f *OutputFormatter, err error) error {
	var le *LoadError
	if errors.As(err, &le) {
		msg := le.Message
		if le.Err != nil {
			msg = fmt.Sprintf("%s: %v", le.Message, le.Err)
		}
		_ = f.Error(le.Code, msg, nil)
		return WrapExitError(ExitCommandError, le.Message, le.Err)
	}
	return fail(f, ErrCodeGeneric, "command failed", err)
}

// loadConfig resolves the configuration for a command. An explicit --config
// must load; without it ./spvfuzz.cue is used when present.
func loadConfig(opts *RootOptions) (config.Config, error) {
	path := opts.ConfigPath
	if path == "" {
		if _, err := os.Stat(config.DefaultFile); err != nil {
			return config.Default(), nil
		}
		path = config.DefaultFile
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, &LoadError{Code: ErrCodeConfig, Message: fmt.Sprintf("loading config %s", path), Err: err}
	}
	return cfg, nil
}

// isBinary reports whether data starts with the SPIR-V magic number in
// either byte order.
func isBinary(data []byte) bool {
	if len(data) < 4 {
		return false
	}
	return binary.LittleEndian.Uint32(data) == ir.MagicNumber ||
		binary.BigEndian.Uint32(data) == ir.MagicNumber
}

// loadModule reads a module from a binary or assembly file. Assembly gets
// the header of env.
func loadModule(path string, env ir.TargetEnv) (*ir.Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("module not found: %s", path)}
		}
		return nil, &LoadError{Code: ErrCodeModule, Message: fmt.Sprintf("reading module %s", path), Err: err}
	}

	var m *ir.Module
	if isBinary(data) {
		m, err = ir.Decode(data)
	} else {
		m, err = asm.Assemble(env, string(data))
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeModule, Message: fmt.Sprintf("loading module %s", path), Err: err}
	}
	return m, nil
}

// loadSequences parses each sequence file in order.
func loadSequences(paths []string) ([]transform.Sequence, error) {
	seqs := make([]transform.Sequence, 0, len(paths))
	for _, p := range paths {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("sequence not found: %s", p)}
		}
		seq, err := transform.LoadSequence(p)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeSequence, Message: fmt.Sprintf("loading sequence %s", p), Err: err}
		}
		seqs = append(seqs, seq)
	}
	return seqs, nil
}

// isAssemblyPath reports whether a module written to path should be text.
func isAssemblyPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".spvasm", ".txt", ".s":
		return true
	}
	return false
}

// writeModule writes m to path as assembly or binary depending on the
// extension.
func writeModule(path string, m *ir.Module) error {
	if isAssemblyPath(path) {
		return writeText(path, asm.Disassemble(m))
	}
	return writeBinary(path, ir.Encode(m))
}

func writeBinary(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &LoadError{Code: ErrCodeWriteFailed, Message: fmt.Sprintf("writing %s", path), Err: err}
	}
	return nil
}

func writeText(path, text string) error {
	return writeBinary(path, []byte(text))
}

// requireFile returns an error unless path names an existing file.
func requireFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}

// commandContext returns the command's context, or Background when the
// command runs without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
