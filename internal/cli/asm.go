package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/spvfuzz/internal/asm"
	"github.com/roach88/spvfuzz/internal/ir"
)

// AsmOptions holds flags for the as and dis commands.
type AsmOptions struct {
	*RootOptions
	Output   string
	Env      string
	NoHeader bool
	NoIndent bool
}

// AssembleResult describes a module written by as.
type AssembleResult struct {
	Input        string `json:"input"`
	Output       string `json:"output"`
	TargetEnv    string `json:"target_env"`
	Bound        uint32 `json:"bound"`
	Instructions int    `json:"instructions"`
	Bytes        int    `json:"bytes"`
}

// DisassembleResult carries the text produced by dis.
type DisassembleResult struct {
	Input  string `json:"input"`
	Output string `json:"output,omitempty"`
	Text   string `json:"text,omitempty"`
}

// NewAsCommand creates the as command.
func NewAsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AsmOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "as <module.spvasm>",
		Short: "Assemble text into a SPIR-V binary",
		Long: `Assemble a module from its text form into a SPIR-V binary.

The header version follows the target environment. Named ids (%main) are
numbered after the largest numeric id in the file.

Example:
  spvfuzz as shader.spvasm -o shader.spv --env vulkan1.1`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAs(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output binary path (required)")
	_ = cmd.MarkFlagRequired("output")
	cmd.Flags().StringVar(&opts.Env, "env", "", "target environment (e.g. spv1.3, vulkan1.1)")

	return cmd
}

// NewDisCommand creates the dis command.
func NewDisCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AsmOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "dis <module>",
		Short: "Disassemble a SPIR-V binary to text",
		Long: `Disassemble a SPIR-V binary (or re-format an assembly file).

Example:
  spvfuzz dis shader.spv
  spvfuzz dis shader.spv --no-header -o shader.spvasm`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDis(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write text to this file instead of stdout")
	cmd.Flags().StringVar(&opts.Env, "env", "", "target environment for assembly input")
	cmd.Flags().BoolVar(&opts.NoHeader, "no-header", false, "omit the header comment block")
	cmd.Flags().BoolVar(&opts.NoIndent, "no-indent", false, "do not align result ids")

	return cmd
}

// moduleEnv resolves the target environment from --env or the config.
func moduleEnv(opts *AsmOptions, cmd *cobra.Command) (ir.TargetEnv, error) {
	if cmd.Flags().Changed("env") {
		env, err := ir.ParseTargetEnv(opts.Env)
		if err != nil {
			return 0, &LoadError{Code: ErrCodeFlag, Message: "--env", Err: err}
		}
		return env, nil
	}
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return 0, err
	}
	return cfg.TargetEnv, nil
}

func runAs(opts *AsmOptions, input string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	env, err := moduleEnv(opts, cmd)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	m, err := loadModule(input, env)
	if err != nil {
		return outputLoadError(formatter, err)
	}

	data := ir.Encode(m)
	if err := writeBinary(opts.Output, data); err != nil {
		return outputLoadError(formatter, err)
	}

	result := AssembleResult{
		Input:        input,
		Output:       opts.Output,
		TargetEnv:    env.String(),
		Bound:        m.Bound(),
		Instructions: m.InstructionCount(),
		Bytes:        len(data),
	}
	if formatter.IsJSON() {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ Assembled %d instruction(s), bound %d\n", result.Instructions, result.Bound)
	fmt.Fprintf(formatter.Writer, "Wrote %d bytes to %s\n", result.Bytes, result.Output)
	return nil
}

func runDis(opts *AsmOptions, input string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	env, err := moduleEnv(opts, cmd)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	m, err := loadModule(input, env)
	if err != nil {
		return outputLoadError(formatter, err)
	}

	text := asm.DisassembleWith(m, asm.Options{NoHeader: opts.NoHeader, Indent: !opts.NoIndent})
	result := DisassembleResult{Input: input}
	if opts.Output != "" {
		if err := writeText(opts.Output, text); err != nil {
			return outputLoadError(formatter, err)
		}
		result.Output = opts.Output
	} else {
		result.Text = text
	}

	if formatter.IsJSON() {
		return formatter.Success(result)
	}
	if result.Output != "" {
		fmt.Fprintf(formatter.Writer, "Wrote disassembly to %s\n", result.Output)
		return nil
	}
	fmt.Fprint(formatter.Writer, text)
	return nil
}
