package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/spvfuzz/internal/config"
	"github.com/roach88/spvfuzz/internal/ir"
	"github.com/roach88/spvfuzz/internal/validate"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Env       string
	Validator string
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Module    string                     `json:"module"`
	TargetEnv string                     `json:"target_env"`
	Validator string                     `json:"validator"`
	Valid     bool                       `json:"valid"`
	Errors    []validate.ValidationError `json:"errors,omitempty"`
	// Message is the external validator's output when it rejects the module.
	Message string `json:"message,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <module>",
		Short: "Validate a module for a target environment",
		Long: `Validate a SPIR-V binary or assembly file.

The structural validator reports every rule violation with its code. The
external validator runs spirv-val with the configured options.

Exit codes:
  0 - Module is valid
  1 - Module is invalid
  2 - Command error (unreadable module, unknown validator, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Env, "env", "", "target environment (e.g. spv1.3, vulkan1.1)")
	cmd.Flags().StringVar(&opts.Validator, "validator", "", "structural or external")

	return cmd
}

func runValidate(opts *ValidateOptions, modulePath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	if cmd.Flags().Changed("env") {
		env, err := ir.ParseTargetEnv(opts.Env)
		if err != nil {
			return outputLoadError(formatter, &LoadError{Code: ErrCodeFlag, Message: "--env", Err: err})
		}
		cfg.TargetEnv = env
	}
	if cmd.Flags().Changed("validator") {
		cfg.ValidatorKind = opts.Validator
	}
	if cfg.ValidatorKind == config.ValidatorNone {
		cfg.ValidatorKind = config.ValidatorStructural
	}

	m, err := loadModule(modulePath, cfg.TargetEnv)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	formatter.VerboseLog("Validating %s for %s with the %s validator", modulePath, cfg.TargetEnv, cfg.ValidatorKind)

	result := ValidationResult{
		Module:    modulePath,
		TargetEnv: cfg.TargetEnv.String(),
		Validator: cfg.ValidatorKind,
	}
	if cfg.ValidatorKind == config.ValidatorStructural || cfg.ValidatorKind == "" {
		result.Validator = config.ValidatorStructural
		result.Errors = validate.Check(m, cfg.TargetEnv)
		result.Valid = len(result.Errors) == 0
	} else {
		v, err := cfg.NewValidator()
		if err != nil {
			return outputLoadError(formatter, &LoadError{Code: ErrCodeConfig, Message: "building validator", Err: err})
		}
		verr := v.Validate(m, cfg.TargetEnv)
		var extErr *validate.ExternalError
		switch {
		case verr == nil:
			result.Valid = true
		case errors.As(verr, &extErr):
			result.Message = verr.Error()
		default:
			return fail(formatter, ErrCodeGeneric, "validator failed to run", verr)
		}
	}

	if formatter.IsJSON() {
		if result.Valid {
			return formatter.Success(result)
		}
		if err := formatter.Failure(ErrCodeInvalidModule, "module is invalid", result); err != nil {
			return err
		}
		return NewExitError(ExitFailure, "module is invalid")
	}

	w := formatter.Writer
	if result.Valid {
		fmt.Fprintf(w, "✓ %s is valid for %s\n", modulePath, result.TargetEnv)
		return nil
	}
	fmt.Fprintf(w, "✗ %s is invalid for %s\n\n", modulePath, result.TargetEnv)
	for _, e := range result.Errors {
		fmt.Fprintf(w, "  %s\n", e.Error())
	}
	if result.Message != "" {
		fmt.Fprintf(w, "  %s\n", result.Message)
	}
	return NewExitError(ExitFailure, "module is invalid")
}
