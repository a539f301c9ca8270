package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/spvfuzz/internal/config"
	"github.com/roach88/spvfuzz/internal/engine"
	"github.com/roach88/spvfuzz/internal/fact"
	"github.com/roach88/spvfuzz/internal/ir"
	"github.com/roach88/spvfuzz/internal/store"
	"github.com/roach88/spvfuzz/internal/transform"
)

// ApplyOptions holds flags for the apply command.
type ApplyOptions struct {
	*RootOptions
	Output    string
	Database  string
	Env       string
	Mode      string
	MaxSteps  int
	Validator string
	Workers   int

	// IDGenerator overrides the sequence id generator (for testing).
	// If nil, the engine default (UUIDv7) is used.
	IDGenerator engine.SequenceIDGenerator
}

// StepSummary is one attempted step in the apply output.
type StepSummary struct {
	Index          int    `json:"index"`
	Seq            int64  `json:"seq"`
	Kind           string `json:"kind"`
	Transformation string `json:"transformation"`
	Hash           string `json:"hash"`
	Outcome        string `json:"outcome"`
	Code           string `json:"code,omitempty"`
	Digest         string `json:"digest"`
}

// SequenceSummary is the outcome of one sequence.
type SequenceSummary struct {
	SequenceID string        `json:"sequence_id,omitempty"`
	Steps      []StepSummary `json:"steps"`
	Applied    int           `json:"applied"`
	Rejected   int           `json:"rejected"`
	Digest     string        `json:"digest"`
	Bound      uint32        `json:"bound"`
	Irrelevant []ir.ID       `json:"irrelevant"`
}

// ApplyResult is the output of the apply command.
type ApplyResult struct {
	TargetEnv string            `json:"target_env"`
	Mode      string            `json:"mode"`
	Sequences []SequenceSummary `json:"sequences"`
	Output    string            `json:"output,omitempty"`
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	return newApplyCommand(&ApplyOptions{RootOptions: rootOpts})
}

func newApplyCommand(opts *ApplyOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply <module> <sequence>...",
		Short: "Apply transformation sequences to a module",
		Long: `Apply one or more transformation sequences to a SPIR-V module.

The module may be a binary or assembly file. Each sequence is a YAML or JSON
file listing transformations. Steps whose preconditions fail are rejected;
in strict mode the first rejection stops the run. With several sequences,
each one runs against its own copy of the module.

Flags override the configuration file.

Exit codes:
  0 - Every sequence ran to completion
  1 - A run stopped (rejected step in strict mode, invalid module, quota)
  2 - Command error (unreadable input, database error, etc.)

Examples:
  spvfuzz apply shader.spv seq.yaml -o out.spv
  spvfuzz apply shader.spvasm seq.yaml --mode lenient --db ./runs.db
  spvfuzz apply shader.spv a.yaml b.yaml c.yaml --workers 2 --format json`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(opts, args[0], args[1:], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the transformed module (.spvasm for assembly)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run in this SQLite database")
	cmd.Flags().StringVar(&opts.Env, "env", "", "target environment (e.g. spv1.3, vulkan1.1)")
	cmd.Flags().StringVar(&opts.Mode, "mode", "", "strict or lenient")
	cmd.Flags().IntVar(&opts.MaxSteps, "max-steps", 0, "maximum steps per sequence")
	cmd.Flags().StringVar(&opts.Validator, "validator", "", "structural, external or none")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "sequences run at once (0 = all)")

	return cmd
}

// applyFlags overrides cfg with the flags the user set.
func applyFlags(cmd *cobra.Command, opts *ApplyOptions, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("env") {
		env, err := ir.ParseTargetEnv(opts.Env)
		if err != nil {
			return &LoadError{Code: ErrCodeFlag, Message: "--env", Err: err}
		}
		cfg.TargetEnv = env
	}
	if flags.Changed("mode") {
		switch opts.Mode {
		case "strict":
			cfg.Lenient = false
		case "lenient":
			cfg.Lenient = true
		default:
			return &LoadError{Code: ErrCodeFlag, Message: fmt.Sprintf("--mode must be strict or lenient, got %q", opts.Mode)}
		}
	}
	if flags.Changed("max-steps") {
		if opts.MaxSteps <= 0 {
			return &LoadError{Code: ErrCodeFlag, Message: "--max-steps must be positive"}
		}
		cfg.MaxSteps = opts.MaxSteps
	}
	if flags.Changed("validator") {
		cfg.ValidatorKind = opts.Validator
	}
	if flags.Changed("workers") {
		if opts.Workers < 0 {
			return &LoadError{Code: ErrCodeFlag, Message: "--workers must not be negative"}
		}
		cfg.Workers = opts.Workers
	}
	if flags.Changed("db") {
		cfg.Database = opts.Database
	}
	return nil
}

// newLogger logs engine events to stderr: debug and up when verbose,
// warnings and errors otherwise.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// signalContext cancels the returned context on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command, logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(commandContext(cmd))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, stopping", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}

func runApply(opts *ApplyOptions, modulePath string, seqPaths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	if err := applyFlags(cmd, opts, &cfg); err != nil {
		return outputLoadError(formatter, err)
	}
	if opts.Output != "" && len(seqPaths) > 1 {
		return outputLoadError(formatter, &LoadError{Code: ErrCodeFlag, Message: "--output needs exactly one sequence"})
	}

	m, err := loadModule(modulePath, cfg.TargetEnv)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	seqs, err := loadSequences(seqPaths)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	validator, err := cfg.NewValidator()
	if err != nil {
		return outputLoadError(formatter, &LoadError{Code: ErrCodeConfig, Message: "building validator", Err: err})
	}
	formatter.VerboseLog("Loaded %s (bound %d) and %d sequence(s)", modulePath, m.Bound(), len(seqs))

	logger := newLogger(formatter.GetErrWriter(), opts.Verbose)
	mode := engine.ModeStrict
	if cfg.Lenient {
		mode = engine.ModeLenient
	}
	engOpts := []engine.EngineOption{
		engine.WithLogger(logger),
		engine.WithMode(mode),
		engine.WithMaxSteps(cfg.MaxSteps),
		engine.WithValidator(validator),
	}
	if opts.IDGenerator != nil {
		engOpts = append(engOpts, engine.WithIDGenerator(opts.IDGenerator))
	}
	if cfg.Database != "" {
		st, err := store.Open(cfg.Database)
		if err != nil {
			return fail(formatter, ErrCodeDatabase, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
		engOpts = append(engOpts, engine.WithStore(st))
	}
	eng := engine.New(engOpts...)

	ctx, stop := signalContext(cmd, logger)
	defer stop()

	tc := transform.NewContext(fact.NewManager(), cfg.TargetEnv, cfg.Validator)
	var results []*engine.Result
	var runErr error
	if len(seqs) == 1 {
		var res *engine.Result
		res, runErr = eng.Run(ctx, m, tc, seqs[0])
		results = []*engine.Result{res}
	} else {
		results, runErr = eng.RunParallel(ctx, m, tc, seqs, cfg.Workers)
	}

	out := ApplyResult{
		TargetEnv: cfg.TargetEnv.String(),
		Mode:      mode.String(),
		Sequences: make([]SequenceSummary, 0, len(results)),
	}
	for _, res := range results {
		if res != nil {
			out.Sequences = append(out.Sequences, summarize(res))
		}
	}

	if runErr != nil {
		return outputApplyFailure(formatter, out, runErr)
	}

	if opts.Output != "" {
		if err := writeModule(opts.Output, results[0].Module); err != nil {
			return outputLoadError(formatter, err)
		}
		out.Output = opts.Output
	}
	return outputApplySuccess(formatter, out)
}

// summarize converts an engine result for output.
func summarize(res *engine.Result) SequenceSummary {
	s := SequenceSummary{
		SequenceID: res.SequenceID,
		Steps:      make([]StepSummary, 0, len(res.Steps)),
		Applied:    res.Applied,
		Rejected:   res.Rejected,
		Digest:     res.Digest,
		Irrelevant: []ir.ID{},
	}
	if res.Module != nil {
		s.Bound = res.Module.Bound()
	}
	if res.Context != nil {
		s.Irrelevant = res.Context.Facts().IrrelevantIDs()
	}
	for _, sr := range res.Steps {
		step := StepSummary{
			Index:          sr.Index,
			Seq:            sr.Seq,
			Kind:           string(sr.Transformation.Kind()),
			Transformation: fmt.Sprint(sr.Transformation),
			Hash:           sr.Hash,
			Outcome:        string(store.OutcomeApplied),
			Digest:         sr.Digest,
		}
		if !sr.Applied {
			step.Outcome = string(store.OutcomeRejected)
			step.Code = string(sr.Rejection)
		}
		s.Steps = append(s.Steps, step)
	}
	return s
}

// runErrorCode maps an engine error to a CLI code and exit code.
func runErrorCode(err error) (string, int) {
	switch engine.CodeOf(err) {
	case engine.ErrCodeNotApplicable:
		return ErrCodeNotApplicable, ExitFailure
	case engine.ErrCodeInvalidBefore:
		return ErrCodeInvalidBefore, ExitFailure
	case engine.ErrCodeInvalidAfter:
		return ErrCodeInvalidAfter, ExitFailure
	case engine.ErrCodeQuotaExceeded:
		return ErrCodeQuota, ExitFailure
	}
	if errors.Is(err, context.Canceled) {
		return ErrCodeGeneric, ExitFailure
	}
	return ErrCodeGeneric, ExitCommandError
}

func outputApplyFailure(formatter *OutputFormatter, out ApplyResult, runErr error) error {
	code, exit := runErrorCode(runErr)
	if formatter.IsJSON() {
		if err := formatter.Failure(code, runErr.Error(), out); err != nil {
			return err
		}
		return WrapExitError(exit, code, runErr)
	}

	writeApplyText(formatter, out)
	fmt.Fprintf(formatter.Writer, "✗ Run stopped [%s]: %v\n", code, runErr)
	return WrapExitError(exit, code, runErr)
}

func outputApplySuccess(formatter *OutputFormatter, out ApplyResult) error {
	if formatter.IsJSON() {
		return formatter.Success(out)
	}

	writeApplyText(formatter, out)
	if out.Output != "" {
		fmt.Fprintf(formatter.Writer, "Wrote module to %s\n", out.Output)
	}
	return nil
}

func writeApplyText(formatter *OutputFormatter, out ApplyResult) {
	w := formatter.Writer
	for _, s := range out.Sequences {
		status := "✓"
		if len(s.Steps) > 0 && s.Applied == 0 {
			status = "✗"
		}
		fmt.Fprintf(w, "%s Applied %d of %d transformation(s)", status, s.Applied, len(s.Steps))
		if s.SequenceID != "" {
			fmt.Fprintf(w, " [sequence %s]", s.SequenceID)
		}
		fmt.Fprintln(w)

		for _, step := range s.Steps {
			if step.Code != "" {
				fmt.Fprintf(w, "  [%d] %-8s %s (%s)\n", step.Index, step.Outcome, step.Transformation, step.Code)
				continue
			}
			fmt.Fprintf(w, "  [%d] %-8s %s\n", step.Index, step.Outcome, step.Transformation)
		}
		if formatter.Verbose {
			fmt.Fprintf(w, "  Digest: %s\n", s.Digest)
		}
		fmt.Fprintf(w, "  Bound: %d\n", s.Bound)
		if len(s.Irrelevant) > 0 {
			fmt.Fprintf(w, "  Irrelevant: %v\n", s.Irrelevant)
		}
		fmt.Fprintln(w)
	}
}
