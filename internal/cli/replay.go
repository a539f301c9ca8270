package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/spvfuzz/internal/engine"
	"github.com/roach88/spvfuzz/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database   string
	SequenceID string // optional - specific sequence only
}

// ReplaySequenceResult holds the replay result for a single sequence.
type ReplaySequenceResult struct {
	SequenceID    string `json:"sequence_id"`
	Steps         int    `json:"steps"`
	Applied       int    `json:"applied"`
	Rejected      int    `json:"rejected"`
	Digest        string `json:"digest,omitempty"`
	Deterministic bool   `json:"deterministic"`
	Divergence    string `json:"divergence,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Sequences        []ReplaySequenceResult `json:"sequences"`
	TotalSequences   int                    `json:"total_sequences"`
	AllDeterministic bool                   `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay logged runs and verify determinism",
		Long: `Replay recorded sequences from the run log and verify they reproduce.

Each sequence is rebuilt from its stored initial module and every step is
re-applied. The replay must match the log step for step: outcome, rejection
code, module digest and recorded facts.

Exit codes:
  0 - All sequences are deterministic
  1 - A replay diverged from the log
  2 - Command error (database not found, unknown sequence, etc.)

Examples:
  spvfuzz replay --db ./runs.db
  spvfuzz replay --db ./runs.db --sequence 0190c1a2-...
  spvfuzz replay --db ./runs.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.SequenceID, "sequence", "", "replay specific sequence only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	st, err := openExistingStore(opts.Database)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	defer st.Close()

	ctx := commandContext(cmd)
	var ids []string
	if opts.SequenceID != "" {
		ids = []string{opts.SequenceID}
	} else {
		ids, err = st.ListSequences(ctx)
		if err != nil {
			return fail(formatter, ErrCodeDatabase, "failed to list sequences", err)
		}
	}

	result := ReplayResult{
		Sequences:        make([]ReplaySequenceResult, 0, len(ids)),
		TotalSequences:   len(ids),
		AllDeterministic: true,
	}
	if len(ids) == 0 {
		if formatter.IsJSON() {
			return formatter.Success(result)
		}
		fmt.Fprintln(formatter.Writer, "No sequences found in database.")
		return nil
	}

	eng := engine.New(
		engine.WithStore(st),
		engine.WithLogger(newLogger(formatter.GetErrWriter(), opts.Verbose)),
	)
	for _, id := range ids {
		formatter.VerboseLog("Replaying sequence %s", id)
		res, err := eng.Replay(ctx, id)
		switch {
		case err == nil:
			result.Sequences = append(result.Sequences, ReplaySequenceResult{
				SequenceID:    id,
				Steps:         len(res.Steps),
				Applied:       res.Applied,
				Rejected:      res.Rejected,
				Digest:        res.Digest,
				Deterministic: true,
			})
		case engine.IsReplayMismatch(err):
			r := ReplaySequenceResult{SequenceID: id, Divergence: err.Error()}
			if res != nil {
				r.Steps, r.Applied, r.Rejected = len(res.Steps), res.Applied, res.Rejected
			}
			result.Sequences = append(result.Sequences, r)
			result.AllDeterministic = false
		case errors.Is(err, store.ErrNotFound):
			return fail(formatter, ErrCodeNotFound, fmt.Sprintf("sequence %s not found", id), nil)
		default:
			return fail(formatter, ErrCodeDatabase, fmt.Sprintf("failed to replay sequence %s", id), err)
		}
	}

	if formatter.IsJSON() {
		return outputReplayJSON(formatter, result)
	}
	return outputReplayText(formatter, result)
}

// openExistingStore opens a run log that must already exist; store.Open
// would otherwise create an empty one.
func openExistingStore(path string) (*store.Store, error) {
	if err := requireFile(path); err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("database not found: %s", path)}
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeDatabase, Message: "failed to open database", Err: err}
	}
	return st, nil
}

func outputReplayJSON(formatter *OutputFormatter, result ReplayResult) error {
	if result.AllDeterministic {
		return formatter.Success(result)
	}
	if err := formatter.Failure(ErrCodeReplay, "determinism verification failed", result); err != nil {
		return err
	}
	return NewExitError(ExitFailure, "determinism verification failed")
}

func outputReplayText(formatter *OutputFormatter, result ReplayResult) error {
	w := formatter.Writer

	fmt.Fprintf(w, "Replay Summary: %d sequence(s)\n", result.TotalSequences)
	fmt.Fprintln(w)

	for _, seq := range result.Sequences {
		status := "✓"
		if !seq.Deterministic {
			status = "✗"
		}
		fmt.Fprintf(w, "%s Sequence: %s\n", status, seq.SequenceID)
		fmt.Fprintf(w, "  Steps: %d (%d applied, %d rejected)\n", seq.Steps, seq.Applied, seq.Rejected)
		if formatter.Verbose && seq.Digest != "" {
			fmt.Fprintf(w, "  Digest: %s\n", seq.Digest)
		}
		if !seq.Deterministic {
			fmt.Fprintf(w, "  Divergence: %s\n", seq.Divergence)
		}
		fmt.Fprintln(w)
	}

	if result.AllDeterministic {
		fmt.Fprintln(w, "✓ All sequences verified deterministic")
		return nil
	}

	fmt.Fprintln(w, "✗ Determinism verification failed")
	return NewExitError(ExitFailure, "determinism verification failed")
}
