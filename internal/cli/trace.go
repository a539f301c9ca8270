package cli

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/spvfuzz/internal/fact"
	"github.com/roach88/spvfuzz/internal/ir"
	"github.com/roach88/spvfuzz/internal/record"
	"github.com/roach88/spvfuzz/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database   string
	SequenceID string
	Outcome    string // optional - "applied" or "rejected"
}

// TraceStep is one step in the trace timeline.
type TraceStep struct {
	Seq            int64          `json:"seq"`
	Index          int            `json:"index"`
	Outcome        string         `json:"outcome"`
	Code           string         `json:"code,omitempty"`
	Hash           string         `json:"hash"`
	Transformation map[string]any `json:"transformation"`
	Digest         string         `json:"digest"`
}

// TraceFact is a fact recorded by an applied step.
type TraceFact struct {
	Seq  int64   `json:"seq"`
	Kind string  `json:"kind"`
	IDs  []ir.ID `json:"ids"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	SequenceID    string      `json:"sequence_id"`
	TargetEnv     string      `json:"target_env"`
	ToolVersion   string      `json:"tool_version"`
	InitialDigest string      `json:"initial_digest"`
	Timeline      []TraceStep `json:"timeline"`
	Facts         []TraceFact `json:"facts"`
	Stats         TraceStats  `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	TotalSteps  int    `json:"total_steps"`
	Applied     int    `json:"applied"`
	Rejected    int    `json:"rejected"`
	Facts       int    `json:"facts"`
	LastSeq     int64  `json:"last_seq"`
	FinalDigest string `json:"final_digest"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the logged history of a sequence",
		Long: `Show the recorded history of one sequence from the run log.

The output includes:
- Timeline: every attempted step in seq order, with its outcome
- Facts: the facts each applied step recorded
- Stats: summary counts and the final module digest

Examples:
  spvfuzz trace --db ./runs.db --sequence 0190c1a2-...
  spvfuzz trace --db ./runs.db --sequence 0190c1a2-... --outcome rejected
  spvfuzz trace --db ./runs.db --sequence 0190c1a2-... --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.SequenceID, "sequence", "", "sequence id to trace (required)")
	_ = cmd.MarkFlagRequired("sequence")
	cmd.Flags().StringVar(&opts.Outcome, "outcome", "", "filter to applied or rejected steps")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if opts.Outcome != "" && opts.Outcome != string(store.OutcomeApplied) && opts.Outcome != string(store.OutcomeRejected) {
		return outputLoadError(formatter, &LoadError{
			Code:    ErrCodeFlag,
			Message: fmt.Sprintf("--outcome must be applied or rejected, got %q", opts.Outcome),
		})
	}

	st, err := openExistingStore(opts.Database)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	defer st.Close()

	state, err := st.GetSequenceState(commandContext(cmd), opts.SequenceID)
	if errors.Is(err, store.ErrNotFound) {
		return fail(formatter, ErrCodeNotFound, fmt.Sprintf("sequence %s not found", opts.SequenceID), nil)
	}
	if err != nil {
		return fail(formatter, ErrCodeDatabase, "failed to read sequence", err)
	}

	facts, err := buildFacts(state.Facts)
	if err != nil {
		return fail(formatter, ErrCodeDatabase, "failed to decode facts", err)
	}

	result := TraceResult{
		SequenceID:    state.Sequence.ID,
		TargetEnv:     state.Sequence.TargetEnv,
		ToolVersion:   state.Sequence.ToolVersion,
		InitialDigest: state.Sequence.InitialDigest,
		Timeline:      buildTimeline(state.Steps, opts.Outcome),
		Facts:         facts,
		Stats: TraceStats{
			TotalSteps:  len(state.Steps),
			Applied:     state.Applied,
			Rejected:    state.Rejected,
			Facts:       len(state.Facts),
			LastSeq:     state.LastSeq,
			FinalDigest: state.FinalDigest,
		},
	}

	if formatter.IsJSON() {
		return formatter.Success(result)
	}
	outputTraceText(formatter.Writer, result, formatter.Verbose)
	return nil
}

// buildTimeline converts stored steps to timeline entries. When
// outcomeFilter is set, only steps with that outcome are kept.
func buildTimeline(steps []store.Step, outcomeFilter string) []TraceStep {
	timeline := make([]TraceStep, 0, len(steps))
	for _, s := range steps {
		if outcomeFilter != "" && string(s.Outcome) != outcomeFilter {
			continue
		}
		t, _ := record.ToAny(s.Transformation).(map[string]any)
		timeline = append(timeline, TraceStep{
			Seq:            s.Seq,
			Index:          s.Index,
			Outcome:        string(s.Outcome),
			Code:           s.RejectionCode,
			Hash:           s.TransformationHash,
			Transformation: t,
			Digest:         s.ModuleDigest,
		})
	}
	return timeline
}

func buildFacts(stored []store.Fact) ([]TraceFact, error) {
	out := make([]TraceFact, 0, len(stored))
	for _, sf := range stored {
		f, err := fact.FromRecord(sf.Fact)
		if err != nil {
			return nil, err
		}
		out = append(out, TraceFact{Seq: sf.Seq, Kind: string(f.Kind), IDs: f.IDs})
	}
	return out, nil
}

func outputTraceText(w io.Writer, result TraceResult, verbose bool) {
	fmt.Fprintf(w, "Trace for Sequence: %s\n", result.SequenceID)
	fmt.Fprintf(w, "Target: %s\n", result.TargetEnv)
	if verbose {
		fmt.Fprintf(w, "Tool: %s\n", result.ToolVersion)
		fmt.Fprintf(w, "Initial Digest: %s\n", result.InitialDigest)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Timeline ===")
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no steps)")
	}
	for _, step := range result.Timeline {
		kind, _ := step.Transformation["kind"].(string)
		if step.Code != "" {
			fmt.Fprintf(w, "  [%d] %s %s (%s)\n", step.Seq, strings.ToUpper(step.Outcome), kind, step.Code)
		} else {
			fmt.Fprintf(w, "  [%d] %s %s\n", step.Seq, strings.ToUpper(step.Outcome), kind)
		}
		if verbose {
			fmt.Fprintf(w, "       Args: %s\n", formatArgs(step.Transformation))
			fmt.Fprintf(w, "       Digest: %s\n", truncateID(step.Digest))
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Facts ===")
	if len(result.Facts) == 0 {
		fmt.Fprintln(w, "  (no facts)")
	}
	for _, f := range result.Facts {
		ids := make([]string, len(f.IDs))
		for i, id := range f.IDs {
			ids[i] = id.String()
		}
		fmt.Fprintf(w, "  [%d] %s %s\n", f.Seq, f.Kind, strings.Join(ids, " "))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Total Steps: %d\n", result.Stats.TotalSteps)
	fmt.Fprintf(w, "  Applied:     %d\n", result.Stats.Applied)
	fmt.Fprintf(w, "  Rejected:    %d\n", result.Stats.Rejected)
	fmt.Fprintf(w, "  Facts:       %d\n", result.Stats.Facts)
	fmt.Fprintf(w, "  Final:       %s\n", truncateID(result.Stats.FinalDigest))
}

// formatArgs formats a record map for display with sorted keys.
func formatArgs(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}

	keys := make([]string, 0, len(args))
	for k := range args {
		if k == "kind" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, formatValue(args[k])))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func formatValue(v any) string {
	switch val := v.(type) {
	case map[string]any:
		return formatArgs(val)
	case []any:
		parts := make([]string, len(val))
		for i, elem := range val {
			parts[i] = formatValue(elem)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case string:
		return val
	default:
		return fmt.Sprintf("%v", v)
	}
}

// truncateID shortens a long digest or id for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:8] + "..." + id[len(id)-8:]
}
