package engine

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/spvfuzz/internal/ir"
	"github.com/roach88/spvfuzz/internal/transform"
)

// RunParallel runs independent sequences against the same starting point.
//
// Each sequence gets its own clone of m and tc, so workers share nothing
// but the engine configuration and store. m and tc are left untouched.
// At most workers sequences run at once; workers <= 0 means one per
// sequence. Results are returned in the order of seqs.
//
// The first failing sequence cancels the rest. Its partial result is kept
// in the returned slice alongside the results of sequences that finished.
func (e *Engine) RunParallel(ctx context.Context, m *ir.Module, tc *transform.Context, seqs []transform.Sequence, workers int) ([]*Result, error) {
	if m == nil || tc == nil {
		return nil, fmt.Errorf("run parallel: module and context are required")
	}

	results := make([]*Result, len(seqs))
	g, gCtx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	for i, seq := range seqs {
		// Clone before scheduling so workers never touch m or tc.
		mc, tcc := m.Clone(), tc.Clone()
		g.Go(func() error {
			res, err := e.Run(gCtx, mc, tcc, seq)
			results[i] = res
			if err != nil {
				return fmt.Errorf("sequence %d: %w", i, err)
			}
			return nil
		})
	}

	err := g.Wait()
	return results, err
}
