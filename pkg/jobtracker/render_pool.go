package jobtracker

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

const renderPoolSize = 10

type renderResult struct {
	bundle []string
	script string
	err    error
}

// renderBundles renders a launch script for each bundle concurrently,
// bounded by a fixed-size worker pool (§5.1). Workers are
// side-effect-free with respect to tracker state — they only call
// Command, never mutate t.running — so the dispatcher remains the
// sole mutator once results come back, matching the source's
// Pool(processes=10) used for write_script.
func (t *Tracker) renderBundles(ctx context.Context, bundles [][]string) []renderResult {
	results := make([]renderResult, len(bundles))
	sem := semaphore.NewWeighted(renderPoolSize)
	g, ctx := errgroup.WithContext(ctx)

	for i, bundle := range bundles {
		i, bundle := i, bundle
		g.Go(func() error {
			if err := sem.Acquire(ctx, 1); err != nil {
				results[i] = renderResult{bundle: bundle, err: err}
				return nil
			}
			defer sem.Release(1)

			script, err := t.Command(bundle)
			results[i] = renderResult{bundle: bundle, script: script, err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
