package scan

import (
	"context"
	"sync"

	"github.com/strata-db/strata/internal/table/errs"
	"github.com/strata-db/strata/internal/table/types"
	"github.com/strata-db/strata/pkg/errors"
)

// manifestTask reads one manifest file and returns its entries.
type manifestTask func(ctx context.Context) ([]types.ManifestEntry, error)

// runPool executes tasks with at most width goroutines in flight and
// returns results ordered by task index once every task has completed: a
// single fan-out, single join, no open-ended submission queue. This is
// the "manifests may be read concurrently with bounded parallelism;
// results are merged serially in list order" contract — the bound is on
// concurrency, not on how results are consumed afterward.
func runPool(ctx context.Context, width int, tasks []manifestTask) ([][]types.ManifestEntry, error) {
	if width < 1 {
		width = 1
	}

	results := make([][]types.ManifestEntry, len(tasks))
	taskErrs := make([]error, len(tasks))

	sem := make(chan struct{}, width)
	var wg sync.WaitGroup

	for i, task := range tasks {
		if ctx.Err() != nil {
			return nil, errors.New(errs.Cancelled, "scan cancelled before all manifests were read", ctx.Err())
		}
		select {
		case <-ctx.Done():
			return nil, errors.New(errs.Cancelled, "scan cancelled before all manifests were read", ctx.Err())
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(i int, task manifestTask) {
			defer wg.Done()
			defer func() { <-sem }()
			entries, err := task(ctx)
			results[i] = entries
			taskErrs[i] = err
		}(i, task)
	}

	wg.Wait()

	for _, err := range taskErrs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}
