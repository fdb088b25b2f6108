package async

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Map applies fn to every item on a bounded pool of goroutines and returns the
// results in input order. The first error cancels the context passed to the
// remaining calls and is returned. workers <= 0 means GOMAXPROCS.
func Map[T any, U any](ctx context.Context, items []T, workers int, fn func(context.Context, T) (U, error)) ([]U, error) {
	if len(items) == 0 {
		return []U{}, nil
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]U, len(items))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, item := range items {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := fn(ctx, item)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
