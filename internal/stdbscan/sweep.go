package stdbscan

import (
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Sweep fits the same points once per parameter set and returns the results
// in the order of sets. Up to workers fits run concurrently, each on its own
// engine built with opts. Because engines run in parallel, opts must not
// share a NeighborIndex value between them; select indexes with
// WithIndexKind instead of WithIndex.
//
// Points are validated once up front. Any invalid parameter set fails the
// whole sweep before clustering starts.
func Sweep(points []Point, sets []Params, workers int, opts ...Option) ([]*Result, error) {
	if err := validatePoints(points); err != nil {
		return nil, err
	}

	engines := make([]*Engine, len(sets))
	for i, params := range sets {
		e, err := New(params, opts...)
		if err != nil {
			return nil, fmt.Errorf("parameter set %d: %w", i, err)
		}
		engines[i] = e
	}

	results := make([]*Result, len(sets))
	var g errgroup.Group
	g.SetLimit(max(workers, 1))
	for i, e := range engines {
		g.Go(func() error {
			res, err := e.Fit(points)
			if err != nil {
				return fmt.Errorf("parameter set %d: %w", i, err)
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
