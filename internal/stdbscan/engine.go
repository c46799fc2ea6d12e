package stdbscan

import (
	"fmt"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"
)

// precomputeChunk is the number of anchor points each precompute task
// handles; small enough to balance uneven neighbourhood sizes.
const precomputeChunk = 256

// Option configures an Engine.
type Option func(*Engine) error

// WithIndex sets the neighbour index used by Fit.
func WithIndex(idx NeighborIndex) Option {
	return func(e *Engine) error {
		if idx == nil {
			return fmt.Errorf("%w: nil neighbor index", ErrConfiguration)
		}
		e.index = idx
		return nil
	}
}

// WithIndexKind selects one of the built-in neighbour indexes by name.
func WithIndexKind(kind string) Option {
	return func(e *Engine) error {
		idx, err := NewIndex(kind)
		if err != nil {
			return err
		}
		e.index = idx
		return nil
	}
}

// WithWorkers enables parallel neighbourhood precomputation. With n > 1 every
// neighbour set is computed concurrently and cached before the sequential
// expansion runs; n == 0 uses GOMAXPROCS. The labelling is identical for
// any worker count.
func WithWorkers(n int) Option {
	return func(e *Engine) error {
		if n < 0 {
			return &ConfigError{Field: "workers", Value: float64(n), Reason: "must be >= 0"}
		}
		if n == 0 {
			n = runtime.GOMAXPROCS(0)
		}
		e.workers = n
		return nil
	}
}

// Engine runs ST-DBSCAN. An Engine may be reused for any number of
// independent Fit calls but must not run two Fit calls concurrently.
type Engine struct {
	params  Params
	index   NeighborIndex
	workers int
	last    *Result
}

// New validates params and returns an engine. Invalid parameters are
// reported as *ConfigError before any point is seen.
func New(params Params, opts ...Option) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		params:  params,
		index:   &GridIndex{},
		workers: 1,
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Params returns the engine's thresholds.
func (e *Engine) Params() Params { return e.params }

// Last returns the Result of the most recent successful Fit, or nil.
func (e *Engine) Last() *Result { return e.last }

// Fit clusters points and returns a fresh Result. The input slice is never
// modified. Points are validated first; on a *DataError no result is
// produced. Zero points yield an empty Result with no clusters.
func (e *Engine) Fit(points []Point) (*Result, error) {
	if err := validatePoints(points); err != nil {
		return nil, err
	}

	pts := slices.Clone(points)
	res := newResult(pts, e.params)
	if len(pts) == 0 {
		e.last = res
		return res, nil
	}

	if err := e.index.Build(pts, e.params); err != nil {
		return nil, fmt.Errorf("stdbscan: build neighbor index: %w", err)
	}

	query := e.index.Neighbors
	if e.workers > 1 {
		cache := precomputeNeighbors(e.index, len(pts), e.workers)
		query = func(i int) []int { return cache[i] }
	}

	res.clusterCount = expand(res.labels, res.core, query, e.params)
	e.last = res
	return res, nil
}

// precomputeNeighbors evaluates every neighbourhood with at most workers
// goroutines. Each task writes a disjoint range of out.
func precomputeNeighbors(idx NeighborIndex, n, workers int) [][]int {
	out := make([][]int, n)
	var g errgroup.Group
	g.SetLimit(workers)
	for start := 0; start < n; start += precomputeChunk {
		end := min(start+precomputeChunk, n)
		g.Go(func() error {
			for i := start; i < end; i++ {
				out[i] = idx.Neighbors(i)
			}
			return nil
		})
	}
	_ = g.Wait() // tasks never fail
	return out
}

// expand labels every point in a single pass over input order and returns
// the number of clusters. Each point's neighbourhood is queried exactly
// once: either as a pass anchor or when it is first reached while still
// unclassified. A point already labelled Noise joins a cluster only when it
// is in the anchor's neighbourhood, unless params.AbsorbNoise lets any core
// point of the cluster claim it. Absorbed points never expand a cluster.
func expand(labels []Label, core []bool, query func(int) []int, params Params) int {
	for i := range labels {
		labels[i] = Unclassified
	}

	// queued[j] == id means j is already in the work queue of cluster id.
	// Skipping repeats leaves the labelling unchanged since a second pop
	// of the same index is a no-op.
	queued := make([]Label, len(labels))
	queue := make([]int, 0, 64)
	var clusterID Label

	for i := range labels {
		if labels[i] != Unclassified {
			continue
		}

		neighbors := query(i)
		if !params.isDense(len(neighbors)) {
			labels[i] = Noise
			continue
		}

		clusterID++
		labels[i] = clusterID
		core[i] = true

		queue = queue[:0]
		for _, j := range neighbors {
			queued[j] = clusterID
			queue = append(queue, j)
		}

		for head := 0; head < len(queue); head++ {
			c := queue[head]
			switch labels[c] {
			case Noise:
				labels[c] = clusterID
			case Unclassified:
				labels[c] = clusterID
				cn := query(c)
				if !params.isDense(len(cn)) {
					continue
				}
				core[c] = true
				for _, j := range cn {
					if queued[j] == clusterID {
						continue
					}
					if labels[j] == Unclassified || (params.AbsorbNoise && labels[j] == Noise) {
						queued[j] = clusterID
						queue = append(queue, j)
					}
				}
			}
		}
	}
	return int(clusterID)
}
