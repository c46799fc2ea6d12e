package stdbscan

import (
	"fmt"
	"strings"
)

// Neighbor index kinds accepted by NewIndex and WithIndexKind.
const (
	IndexBruteForce = "brute"
	IndexGrid       = "grid"
	IndexKDTree     = "kdtree"
)

// NeighborIndex answers dual-threshold neighbourhood queries over a fixed
// point set. Build is called once per Fit; Neighbors may then be called
// concurrently from multiple goroutines.
type NeighborIndex interface {
	// Build prepares the index for points under params. The index may keep
	// a reference to points; callers must not modify the slice until the
	// next Build.
	Build(points []Point, params Params) error

	// Neighbors returns, in ascending order, the indices j != i whose
	// points lie within both EpsSpace and EpsTime of points[i].
	Neighbors(i int) []int
}

// NewIndex returns an unbuilt index of the named kind. The empty string
// selects the grid index.
func NewIndex(kind string) (NeighborIndex, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case IndexBruteForce:
		return &BruteForceIndex{}, nil
	case IndexGrid, "":
		return &GridIndex{}, nil
	case IndexKDTree:
		return &KDTreeIndex{}, nil
	default:
		return nil, fmt.Errorf("%w %q (want %s, %s or %s)", ErrUnknownIndex, kind,
			IndexBruteForce, IndexGrid, IndexKDTree)
	}
}

// Neighbors is the reference neighbourhood query: an exhaustive scan of
// points returning every j != i within epsSpace km and epsTime of points[i].
func Neighbors(points []Point, i int, epsSpace, epsTime float64) []int {
	var out []int
	center := points[i]
	for j := range points {
		if j == i {
			continue
		}
		if withinThresholds(center, points[j], epsSpace, epsTime) {
			out = append(out, j)
		}
	}
	return out
}

// BruteForceIndex performs the O(n) scan for each query.
type BruteForceIndex struct {
	points []Point
	params Params
}

// Build stores the point set.
func (b *BruteForceIndex) Build(points []Point, params Params) error {
	b.points = points
	b.params = params
	return nil
}

// Neighbors scans every point.
func (b *BruteForceIndex) Neighbors(i int) []int {
	return Neighbors(b.points, i, b.params.EpsSpace, b.params.EpsTime)
}

var (
	_ NeighborIndex = (*BruteForceIndex)(nil)
	_ NeighborIndex = (*GridIndex)(nil)
	_ NeighborIndex = (*KDTreeIndex)(nil)
)
