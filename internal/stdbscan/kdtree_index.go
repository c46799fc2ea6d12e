package stdbscan

import (
	"slices"

	"gonum.org/v1/gonum/spatial/kdtree"
)

// chordSlack pads the kd-tree search radius, relatively and in km.
const chordSlack = 1e-9

// KDTreeIndex prefilters candidates with a gonum kd-tree over Earth-centred
// coordinates, using the chord radius EpsSpace, then applies the exact
// haversine and temporal test.
type KDTreeIndex struct {
	points []Point
	params Params
	nodes  []sphereNode
	tree   *kdtree.Tree
}

// Build constructs the tree. The tree is read-only afterwards, so queries
// are safe to run concurrently.
func (k *KDTreeIndex) Build(points []Point, params Params) error {
	k.points = points
	k.params = params
	k.nodes = make([]sphereNode, len(points))
	for i, p := range points {
		k.nodes[i] = sphereNode{xyz: toECEF(p.Lat, p.Lon), idx: i}
	}
	k.tree = nil
	if len(points) == 0 {
		return nil
	}
	// kdtree.New reorders its input, so hand it a copy and keep k.nodes in
	// point order for query lookups.
	k.tree = kdtree.New(sphereNodes(slices.Clone(k.nodes)), false)
	return nil
}

// Neighbors returns the sorted neighbour indices of points[i].
func (k *KDTreeIndex) Neighbors(i int) []int {
	if k.tree == nil {
		return nil
	}
	eps := k.params.EpsSpace
	// Widen the chord radius past ECEF rounding error, which dominates at
	// sub-millimetre radii; the exact test below rejects the extras.
	r := eps*(1+chordSlack) + chordSlack
	keep := kdtree.NewDistKeeper(r * r)
	k.tree.NearestSet(keep, k.nodes[i])

	anchor := k.points[i]
	var out []int
	for _, c := range keep.Heap {
		// The keeper's sentinel survives when nothing is in range.
		n, ok := c.Comparable.(sphereNode)
		if !ok || n.idx == i {
			continue
		}
		if withinThresholds(anchor, k.points[n.idx], eps, k.params.EpsTime) {
			out = append(out, n.idx)
		}
	}
	slices.Sort(out)
	return out
}

// sphereNode is a kdtree.Comparable carrying the originating point index.
type sphereNode struct {
	xyz [3]float64
	idx int
}

// Compare returns the signed distance of n from the plane through c
// perpendicular to dimension d.
func (n sphereNode) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	return n.xyz[d] - c.(sphereNode).xyz[d]
}

// Dims is always 3.
func (n sphereNode) Dims() int { return 3 }

// Distance is the squared chord length, as kdtree expects.
func (n sphereNode) Distance(c kdtree.Comparable) float64 {
	o := c.(sphereNode)
	var sum float64
	for d := range n.xyz {
		diff := n.xyz[d] - o.xyz[d]
		sum += diff * diff
	}
	return sum
}

// sphereNodes implements kdtree.Interface.
type sphereNodes []sphereNode

func (s sphereNodes) Index(i int) kdtree.Comparable { return s[i] }
func (s sphereNodes) Len() int                       { return len(s) }
func (s sphereNodes) Slice(start, end int) kdtree.Interface {
	return s[start:end]
}

func (s sphereNodes) Pivot(d kdtree.Dim) int {
	p := sphereNodePlane{nodes: s, dim: d}
	return kdtree.Partition(p, kdtree.MedianOfMedians(p))
}

// sphereNodePlane sorts nodes along a single dimension for pivoting.
type sphereNodePlane struct {
	nodes sphereNodes
	dim   kdtree.Dim
}

func (p sphereNodePlane) Len() int { return len(p.nodes) }
func (p sphereNodePlane) Less(i, j int) bool {
	return p.nodes[i].xyz[p.dim] < p.nodes[j].xyz[p.dim]
}
func (p sphereNodePlane) Swap(i, j int) { p.nodes[i], p.nodes[j] = p.nodes[j], p.nodes[i] }
func (p sphereNodePlane) Slice(start, end int) kdtree.SortSlicer {
	return sphereNodePlane{nodes: p.nodes[start:end], dim: p.dim}
}
