package stdbscan

import (
	"slices"

	"gonum.org/v1/gonum/stat"
)

// Result is the outcome of one Fit call. It owns a copy of the input points
// and the label assigned to each, and is safe for concurrent reads.
type Result struct {
	points       []Point
	params       Params
	labels       []Label
	core         []bool
	byID         map[int64]int
	clusterCount int
}

func newResult(points []Point, params Params) *Result {
	byID := make(map[int64]int, len(points))
	for i, p := range points {
		byID[p.ID] = i
	}
	return &Result{
		points: points,
		params: params,
		labels: make([]Label, len(points)),
		core:   make([]bool, len(points)),
		byID:   byID,
	}
}

// Len is the number of clustered points.
func (r *Result) Len() int { return len(r.points) }

// Params returns the thresholds used for this result.
func (r *Result) Params() Params { return r.params }

// Points returns a copy of the clustered points in input order.
func (r *Result) Points() []Point { return slices.Clone(r.points) }

// Labels returns a copy of the per-point labels in input order.
func (r *Result) Labels() []Label { return slices.Clone(r.labels) }

// Label returns the label of the point at index i.
func (r *Result) Label(i int) Label { return r.labels[i] }

// LabelOf returns the label of the point with the given ID.
func (r *Result) LabelOf(id int64) (Label, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Unclassified, false
	}
	return r.labels[i], true
}

// Assignments returns a fresh point ID → label map.
func (r *Result) Assignments() map[int64]Label {
	out := make(map[int64]Label, len(r.points))
	for i, p := range r.points {
		out[p.ID] = r.labels[i]
	}
	return out
}

// IsCore reports whether the point at index i is a core point.
func (r *Result) IsCore(i int) bool { return r.core[i] }

// ClusterCount is the number of clusters, excluding noise.
func (r *Result) ClusterCount() int { return r.clusterCount }

// ClusterIDs returns the cluster ids 1..k in ascending order.
func (r *Result) ClusterIDs() []Label {
	ids := make([]Label, r.clusterCount)
	for i := range ids {
		ids[i] = Label(i + 1)
	}
	return ids
}

// Clusters maps each label present in the result (Noise included, when any
// point is noise) to the indices of its points in ascending order.
func (r *Result) Clusters() map[Label][]int {
	out := make(map[Label][]int, r.clusterCount+1)
	for i, l := range r.labels {
		out[l] = append(out[l], i)
	}
	return out
}

// Statistics summarises a Result.
type Statistics struct {
	PointCount     int     `json:"n_points"`
	ClusterCount   int     `json:"n_clusters"`
	NoiseCount     int     `json:"n_noise"`
	NoiseRatio     float64 `json:"noise_ratio"`
	CoreCount      int     `json:"n_core"`
	BorderCount    int     `json:"n_border"`
	ClusterSizes   []int   `json:"cluster_sizes"` // indexed by cluster id - 1
	AvgClusterSize float64 `json:"avg_cluster_size"`
	MinClusterSize int     `json:"min_cluster_size"`
	MaxClusterSize int     `json:"max_cluster_size"`
}

// Statistics computes counts and cluster size aggregates. With no clusters
// the size aggregates are zero.
func (r *Result) Statistics() Statistics {
	s := Statistics{
		PointCount:   len(r.points),
		ClusterCount: r.clusterCount,
		ClusterSizes: make([]int, r.clusterCount),
	}
	for i, l := range r.labels {
		switch {
		case l == Noise:
			s.NoiseCount++
		case l.IsCluster():
			s.ClusterSizes[l-1]++
			if r.core[i] {
				s.CoreCount++
			} else {
				s.BorderCount++
			}
		}
	}
	if s.PointCount > 0 {
		s.NoiseRatio = float64(s.NoiseCount) / float64(s.PointCount)
	}
	if len(s.ClusterSizes) > 0 {
		sizes := make([]float64, len(s.ClusterSizes))
		for i, n := range s.ClusterSizes {
			sizes[i] = float64(n)
		}
		s.AvgClusterSize = stat.Mean(sizes, nil)
		s.MinClusterSize = slices.Min(s.ClusterSizes)
		s.MaxClusterSize = slices.Max(s.ClusterSizes)
	}
	return s
}
