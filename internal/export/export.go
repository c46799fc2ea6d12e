// Package export writes clustering results in the formats consumed by
// downstream visualisation: a flat CSV, a JSON document with metadata and
// per-cluster summaries, cluster bounds and a time-sliced view.
package export

import (
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/stcluster/internal/stdbscan"
)

// PointRecord is one point with its assigned label.
type PointRecord struct {
	ID      int64          `json:"id"`
	Lat     float64        `json:"lat"`
	Lon     float64        `json:"lon"`
	Time    float64        `json:"time"`
	Value   float64        `json:"value"`
	Cluster stdbscan.Label `json:"cluster"`
}

// IsNoise reports whether the record was labelled noise.
func (p PointRecord) IsNoise() bool { return p.Cluster == stdbscan.Noise }

// ClusterBounds is the spatial and temporal extent of one cluster.
type ClusterBounds struct {
	MinLat     float64 `json:"min_lat"`
	MaxLat     float64 `json:"max_lat"`
	MinLon     float64 `json:"min_lon"`
	MaxLon     float64 `json:"max_lon"`
	MinTime    float64 `json:"min_time"`
	MaxTime    float64 `json:"max_time"`
	CenterLat  float64 `json:"center_lat"`
	CenterLon  float64 `json:"center_lon"`
	MeanValue  float64 `json:"mean_value"`
	PointCount int     `json:"n_points"`
}

// ClusterSummary pairs a cluster id with its size and bounds.
type ClusterSummary struct {
	ClusterID  stdbscan.Label `json:"cluster_id"`
	PointCount int            `json:"n_points"`
	Bounds     ClusterBounds  `json:"bounds"`
}

// Parameters echoes the engine parameters a result was produced with.
type Parameters struct {
	EpsSpaceKm  float64 `json:"eps_space_km"`
	EpsTime     float64 `json:"eps_time"`
	MinPts      int     `json:"min_pts"`
	ExcludeSelf bool    `json:"exclude_self"`
	AbsorbNoise bool    `json:"absorb_noise"`
}

// Metadata heads the JSON document.
type Metadata struct {
	PointCount   int                 `json:"n_points"`
	ClusterCount int                 `json:"n_clusters"`
	Parameters   Parameters          `json:"parameters"`
	Statistics   stdbscan.Statistics `json:"statistics"`
}

// Document is the full JSON export.
type Document struct {
	Metadata Metadata         `json:"metadata"`
	Points   []PointRecord    `json:"points"`
	Clusters []ClusterSummary `json:"clusters"`
}

// Exporter renders a single clustering result.
type Exporter struct {
	res *stdbscan.Result
}

// New returns an exporter for res.
func New(res *stdbscan.Result) *Exporter {
	return &Exporter{res: res}
}

// Records returns every point with its label, in input order.
func (e *Exporter) Records() []PointRecord {
	points := e.res.Points()
	out := make([]PointRecord, len(points))
	for i, p := range points {
		out[i] = PointRecord{
			ID: p.ID, Lat: p.Lat, Lon: p.Lon, Time: p.Time, Value: p.Value,
			Cluster: e.res.Label(i),
		}
	}
	return out
}

// Bounds computes the extent of every cluster. Noise is excluded.
func (e *Exporter) Bounds() map[stdbscan.Label]ClusterBounds {
	points := e.res.Points()
	out := make(map[stdbscan.Label]ClusterBounds)
	for label, idx := range e.res.Clusters() {
		if !label.IsCluster() {
			continue
		}
		out[label] = boundsOf(points, idx)
	}
	return out
}

func boundsOf(points []stdbscan.Point, idx []int) ClusterBounds {
	lats := make([]float64, len(idx))
	lons := make([]float64, len(idx))
	times := make([]float64, len(idx))
	values := make([]float64, len(idx))
	for k, i := range idx {
		p := points[i]
		lats[k], lons[k], times[k], values[k] = p.Lat, p.Lon, p.Time, p.Value
	}
	return ClusterBounds{
		MinLat:     slices.Min(lats),
		MaxLat:     slices.Max(lats),
		MinLon:     slices.Min(lons),
		MaxLon:     slices.Max(lons),
		MinTime:    slices.Min(times),
		MaxTime:    slices.Max(times),
		CenterLat:  stat.Mean(lats, nil),
		CenterLon:  stat.Mean(lons, nil),
		MeanValue:  stat.Mean(values, nil),
		PointCount: len(idx),
	}
}

// Summaries lists the clusters in ascending id order.
func (e *Exporter) Summaries() []ClusterSummary {
	bounds := e.Bounds()
	out := make([]ClusterSummary, 0, len(bounds))
	for _, id := range e.res.ClusterIDs() {
		b := bounds[id]
		out = append(out, ClusterSummary{ClusterID: id, PointCount: b.PointCount, Bounds: b})
	}
	return out
}

// ByTime groups records by time value and then by label. Noise points are
// kept under label 0.
func (e *Exporter) ByTime() map[float64]map[stdbscan.Label][]PointRecord {
	out := make(map[float64]map[stdbscan.Label][]PointRecord)
	for _, r := range e.Records() {
		byLabel, ok := out[r.Time]
		if !ok {
			byLabel = make(map[stdbscan.Label][]PointRecord)
			out[r.Time] = byLabel
		}
		byLabel[r.Cluster] = append(byLabel[r.Cluster], r)
	}
	return out
}

// Document assembles the JSON export.
func (e *Exporter) Document() Document {
	params := e.res.Params()
	return Document{
		Metadata: Metadata{
			PointCount:   e.res.Len(),
			ClusterCount: e.res.ClusterCount(),
			Parameters: Parameters{
				EpsSpaceKm:  params.EpsSpace,
				EpsTime:     params.EpsTime,
				MinPts:      params.MinPts,
				ExcludeSelf: params.ExcludeSelf,
				AbsorbNoise: params.AbsorbNoise,
			},
			Statistics: e.res.Statistics(),
		},
		Points:   e.Records(),
		Clusters: e.Summaries(),
	}
}
