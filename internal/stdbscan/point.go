package stdbscan

import (
	"math"
	"strconv"
)

// Point is a single spatio-temporal observation. Points are never mutated by
// the engine; cluster assignments are held by the Result of each Fit call.
type Point struct {
	ID    int64   // Caller-assigned identity, unique within one Fit call
	Lat   float64 // Latitude in degrees
	Lon   float64 // Longitude in degrees
	Time  float64 // Unix seconds or a timestep index; same unit as Params.EpsTime
	Value float64 // Payload (e.g. mm/h of rain), carried through unused
}

// Label is the cluster assignment of a point.
type Label int

const (
	// Unclassified marks a point the expansion has not visited yet.
	// It never appears in a completed Result.
	Unclassified Label = -1
	// Noise marks a point that is not density-reachable from any core point.
	Noise Label = 0
)

// IsCluster reports whether l is a real cluster id (>= 1).
func (l Label) IsCluster() bool { return l > Noise }

func (l Label) String() string {
	switch {
	case l == Noise:
		return "noise"
	case l == Unclassified:
		return "unclassified"
	default:
		return "cluster-" + strconv.Itoa(int(l))
	}
}

// validatePoints checks every point before any label is written so that a
// malformed input fails the whole Fit call atomically.
func validatePoints(points []Point) error {
	seen := make(map[int64]int, len(points))
	for i, p := range points {
		switch {
		case !isFinite(p.Lat):
			return &DataError{Index: i, ID: p.ID, Field: "lat", Value: p.Lat}
		case !isFinite(p.Lon):
			return &DataError{Index: i, ID: p.ID, Field: "lon", Value: p.Lon}
		case !isFinite(p.Time):
			return &DataError{Index: i, ID: p.ID, Field: "time", Value: p.Time}
		case !isFinite(p.Value):
			return &DataError{Index: i, ID: p.ID, Field: "value", Value: p.Value}
		}
		if first, dup := seen[p.ID]; dup {
			return &DataError{Index: i, ID: p.ID, Field: "id", Value: float64(p.ID), Duplicate: first}
		}
		seen[p.ID] = i
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
