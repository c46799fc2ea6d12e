package dataset

import (
	"slices"

	"github.com/banshee-data/stcluster/internal/stdbscan"
)

// FilterTimeRange keeps points with from <= Time <= to, in input order.
func FilterTimeRange(points []stdbscan.Point, from, to float64) []stdbscan.Point {
	out := make([]stdbscan.Point, 0, len(points))
	for _, p := range points {
		if p.Time >= from && p.Time <= to {
			out = append(out, p)
		}
	}
	return out
}

// TimeSteps returns the distinct time values of points in ascending order.
func TimeSteps(points []stdbscan.Point) []float64 {
	times := make([]float64, len(points))
	for i, p := range points {
		times[i] = p.Time
	}
	slices.Sort(times)
	return slices.Compact(times)
}

// SelectTimeSteps keeps the points falling on count consecutive distinct
// time values, starting at the start-th smallest (0-based). Input order and
// ids are preserved. count <= 0 keeps every step from start on; a start past
// the last step yields no points.
func SelectTimeSteps(points []stdbscan.Point, start, count int) []stdbscan.Point {
	steps := TimeSteps(points)
	if start < 0 {
		start = 0
	}
	if start >= len(steps) {
		return []stdbscan.Point{}
	}
	end := len(steps)
	if count > 0 {
		end = min(start+count, len(steps))
	}
	return FilterTimeRange(points, steps[start], steps[end-1])
}
