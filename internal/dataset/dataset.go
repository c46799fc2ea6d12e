// Package dataset turns raw observations into stdbscan points: it filters
// precipitation readings, reads point files, ingests hourly grid series and
// generates synthetic rain clouds for testing and benchmarking.
package dataset

import "github.com/banshee-data/stcluster/internal/stdbscan"

// Reading is a single gridded observation before ids are assigned.
type Reading struct {
	Lat   float64
	Lon   float64
	Time  float64 // Unix seconds
	Value float64 // Precipitation in mm/h
}

// FilterPrecipitation keeps readings whose value is at least threshold and
// numbers the survivors 0, 1, 2... in input order.
func FilterPrecipitation(readings []Reading, threshold float64) []stdbscan.Point {
	points := make([]stdbscan.Point, 0, len(readings))
	var id int64
	for _, r := range readings {
		if !(r.Value >= threshold) {
			continue
		}
		points = append(points, stdbscan.Point{
			ID:    id,
			Lat:   r.Lat,
			Lon:   r.Lon,
			Time:  r.Time,
			Value: r.Value,
		})
		id++
	}
	return points
}
