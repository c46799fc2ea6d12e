package stdbscan

import "math"

// Default parameter values, sized for precipitation points whose Time is a
// timestep index. Data timed in Unix seconds needs EpsTime scaled to match,
// e.g. 3600 for hourly readings.
const (
	// DefaultEpsSpaceKm is the default spatial neighbourhood radius in km.
	DefaultEpsSpaceKm = 10.0
	// DefaultEpsTime is the default temporal radius: one unit of Point.Time.
	DefaultEpsTime = 1.0
	// DefaultMinPts is the default minimum neighbourhood size for a core point.
	DefaultMinPts = 5
)

// Params holds the ST-DBSCAN thresholds.
type Params struct {
	EpsSpace float64 // Spatial radius in km, > 0
	EpsTime  float64 // Temporal radius in point time units, >= 0
	MinPts   int     // Minimum neighbourhood size, >= 1

	// ExcludeSelf stops a point counting towards its own density. By default
	// a point is core when it has at least MinPts-1 neighbours, i.e. its
	// neighbourhood including itself holds MinPts points.
	ExcludeSelf bool

	// AbsorbNoise lets every core point of a cluster claim neighbours that
	// were labelled noise earlier in the pass. By default only the cluster's
	// anchor does, so a noise point stays noise when it touches nothing but
	// later core points.
	AbsorbNoise bool
}

// DefaultParams returns the package defaults.
func DefaultParams() Params {
	return Params{
		EpsSpace: DefaultEpsSpaceKm,
		EpsTime:  DefaultEpsTime,
		MinPts:   DefaultMinPts,
	}
}

// Validate rejects thresholds that make the density criterion meaningless.
// EpsTime of zero is allowed and restricts clusters to a single instant.
func (p Params) Validate() error {
	if math.IsNaN(p.EpsSpace) || math.IsInf(p.EpsSpace, 0) || p.EpsSpace <= 0 {
		return &ConfigError{Field: "eps_space", Value: p.EpsSpace, Reason: "must be a finite value > 0"}
	}
	if math.IsNaN(p.EpsTime) || math.IsInf(p.EpsTime, 0) || p.EpsTime < 0 {
		return &ConfigError{Field: "eps_time", Value: p.EpsTime, Reason: "must be a finite value >= 0"}
	}
	if p.MinPts < 1 {
		return &ConfigError{Field: "min_pts", Value: float64(p.MinPts), Reason: "must be >= 1"}
	}
	return nil
}

// isDense applies the core-point criterion to a neighbourhood of n points
// (excluding the anchor).
func (p Params) isDense(n int) bool {
	if p.ExcludeSelf {
		return n >= p.MinPts
	}
	return n+1 >= p.MinPts
}
