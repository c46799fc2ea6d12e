package stdbscan

import (
	"math"
	"slices"
)

// maxExactBucket bounds bucket numbers to the range where float64 holds
// integers exactly.
const maxExactBucket = 1 << 52

// cellKey addresses one bucket: three spatial axes of the Earth-centred
// frame plus a time window.
type cellKey struct {
	x, y, z, t int64
}

// GridIndex buckets points on a regular grid of Earth-centred coordinates
// with cell edge of at least EpsSpace km, and by time windows of width EpsTime. A query
// inspects the 3x3x3 spatial block around the anchor cell across the
// adjacent time windows, then applies the exact haversine and temporal test.
type GridIndex struct {
	points   []Point
	params   Params
	cellSize float64
	keys     []cellKey
	cells    map[cellKey][]int
	timeMode timeBucketing
}

type timeBucketing int

const (
	timeWindows timeBucketing = iota // floor(t / EpsTime), search +-1
	timeExact                        // EpsTime == 0: one bucket per instant
	timeNone                         // window numbers overflow; single bucket
)

// Build assigns every point to its cell.
func (g *GridIndex) Build(points []Point, params Params) error {
	g.points = points
	g.params = params
	// A cell may be wider than EpsSpace (never narrower); tiny radii are
	// clamped so that cell numbers stay in exact integer range.
	g.cellSize = math.Max(params.EpsSpace, EarthRadiusKm/maxExactBucket)
	g.keys = make([]cellKey, len(points))
	g.cells = make(map[cellKey][]int, len(points)/4+1)
	g.timeMode = chooseTimeBucketing(points, params.EpsTime)

	for i, p := range points {
		c := toECEF(p.Lat, p.Lon)
		key := cellKey{
			x: int64(math.Floor(c[0] / g.cellSize)),
			y: int64(math.Floor(c[1] / g.cellSize)),
			z: int64(math.Floor(c[2] / g.cellSize)),
			t: g.timeBucket(p.Time),
		}
		g.keys[i] = key
		// Appending in index order keeps each bucket sorted.
		g.cells[key] = append(g.cells[key], i)
	}
	return nil
}

func chooseTimeBucketing(points []Point, epsTime float64) timeBucketing {
	if epsTime == 0 {
		return timeExact
	}
	for _, p := range points {
		if math.Abs(p.Time/epsTime) >= maxExactBucket {
			return timeNone
		}
	}
	return timeWindows
}

func (g *GridIndex) timeBucket(t float64) int64 {
	switch g.timeMode {
	case timeExact:
		if t == 0 {
			t = 0 // fold -0 onto +0
		}
		return int64(math.Float64bits(t))
	case timeNone:
		return 0
	default:
		return int64(math.Floor(t / g.params.EpsTime))
	}
}

// Neighbors returns the sorted neighbour indices of points[i].
func (g *GridIndex) Neighbors(i int) []int {
	anchor := g.points[i]
	base := g.keys[i]

	dtMin, dtMax := int64(-1), int64(1)
	if g.timeMode != timeWindows {
		dtMin, dtMax = 0, 0
	}

	var out []int
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for dz := int64(-1); dz <= 1; dz++ {
				for dt := dtMin; dt <= dtMax; dt++ {
					key := cellKey{base.x + dx, base.y + dy, base.z + dz, base.t + dt}
					for _, j := range g.cells[key] {
						if j == i {
							continue
						}
						if withinThresholds(anchor, g.points[j], g.params.EpsSpace, g.params.EpsTime) {
							out = append(out, j)
						}
					}
				}
			}
		}
	}
	slices.Sort(out)
	return out
}
