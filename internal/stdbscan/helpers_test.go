package stdbscan

import (
	"math/rand/v2"
	"testing"
)

// tokyoTriplet is three points within 1 km of each other at t=0.
func tokyoTriplet() []Point {
	return []Point{
		{ID: 1, Lat: 35.6800, Lon: 139.7600, Time: 0, Value: 3.2},
		{ID: 2, Lat: 35.6830, Lon: 139.7620, Time: 0, Value: 4.1},
		{ID: 3, Lat: 35.6810, Lon: 139.7650, Time: 0, Value: 2.7},
	}
}

// farPoints are more than 50 km from the triplet and from each other.
func farPoints() []Point {
	return []Point{
		{ID: 4, Lat: 36.5000, Lon: 139.7600, Time: 0, Value: 1.5},
		{ID: 5, Lat: 35.6800, Lon: 140.5000, Time: 0, Value: 1.1},
	}
}

// square returns four points ~100 m apart around (lat, lon).
func square(firstID int64, lat, lon, t float64) []Point {
	return []Point{
		{ID: firstID, Lat: lat, Lon: lon, Time: t},
		{ID: firstID + 1, Lat: lat + 0.001, Lon: lon, Time: t},
		{ID: firstID + 2, Lat: lat, Lon: lon + 0.001, Time: t},
		{ID: firstID + 3, Lat: lat + 0.001, Lon: lon + 0.001, Time: t},
	}
}

// randomCloud scatters n points around a few seeded centres with hourly
// timesteps, plus uniform background noise.
func randomCloud(seed uint64, n int) []Point {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	centers := [][2]float64{{35.6, 139.7}, {34.7, 135.5}, {43.06, 141.35}}
	pts := make([]Point, 0, n)
	for i := 0; i < n; i++ {
		var lat, lon float64
		if i%10 == 9 {
			lat = 33 + rng.Float64()*12
			lon = 129 + rng.Float64()*16
		} else {
			c := centers[i%len(centers)]
			lat = c[0] + rng.NormFloat64()*0.08
			lon = c[1] + rng.NormFloat64()*0.08
		}
		pts = append(pts, Point{
			ID:    int64(i),
			Lat:   lat,
			Lon:   lon,
			Time:  float64(rng.IntN(6)),
			Value: rng.Float64() * 20,
		})
	}
	return pts
}

func mustEngine(t testing.TB, params Params, opts ...Option) *Engine {
	t.Helper()
	e, err := New(params, opts...)
	if err != nil {
		t.Fatalf("New(%+v): %v", params, err)
	}
	return e
}

func mustFit(t testing.TB, e *Engine, pts []Point) *Result {
	t.Helper()
	res, err := e.Fit(pts)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	return res
}

// checkPartition asserts every index appears in exactly one bucket.
func checkPartition(t *testing.T, res *Result) {
	t.Helper()
	seen := make([]int, res.Len())
	for label, idxs := range res.Clusters() {
		if label != Noise && !label.IsCluster() {
			t.Errorf("bucket with invalid label %v", label)
		}
		for _, i := range idxs {
			seen[i]++
		}
	}
	for i, n := range seen {
		if n != 1 {
			t.Errorf("point %d appears in %d buckets, want 1", i, n)
		}
	}
}

// checkDensityReachability asserts that within each cluster every core
// point is connected to every other through core-to-core links, and every
// border point is within threshold of a core point of its own cluster.
func checkDensityReachability(t *testing.T, pts []Point, res *Result) {
	t.Helper()
	p := res.Params()
	for label, idxs := range res.Clusters() {
		if !label.IsCluster() {
			continue
		}
		var cores []int
		for _, i := range idxs {
			if res.IsCore(i) {
				cores = append(cores, i)
			}
		}
		if len(cores) == 0 {
			t.Errorf("cluster %v has no core point", label)
			continue
		}

		reached := map[int]bool{cores[0]: true}
		frontier := []int{cores[0]}
		for len(frontier) > 0 {
			c := frontier[0]
			frontier = frontier[1:]
			for _, o := range cores {
				if !reached[o] && withinThresholds(pts[c], pts[o], p.EpsSpace, p.EpsTime) {
					reached[o] = true
					frontier = append(frontier, o)
				}
			}
		}
		if len(reached) != len(cores) {
			t.Errorf("cluster %v: %d of %d core points reachable", label, len(reached), len(cores))
		}

		for _, i := range idxs {
			if res.IsCore(i) {
				continue
			}
			ok := false
			for _, c := range cores {
				if withinThresholds(pts[i], pts[c], p.EpsSpace, p.EpsTime) {
					ok = true
					break
				}
			}
			if !ok {
				t.Errorf("border point %d in cluster %v is not adjacent to any of its core points", i, label)
			}
		}
	}
}

// checkNoiseMinimality asserts noise points are non-core and were not
// reachable when the pass visited them. A cluster starts at its
// lowest-index core point (the anchor), which claims every neighbour. Any
// later core point only claims neighbours still unclassified, so a noise
// point may touch a non-anchor core point only if the pass labelled it
// before the anchor was reached. With AbsorbNoise no noise point may touch
// a core point at all.
func checkNoiseMinimality(t *testing.T, pts []Point, res *Result) {
	t.Helper()
	p := res.Params()
	labels := res.Labels()

	anchor := make(map[Label]int)
	for i, l := range labels {
		if _, ok := anchor[l]; !ok && l.IsCluster() && res.IsCore(i) {
			anchor[l] = i
		}
	}

	for i, l := range labels {
		if l != Noise {
			continue
		}
		nb := Neighbors(pts, i, p.EpsSpace, p.EpsTime)
		if p.isDense(len(nb)) {
			t.Errorf("noise point %d has %d neighbours, which is dense", i, len(nb))
		}
		for _, j := range nb {
			if !res.IsCore(j) {
				continue
			}
			a := anchor[labels[j]]
			switch {
			case p.AbsorbNoise:
				t.Errorf("noise point %d is adjacent to core point %d", i, j)
			case j == a:
				t.Errorf("noise point %d is adjacent to anchor %d of cluster %v", i, j, labels[j])
			case i > a:
				t.Errorf("noise point %d follows anchor %d of cluster %v yet was not claimed by core point %d", i, a, labels[j], j)
			}
		}
	}
}
