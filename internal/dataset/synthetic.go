package dataset

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/banshee-data/stcluster/internal/stdbscan"
)

// RainCloudConfig describes a synthetic rain-cloud scene: Clouds clouds drift
// linearly for TimeSteps steps, each emitting PointsPerCloud normally spread
// points per step, and a NoiseRatio share of uniformly scattered readings is
// appended at the end.
type RainCloudConfig struct {
	Clouds         int
	PointsPerCloud int
	TimeSteps      int
	NoiseRatio     float64 // noise points as a fraction of cloud points
	Spread         float64 // standard deviation of a cloud, degrees
	CenterLat      float64
	CenterLon      float64
	Seed           uint64
}

// DefaultRainCloudConfig returns three clouds around Tokyo over ten steps.
func DefaultRainCloudConfig() RainCloudConfig {
	return RainCloudConfig{
		Clouds:         3,
		PointsPerCloud: 50,
		TimeSteps:      10,
		NoiseRatio:     0.1,
		Spread:         0.1,
		CenterLat:      35.0,
		CenterLon:      139.0,
		Seed:           42,
	}
}

func (c RainCloudConfig) validate() error {
	switch {
	case c.Clouds < 0:
		return fmt.Errorf("rain clouds: clouds must be >= 0, got %d", c.Clouds)
	case c.PointsPerCloud < 0:
		return fmt.Errorf("rain clouds: points per cloud must be >= 0, got %d", c.PointsPerCloud)
	case c.TimeSteps < 1:
		return fmt.Errorf("rain clouds: time steps must be >= 1, got %d", c.TimeSteps)
	case !(c.NoiseRatio >= 0) || math.IsInf(c.NoiseRatio, 0):
		return fmt.Errorf("rain clouds: noise ratio must be finite and >= 0, got %v", c.NoiseRatio)
	case !(c.Spread >= 0) || math.IsInf(c.Spread, 0):
		return fmt.Errorf("rain clouds: spread must be finite and >= 0, got %v", c.Spread)
	}
	return nil
}

type cloudTrack struct {
	lat, lon   float64
	vLat, vLon float64 // degrees per step
}

// GenerateRainClouds builds the scene described by cfg. The same config
// always yields the same points. Cloud points come first, ordered by step
// then cloud, followed by the noise points; ids run from 0.
func GenerateRainClouds(cfg RainCloudConfig) ([]stdbscan.Point, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	src := rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)
	uniform := func(lo, hi float64) float64 {
		return distuv.Uniform{Min: lo, Max: hi, Src: src}.Rand()
	}

	tracks := make([]cloudTrack, cfg.Clouds)
	for i := range tracks {
		tracks[i] = cloudTrack{
			lat:  cfg.CenterLat + uniform(-2, 2),
			lon:  cfg.CenterLon + uniform(-2, 2),
			vLat: uniform(-0.05, 0.05),
			vLon: uniform(-0.05, 0.05),
		}
	}

	cloudPoints := cfg.Clouds * cfg.PointsPerCloud * cfg.TimeSteps
	nNoise := int(float64(cloudPoints) * cfg.NoiseRatio)
	points := make([]stdbscan.Point, 0, cloudPoints+nNoise)

	next := func(lat, lon, t, v float64) {
		points = append(points, stdbscan.Point{
			ID: int64(len(points)), Lat: lat, Lon: lon, Time: t, Value: v,
		})
	}

	for step := 0; step < cfg.TimeSteps; step++ {
		for _, c := range tracks {
			cLat := c.lat + c.vLat*float64(step)
			cLon := c.lon + c.vLon*float64(step)
			latDist := distuv.Normal{Mu: cLat, Sigma: cfg.Spread, Src: src}
			lonDist := distuv.Normal{Mu: cLon, Sigma: cfg.Spread, Src: src}
			for k := 0; k < cfg.PointsPerCloud; k++ {
				lat, lon := latDist.Rand(), lonDist.Rand()
				// intensity falls off linearly from the centre, plus jitter
				d := math.Hypot(lat-cLat, lon-cLon)
				v := math.Max(0, 10-d*50) + uniform(0, 2)
				next(lat, lon, float64(step), v)
			}
		}
	}

	for k := 0; k < nNoise; k++ {
		lat := cfg.CenterLat + uniform(-3, 3)
		lon := cfg.CenterLon + uniform(-3, 3)
		t := math.Min(math.Floor(uniform(0, float64(cfg.TimeSteps))), float64(cfg.TimeSteps-1))
		next(lat, lon, t, uniform(1, 5))
	}
	return points, nil
}
