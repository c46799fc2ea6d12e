package stdbscan

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResult_Accessors(t *testing.T) {
	pts := append(tokyoTriplet(), farPoints()...)
	res := mustFit(t, mustEngine(t, Params{EpsSpace: 5, EpsTime: 0, MinPts: 3}), pts)

	assert.Equal(t, 5, res.Len())
	assert.Equal(t, Label(1), res.Label(0))
	assert.Equal(t, Noise, res.Label(4))

	l, ok := res.LabelOf(5)
	assert.True(t, ok)
	assert.Equal(t, Noise, l)

	_, ok = res.LabelOf(12345)
	assert.False(t, ok)

	assert.Equal(t, map[int64]Label{1: 1, 2: 1, 3: 1, 4: Noise, 5: Noise}, res.Assignments())

	// Returned slices are copies.
	labels := res.Labels()
	labels[0] = 42
	assert.Equal(t, Label(1), res.Label(0))
}

func TestStatistics_NoClusters(t *testing.T) {
	res := mustFit(t, mustEngine(t, Params{EpsSpace: 0.01, EpsTime: 0, MinPts: 2}), farPoints())
	stats := res.Statistics()

	assert.Equal(t, Statistics{
		PointCount:   2,
		NoiseCount:   2,
		NoiseRatio:   1,
		ClusterSizes: []int{},
	}, stats)
}

func TestLabel_String(t *testing.T) {
	assert.Equal(t, "noise", Noise.String())
	assert.Equal(t, "unclassified", Unclassified.String())
	assert.Equal(t, "cluster-7", Label(7).String())
	assert.True(t, Label(3).IsCluster())
	assert.False(t, Noise.IsCluster())
	assert.False(t, Unclassified.IsCluster())
}

func nan() float64 { return math.NaN() }
func inf() float64 { return math.Inf(1) }
