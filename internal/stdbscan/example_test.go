package stdbscan_test

import (
	"fmt"

	"github.com/banshee-data/stcluster/internal/stdbscan"
)

func ExampleEngine_Fit() {
	points := []stdbscan.Point{
		{ID: 1, Lat: 35.6800, Lon: 139.7600, Time: 0, Value: 3.2},
		{ID: 2, Lat: 35.6830, Lon: 139.7620, Time: 0, Value: 4.1},
		{ID: 3, Lat: 35.6810, Lon: 139.7650, Time: 0, Value: 2.7},
		{ID: 4, Lat: 36.5000, Lon: 139.7600, Time: 0, Value: 1.5},
		{ID: 5, Lat: 35.6800, Lon: 140.5000, Time: 0, Value: 1.1},
	}

	engine, err := stdbscan.New(stdbscan.Params{EpsSpace: 5, EpsTime: 0, MinPts: 3})
	if err != nil {
		panic(err)
	}
	res, err := engine.Fit(points)
	if err != nil {
		panic(err)
	}

	stats := res.Statistics()
	fmt.Println("labels:", res.Labels())
	fmt.Println("clusters:", stats.ClusterCount, "sizes:", stats.ClusterSizes)
	fmt.Printf("noise: %d (%.1f)\n", stats.NoiseCount, stats.NoiseRatio)
	// Output:
	// labels: [cluster-1 cluster-1 cluster-1 noise noise]
	// clusters: 1 sizes: [3]
	// noise: 2 (0.4)
}

func ExampleNew_invalid() {
	_, err := stdbscan.New(stdbscan.Params{EpsSpace: 5, EpsTime: 1, MinPts: 0})
	fmt.Println(err)
	// Output:
	// stdbscan: invalid min_pts 0: must be >= 1
}
