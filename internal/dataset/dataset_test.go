package dataset

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/stcluster/internal/stdbscan"
)

func TestFilterPrecipitation(t *testing.T) {
	readings := []Reading{
		{Lat: 35.0, Lon: 139.0, Time: 0, Value: 0.05},
		{Lat: 35.1, Lon: 139.1, Time: 0, Value: 1.0},
		{Lat: 35.2, Lon: 139.2, Time: 3600, Value: 0.99},
		{Lat: 35.3, Lon: 139.3, Time: 3600, Value: 4.5},
	}

	got := FilterPrecipitation(readings, 1.0)
	want := []stdbscan.Point{
		{ID: 0, Lat: 35.1, Lon: 139.1, Time: 0, Value: 1.0},
		{ID: 1, Lat: 35.3, Lon: 139.3, Time: 3600, Value: 4.5},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FilterPrecipitation mismatch (-want +got):\n%s", diff)
	}
}

func TestFilterPrecipitation_Empty(t *testing.T) {
	if got := FilterPrecipitation(nil, 0.1); len(got) != 0 {
		t.Errorf("expected no points, got %d", len(got))
	}
}
