package dataset

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-json"
)

// hourlyTimeLayout is the ISO-8601 minute layout used by hourly forecast
// feeds such as Open-Meteo.
const hourlyTimeLayout = "2006-01-02T15:04"

// GridSeries is the hourly precipitation series of one grid location.
type GridSeries struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Hourly    struct {
		Time          []string   `json:"time"`
		Precipitation []*float64 `json:"precipitation"`
	} `json:"hourly"`
}

// ReadGridSeries decodes a single series object or an array of them.
func ReadGridSeries(r io.Reader) ([]GridSeries, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("grid series: read: %w", err)
	}
	data = bytes.TrimSpace(data)

	if len(data) > 0 && data[0] == '[' {
		var all []GridSeries
		if err := json.Unmarshal(data, &all); err != nil {
			return nil, fmt.Errorf("grid series: decode: %w", err)
		}
		return all, nil
	}
	var one GridSeries
	if err := json.Unmarshal(data, &one); err != nil {
		return nil, fmt.Errorf("grid series: decode: %w", err)
	}
	return []GridSeries{one}, nil
}

// Readings flattens the series into readings, one per hour with a reported
// value. Times without a zone are read as UTC.
func (g GridSeries) Readings() ([]Reading, error) {
	n := min(len(g.Hourly.Time), len(g.Hourly.Precipitation))
	out := make([]Reading, 0, n)
	for i := 0; i < n; i++ {
		v := g.Hourly.Precipitation[i]
		if v == nil {
			continue
		}
		ts, err := parseHourlyTime(g.Hourly.Time[i])
		if err != nil {
			return nil, fmt.Errorf("grid series (%.4f,%.4f) hour %d: %w", g.Latitude, g.Longitude, i, err)
		}
		out = append(out, Reading{
			Lat:   g.Latitude,
			Lon:   g.Longitude,
			Time:  float64(ts.Unix()),
			Value: *v,
		})
	}
	return out, nil
}

func parseHourlyTime(s string) (time.Time, error) {
	if t, err := time.Parse(hourlyTimeLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// Flatten concatenates the readings of every series in order.
func Flatten(series []GridSeries) ([]Reading, error) {
	var all []Reading
	for _, g := range series {
		rs, err := g.Readings()
		if err != nil {
			return nil, err
		}
		all = append(all, rs...)
	}
	return all, nil
}
