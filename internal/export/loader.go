package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/banshee-data/stcluster/internal/stdbscan"
)

// LoadCSV reads a file written by WriteCSV. The is_noise column is derived
// data and is not required.
func LoadCSV(r io.Reader) ([]PointRecord, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New("load csv: empty input")
	}
	if err != nil {
		return nil, fmt.Errorf("load csv: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}
	for _, name := range csvHeader[:6] {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("load csv: missing column %q", name)
		}
	}

	var out []PointRecord
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("load csv: %w", err)
		}
		var (
			p    PointRecord
			perr error
		)
		parse := func(col string) float64 {
			v, err := strconv.ParseFloat(rec[cols[col]], 64)
			if err != nil && perr == nil {
				perr = fmt.Errorf("line %d: %s: %w", line, col, err)
			}
			return v
		}
		p.ID, err = strconv.ParseInt(rec[cols["id"]], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("load csv: line %d: id: %w", line, err)
		}
		p.Lat, p.Lon, p.Time, p.Value = parse("lat"), parse("lon"), parse("time"), parse("value")
		cluster, err := strconv.Atoi(rec[cols["cluster"]])
		if err != nil {
			return nil, fmt.Errorf("load csv: line %d: cluster: %w", line, err)
		}
		if perr != nil {
			return nil, fmt.Errorf("load csv: %w", perr)
		}
		p.Cluster = stdbscan.Label(cluster)
		out = append(out, p)
	}
}

// LoadJSON reads the points of a Document written by WriteJSON.
func LoadJSON(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("load json: %w", err)
	}
	return &doc, nil
}

// Split separates records into engine points and their labels.
func Split(records []PointRecord) ([]stdbscan.Point, []stdbscan.Label) {
	points := make([]stdbscan.Point, len(records))
	labels := make([]stdbscan.Label, len(records))
	for i, r := range records {
		points[i] = stdbscan.Point{ID: r.ID, Lat: r.Lat, Lon: r.Lon, Time: r.Time, Value: r.Value}
		labels[i] = r.Cluster
	}
	return points, labels
}
