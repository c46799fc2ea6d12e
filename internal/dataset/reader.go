package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/banshee-data/stcluster/internal/stdbscan"
)

// ErrUnsupportedFormat is returned by LoadFile for extensions other than
// .csv and .json.
var ErrUnsupportedFormat = errors.New("dataset: unsupported file format")

// LoadFile reads points from a .csv or .json file.
func LoadFile(path string) ([]stdbscan.Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(f)
	case ".json":
		return ReadJSON(f)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// ReadCSV reads points from CSV with a header row. Columns are matched by
// name (case-insensitive) and may appear in any order; lat, lon and time are
// required. A missing id column numbers rows from 0 and a missing value
// column leaves Value at zero. Extra columns are ignored.
func ReadCSV(r io.Reader) ([]stdbscan.Point, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New("csv: missing header row")
	}
	if err != nil {
		return nil, fmt.Errorf("csv: read header: %w", err)
	}

	cols := map[string]int{}
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, req := range []string{"lat", "lon", "time"} {
		if _, ok := cols[req]; !ok {
			return nil, fmt.Errorf("csv: missing required column %q", req)
		}
	}

	var points []stdbscan.Point
	for row := 0; ; row++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: row %d: %w", row+1, err)
		}
		p, err := parseRecord(rec, cols, row)
		if err != nil {
			return nil, fmt.Errorf("csv: row %d: %w", row+1, err)
		}
		points = append(points, p)
	}
	return points, nil
}

func parseRecord(rec []string, cols map[string]int, row int) (stdbscan.Point, error) {
	field := func(name string) (string, bool) {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return "", false
		}
		return strings.TrimSpace(rec[i]), true
	}
	float := func(name string) (float64, error) {
		s, ok := field(name)
		if !ok {
			return 0, fmt.Errorf("missing %s", name)
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("parse %s: %w", name, err)
		}
		return v, nil
	}

	p := stdbscan.Point{ID: int64(row)}
	var err error
	if s, ok := field("id"); ok && s != "" {
		if p.ID, err = strconv.ParseInt(s, 10, 64); err != nil {
			return p, fmt.Errorf("parse id: %w", err)
		}
	}
	if p.Lat, err = float("lat"); err != nil {
		return p, err
	}
	if p.Lon, err = float("lon"); err != nil {
		return p, err
	}
	if p.Time, err = float("time"); err != nil {
		return p, err
	}
	if s, ok := field("value"); ok && s != "" {
		if p.Value, err = strconv.ParseFloat(s, 64); err != nil {
			return p, fmt.Errorf("parse value: %w", err)
		}
	}
	return p, nil
}

// pointJSON is the on-disk point shape shared with the exporter. Cluster
// labels written by the exporter are ignored here.
type pointJSON struct {
	ID    *int64  `json:"id"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Time  float64 `json:"time"`
	Value float64 `json:"value"`
}

// ReadJSON reads points from either a bare JSON array or an object with a
// "points" array, the layout written by the exporter. Points without an id
// are numbered by position.
func ReadJSON(r io.Reader) ([]stdbscan.Point, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("json: read: %w", err)
	}
	data = bytes.TrimSpace(data)

	var raw []pointJSON
	if len(data) > 0 && data[0] == '[' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("json: decode points: %w", err)
		}
	} else {
		var doc struct {
			Points []pointJSON `json:"points"`
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("json: decode document: %w", err)
		}
		raw = doc.Points
	}

	points := make([]stdbscan.Point, len(raw))
	for i, p := range raw {
		id := int64(i)
		if p.ID != nil {
			id = *p.ID
		}
		points[i] = stdbscan.Point{ID: id, Lat: p.Lat, Lon: p.Lon, Time: p.Time, Value: p.Value}
	}
	return points, nil
}
