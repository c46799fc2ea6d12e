package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/banshee-data/stcluster/internal/fsutil"
	"github.com/banshee-data/stcluster/internal/monitoring"
)

// File names written by ExportAll.
const (
	ResultCSVFile  = "clustering_result.csv"
	ResultJSONFile = "clustering_result.json"
	BoundsJSONFile = "cluster_bounds.json"
	ByTimeJSONFile = "clusters_by_time.json"
)

const exportDirPerm = 0o755

// csvHeader is the column order of WriteCSV.
var csvHeader = []string{"id", "lat", "lon", "time", "value", "cluster", "is_noise"}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteCSV writes one row per point in input order. Floats use the shortest
// representation that parses back to the same value.
func (e *Exporter) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range e.Records() {
		row := []string{
			strconv.FormatInt(r.ID, 10),
			formatFloat(r.Lat),
			formatFloat(r.Lon),
			formatFloat(r.Time),
			formatFloat(r.Value),
			strconv.Itoa(int(r.Cluster)),
			strconv.FormatBool(r.IsNoise()),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", r.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeIndentedJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteJSON writes the full Document.
func (e *Exporter) WriteJSON(w io.Writer) error {
	if err := writeIndentedJSON(w, e.Document()); err != nil {
		return fmt.Errorf("encode result json: %w", err)
	}
	return nil
}

// WriteBoundsJSON writes the cluster bounds keyed by cluster id.
func (e *Exporter) WriteBoundsJSON(w io.Writer) error {
	bounds := e.Bounds()
	out := make(map[string]ClusterBounds, len(bounds))
	for id, b := range bounds {
		out[strconv.Itoa(int(id))] = b
	}
	if err := writeIndentedJSON(w, out); err != nil {
		return fmt.Errorf("encode bounds json: %w", err)
	}
	return nil
}

type timePoint struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Value   float64 `json:"value"`
	Cluster int     `json:"cluster"`
}

// WriteByTimeJSON writes {time: {cluster: [points]}} with string keys.
func (e *Exporter) WriteByTimeJSON(w io.Writer) error {
	byTime := e.ByTime()
	out := make(map[string]map[string][]timePoint, len(byTime))
	for t, byLabel := range byTime {
		slot := make(map[string][]timePoint, len(byLabel))
		for label, recs := range byLabel {
			pts := make([]timePoint, len(recs))
			for i, r := range recs {
				pts[i] = timePoint{Lat: r.Lat, Lon: r.Lon, Value: r.Value, Cluster: int(r.Cluster)}
			}
			slot[strconv.Itoa(int(label))] = pts
		}
		out[formatFloat(t)] = slot
	}
	if err := writeIndentedJSON(w, out); err != nil {
		return fmt.Errorf("encode time slices json: %w", err)
	}
	return nil
}

// ExportAll writes every export format into dir, creating it if needed, and
// returns the paths written. Every format is rendered before the first file
// is created, so an encoding failure leaves dir untouched.
func (e *Exporter) ExportAll(fsys fsutil.FileSystem, dir string) ([]string, error) {
	outputs := []struct {
		name  string
		write func(io.Writer) error
	}{
		{ResultCSVFile, e.WriteCSV},
		{ResultJSONFile, e.WriteJSON},
		{BoundsJSONFile, e.WriteBoundsJSON},
		{ByTimeJSONFile, e.WriteByTimeJSON},
	}

	rendered := make([]bytes.Buffer, len(outputs))
	for i, o := range outputs {
		if err := o.write(&rendered[i]); err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Join(dir, o.name), err)
		}
	}

	if err := fsys.MkdirAll(dir, exportDirPerm); err != nil {
		return nil, fmt.Errorf("create export dir %s: %w", dir, err)
	}

	written := make([]string, 0, len(outputs))
	for i, o := range outputs {
		path := filepath.Join(dir, o.name)
		if err := writeFile(fsys, path, &rendered[i]); err != nil {
			return written, err
		}
		monitoring.Debugf("export: wrote %s (%d bytes)", path, rendered[i].Len())
		written = append(written, path)
	}
	monitoring.Logf("export: %d points, %d clusters written to %s", e.res.Len(), e.res.ClusterCount(), dir)
	return written, nil
}

func writeFile(fsys fsutil.FileSystem, path string, content io.Reader) (err error) {
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	if _, err := io.Copy(f, content); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
