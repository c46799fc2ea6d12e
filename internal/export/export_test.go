package export

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/stcluster/internal/fsutil"
	"github.com/banshee-data/stcluster/internal/monitoring"
	"github.com/banshee-data/stcluster/internal/stdbscan"
)

// sampleResult clusters three points near Tokyo station across two steps and
// leaves two distant points as noise.
func sampleResult(t *testing.T) *stdbscan.Result {
	t.Helper()
	points := []stdbscan.Point{
		{ID: 1, Lat: 35.680, Lon: 139.760, Time: 0, Value: 2},
		{ID: 2, Lat: 35.682, Lon: 139.762, Time: 0, Value: 4},
		{ID: 3, Lat: 35.684, Lon: 139.764, Time: 1, Value: 6},
		{ID: 4, Lat: 36.500, Lon: 139.760, Time: 0, Value: 1.5},
		{ID: 5, Lat: 35.680, Lon: 140.500, Time: 1, Value: 0.25},
	}
	e, err := stdbscan.New(stdbscan.Params{EpsSpace: 1, EpsTime: 1, MinPts: 3})
	require.NoError(t, err)
	res, err := e.Fit(points)
	require.NoError(t, err)
	require.Equal(t, 1, res.ClusterCount())
	return res
}

func quietLogs(t *testing.T) {
	t.Helper()
	orig := monitoring.Logf
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.SetLogger(orig) })
}

func TestRecords(t *testing.T) {
	recs := New(sampleResult(t)).Records()
	require.Len(t, recs, 5)

	labels := make([]stdbscan.Label, len(recs))
	for i, r := range recs {
		labels[i] = r.Cluster
	}
	assert.Equal(t, []stdbscan.Label{1, 1, 1, 0, 0}, labels)
	assert.False(t, recs[0].IsNoise())
	assert.True(t, recs[4].IsNoise())
	assert.Equal(t, int64(5), recs[4].ID)
}

func TestBounds(t *testing.T) {
	bounds := New(sampleResult(t)).Bounds()
	require.Len(t, bounds, 1)

	b := bounds[1]
	assert.Equal(t, 35.680, b.MinLat)
	assert.Equal(t, 35.684, b.MaxLat)
	assert.Equal(t, 139.760, b.MinLon)
	assert.Equal(t, 139.764, b.MaxLon)
	assert.Equal(t, 0.0, b.MinTime)
	assert.Equal(t, 1.0, b.MaxTime)
	assert.InDelta(t, 35.682, b.CenterLat, 1e-9)
	assert.InDelta(t, 139.762, b.CenterLon, 1e-9)
	assert.InDelta(t, 4.0, b.MeanValue, 1e-12)
	assert.Equal(t, 3, b.PointCount)

	_, hasNoise := bounds[stdbscan.Noise]
	assert.False(t, hasNoise)
}

func TestSummariesAndDocument(t *testing.T) {
	res := sampleResult(t)
	doc := New(res).Document()

	assert.Equal(t, 5, doc.Metadata.PointCount)
	assert.Equal(t, 1, doc.Metadata.ClusterCount)
	assert.Equal(t, Parameters{EpsSpaceKm: 1, EpsTime: 1, MinPts: 3}, doc.Metadata.Parameters)
	assert.Equal(t, res.Statistics(), doc.Metadata.Statistics)
	require.Len(t, doc.Clusters, 1)
	assert.Equal(t, stdbscan.Label(1), doc.Clusters[0].ClusterID)
	assert.Equal(t, 3, doc.Clusters[0].PointCount)
}

func TestByTime(t *testing.T) {
	byTime := New(sampleResult(t)).ByTime()
	require.Len(t, byTime, 2)

	at0 := byTime[0]
	assert.Len(t, at0[1], 2)
	assert.Len(t, at0[stdbscan.Noise], 1)

	at1 := byTime[1]
	assert.Len(t, at1[1], 1)
	assert.Equal(t, int64(5), at1[stdbscan.Noise][0].ID)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(sampleResult(t)).WriteCSV(&buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "id,lat,lon,time,value,cluster,is_noise", lines[0])
	assert.Equal(t, "1,35.68,139.76,0,2,1,false", lines[1])
	assert.Equal(t, "5,35.68,140.5,1,0.25,0,true", lines[5])
}

func TestCSVRoundTrip(t *testing.T) {
	exp := New(sampleResult(t))
	var buf bytes.Buffer
	require.NoError(t, exp.WriteCSV(&buf))

	got, err := LoadCSV(&buf)
	require.NoError(t, err)
	if diff := cmp.Diff(exp.Records(), got); diff != "" {
		t.Errorf("csv round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	exp := New(sampleResult(t))
	var buf bytes.Buffer
	require.NoError(t, exp.WriteJSON(&buf))

	doc, err := LoadJSON(&buf)
	require.NoError(t, err)
	if diff := cmp.Diff(exp.Document(), *doc); diff != "" {
		t.Errorf("json round trip mismatch (-want +got):\n%s", diff)
	}

	points, labels := Split(doc.Points)
	res := sampleResult(t)
	assert.Equal(t, res.Points(), points)
	assert.Equal(t, res.Labels(), labels)
}

func TestLoadCSV_Errors(t *testing.T) {
	tests := map[string]string{
		"empty":          "",
		"missing column": "id,lat,lon,time,value\n1,2,3,4,5\n",
		"bad id":         "id,lat,lon,time,value,cluster\nx,1,2,3,4,0\n",
		"bad float":      "id,lat,lon,time,value,cluster\n1,a,2,3,4,0\n",
		"bad cluster":    "id,lat,lon,time,value,cluster\n1,1,2,3,4,c\n",
		"ragged":         "id,lat,lon,time,value,cluster\n1,1,2\n",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadCSV(strings.NewReader(in))
			assert.Error(t, err)
		})
	}
}

func TestExportAll(t *testing.T) {
	quietLogs(t)
	mfs := fsutil.NewMemoryFileSystem()

	written, err := New(sampleResult(t)).ExportAll(mfs, "/out/run")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/out/run/clustering_result.csv",
		"/out/run/clustering_result.json",
		"/out/run/cluster_bounds.json",
		"/out/run/clusters_by_time.json",
	}, written)

	bounds, err := mfs.ReadFile("/out/run/cluster_bounds.json")
	require.NoError(t, err)
	assert.Contains(t, string(bounds), `"1": {`)
	assert.Contains(t, string(bounds), `"n_points": 3`)

	byTime, err := mfs.ReadFile("/out/run/clusters_by_time.json")
	require.NoError(t, err)
	assert.Contains(t, string(byTime), `"0": {`)
	assert.Contains(t, string(byTime), `"1": {`)
}

func TestExportAll_OSFileSystem(t *testing.T) {
	quietLogs(t)
	dir := t.TempDir()

	written, err := New(sampleResult(t)).ExportAll(fsutil.OSFileSystem{}, dir)
	require.NoError(t, err)
	require.Len(t, written, 4)

	data, err := fsutil.OSFileSystem{}.ReadFile(written[0])
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "id,lat,lon,time,value,cluster,is_noise\n"))
}

func TestExportAll_ExtremeFiniteValuesRoundTrip(t *testing.T) {
	quietLogs(t)
	points := []stdbscan.Point{
		{ID: 1, Lat: 35.680, Lon: 139.760, Time: 0, Value: math.MaxFloat64},
		{ID: 2, Lat: -35.680, Lon: -139.760, Time: 1e15, Value: math.SmallestNonzeroFloat64},
		{ID: 3, Lat: 0, Lon: 0, Time: -3600, Value: -1e-300},
	}
	e, err := stdbscan.New(stdbscan.Params{EpsSpace: 1, EpsTime: 1, MinPts: 3})
	require.NoError(t, err)
	res, err := e.Fit(points)
	require.NoError(t, err)

	mfs := fsutil.NewMemoryFileSystem()
	exp := New(res)
	_, err = exp.ExportAll(mfs, "/out")
	require.NoError(t, err)

	data, err := mfs.ReadFile("/out/" + ResultJSONFile)
	require.NoError(t, err)
	doc, err := LoadJSON(bytes.NewReader(data))
	require.NoError(t, err)
	if diff := cmp.Diff(exp.Document(), *doc); diff != "" {
		t.Errorf("json round trip mismatch (-want +got):\n%s", diff)
	}
}

// Two maximal values in one cluster overflow the mean; the failure must be
// reported before anything reaches the filesystem.
func TestExportAll_RenderFailureWritesNothing(t *testing.T) {
	quietLogs(t)
	points := []stdbscan.Point{
		{ID: 1, Lat: 35.680, Lon: 139.760, Value: math.MaxFloat64},
		{ID: 2, Lat: 35.681, Lon: 139.761, Value: math.MaxFloat64},
	}
	e, err := stdbscan.New(stdbscan.Params{EpsSpace: 1, EpsTime: 0, MinPts: 2})
	require.NoError(t, err)
	res, err := e.Fit(points)
	require.NoError(t, err)
	require.Equal(t, 1, res.ClusterCount())

	mfs := fsutil.NewMemoryFileSystem()
	written, err := New(res).ExportAll(mfs, "/out/run")
	require.Error(t, err)
	assert.Empty(t, written)
	assert.Empty(t, mfs.Files())
	_, err = mfs.ReadFile("/out/run/" + ResultCSVFile)
	assert.Error(t, err)
}
