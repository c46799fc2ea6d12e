// Command stcluster runs ST-DBSCAN over a point file, an hourly grid-series
// file or a synthetic rain-cloud scene, prints a summary, and optionally
// exports the result and stores it in SQLite.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/banshee-data/stcluster/internal/config"
	"github.com/banshee-data/stcluster/internal/dataset"
	"github.com/banshee-data/stcluster/internal/db"
	"github.com/banshee-data/stcluster/internal/export"
	"github.com/banshee-data/stcluster/internal/fsutil"
	"github.com/banshee-data/stcluster/internal/monitoring"
	"github.com/banshee-data/stcluster/internal/security"
	"github.com/banshee-data/stcluster/internal/stdbscan"
	"github.com/banshee-data/stcluster/internal/version"
)

// Options holds the parsed command line.
type Options struct {
	Input      string
	Grid       bool
	ConfigPath string
	EpsSpace   float64
	EpsTime    float64
	MinPts     int
	Absorb     bool
	Index      string
	Workers    int
	Threshold  float64
	Synthetic  bool
	Seed       uint64
	StartStep  int
	Steps      int
	Sweep      string
	OutDir     string
	DBPath     string
	Name       string
	Verbose    bool
	Version    bool

	set map[string]bool // flags given explicitly
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatalf("Invalid arguments: %v", err)
	}
	if opts.Version {
		fmt.Println(version.String())
		return
	}
	monitoring.SetVerbose(opts.Verbose)

	if err := run(opts, os.Stdout); err != nil {
		log.Fatalf("stcluster: %v", err)
	}
}

func parseFlags(args []string) (Options, error) {
	var opts Options
	fs := flag.NewFlagSet("stcluster", flag.ContinueOnError)

	fs.StringVar(&opts.Input, "input", "", "Point file (.csv or .json), or grid-series JSON with -grid")
	fs.BoolVar(&opts.Grid, "grid", false, "Read -input as hourly grid-series JSON and apply -threshold")
	fs.StringVar(&opts.ConfigPath, "config", "", "Clustering config JSON (defaults apply when omitted)")
	fs.Float64Var(&opts.EpsSpace, "eps-space", stdbscan.DefaultEpsSpaceKm, "Spatial radius in km")
	fs.Float64Var(&opts.EpsTime, "eps-time", stdbscan.DefaultEpsTime,
		"Temporal radius in point time units (seconds with -grid, where it defaults to 3600)")
	fs.IntVar(&opts.MinPts, "min-pts", stdbscan.DefaultMinPts, "Minimum neighbourhood size for a core point")
	fs.BoolVar(&opts.Absorb, "absorb-noise", false, "Let every core point claim neighbours already labelled noise")
	fs.StringVar(&opts.Index, "index", config.DefaultNeighborIndex, "Neighbour index: brute, grid or kdtree")
	fs.IntVar(&opts.Workers, "workers", config.DefaultWorkers, "Neighbour precompute workers (0 = all CPUs)")
	fs.Float64Var(&opts.Threshold, "threshold", config.DefaultPrecipitationThreshold, "Minimum precipitation (mm/h) kept from grid input")
	fs.BoolVar(&opts.Synthetic, "synthetic", false, "Cluster a generated rain-cloud scene instead of -input")
	fs.Uint64Var(&opts.Seed, "seed", dataset.DefaultRainCloudConfig().Seed, "Seed for -synthetic")
	fs.IntVar(&opts.StartStep, "start-step", 0, "Skip this many distinct time values before clustering")
	fs.IntVar(&opts.Steps, "steps", 0, "Cluster at most this many distinct time values (0 = all)")
	fs.StringVar(&opts.Sweep, "sweep", "", "Compare parameter sets eps_space:eps_time:min_pts[,...] instead of a single run")
	fs.StringVar(&opts.OutDir, "out", "", "Directory to export results into")
	fs.StringVar(&opts.DBPath, "db", "", "SQLite database to store the run in")
	fs.StringVar(&opts.Name, "name", "", "Run name (also the export subdirectory)")
	fs.BoolVar(&opts.Verbose, "verbose", false, "Enable debug logging")
	fs.BoolVar(&opts.Version, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 0 {
		return opts, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	opts.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })
	return opts, nil
}

// resolveConfig loads the config file, if any, and applies explicit flags
// on top of it.
func resolveConfig(opts Options) (*config.ClusteringConfig, error) {
	cfg := config.DefaultClusteringConfig()
	if opts.ConfigPath != "" {
		loaded, err := config.LoadClusteringConfig(opts.ConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if opts.Grid && (opts.ConfigPath == "" || cfg.EpsTime == nil) {
		gridEps := config.DefaultGridEpsTime
		cfg.EpsTime = &gridEps
	}

	if opts.set["eps-space"] {
		cfg.EpsSpaceKm = &opts.EpsSpace
	}
	if opts.set["eps-time"] {
		cfg.EpsTime = &opts.EpsTime
	}
	if opts.set["min-pts"] {
		cfg.MinPts = &opts.MinPts
	}
	if opts.set["absorb-noise"] {
		cfg.AbsorbNoise = &opts.Absorb
	}
	if opts.set["index"] {
		cfg.NeighborIndex = &opts.Index
	}
	if opts.set["workers"] {
		cfg.Workers = &opts.Workers
	}
	if opts.set["threshold"] {
		cfg.PrecipitationThreshold = &opts.Threshold
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadPoints reads the selected source and applies the time step window.
func loadPoints(opts Options, cfg *config.ClusteringConfig) ([]stdbscan.Point, error) {
	points, err := readPoints(opts, cfg)
	if err != nil {
		return nil, err
	}
	if opts.StartStep != 0 || opts.Steps != 0 {
		if opts.StartStep < 0 || opts.Steps < 0 {
			return nil, errors.New("-start-step and -steps must be non-negative")
		}
		n := len(points)
		points = dataset.SelectTimeSteps(points, opts.StartStep, opts.Steps)
		monitoring.Debugf("time steps %d+%d: kept %d of %d points", opts.StartStep, opts.Steps, len(points), n)
	}
	return points, nil
}

func readPoints(opts Options, cfg *config.ClusteringConfig) ([]stdbscan.Point, error) {
	switch {
	case opts.Synthetic:
		scene := dataset.DefaultRainCloudConfig()
		scene.Seed = opts.Seed
		return dataset.GenerateRainClouds(scene)
	case opts.Input == "":
		return nil, errors.New("either -input or -synthetic is required")
	case opts.Grid:
		f, err := os.Open(opts.Input)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", opts.Input, err)
		}
		defer f.Close()
		series, err := dataset.ReadGridSeries(f)
		if err != nil {
			return nil, err
		}
		readings, err := dataset.Flatten(series)
		if err != nil {
			return nil, err
		}
		points := dataset.FilterPrecipitation(readings, cfg.GetPrecipitationThreshold())
		monitoring.Debugf("grid input: %d readings, %d at or above %.2f mm/h",
			len(readings), len(points), cfg.GetPrecipitationThreshold())
		return points, nil
	default:
		return dataset.LoadFile(opts.Input)
	}
}

func run(opts Options, out io.Writer) error {
	cfg, err := resolveConfig(opts)
	if err != nil {
		return err
	}
	points, err := loadPoints(opts, cfg)
	if err != nil {
		return err
	}
	if opts.Sweep != "" {
		return runSweep(opts, cfg, points, out)
	}

	engine, err := cfg.NewEngine()
	if err != nil {
		return err
	}
	monitoring.Debugf("clustering %d points with %+v (index %s, workers %d)",
		len(points), engine.Params(), cfg.GetNeighborIndex(), cfg.GetWorkers())

	done := monitoring.Timed("fit")
	res, err := engine.Fit(points)
	done()
	if err != nil {
		return fmt.Errorf("clustering failed: %w", err)
	}
	printSummary(out, res)

	if opts.OutDir != "" {
		dir := opts.OutDir
		if opts.Name != "" {
			dir = filepath.Join(dir, security.SanitizeFilename(opts.Name))
		}
		if _, err := export.New(res).ExportAll(fsutil.OSFileSystem{}, dir); err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
	}

	if opts.DBPath != "" {
		database, err := db.Open(opts.DBPath)
		if err != nil {
			return err
		}
		defer database.Close()

		name := opts.Name
		if name == "" {
			name = filepath.Base(opts.Input)
			if opts.Synthetic {
				name = fmt.Sprintf("synthetic-%d", opts.Seed)
			}
		}
		saved, err := db.NewRunStore(database).SaveRun(name, res)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "run:      %s (%s)\n", saved.RunID, saved.Name)
	}
	return nil
}

// parseSweep reads comma separated eps_space:eps_time:min_pts triples. The
// remaining thresholds are taken from base.
func parseSweep(list string, base stdbscan.Params) ([]stdbscan.Params, error) {
	var sets []stdbscan.Params
	for _, item := range strings.Split(list, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		fields := strings.Split(item, ":")
		if len(fields) != 3 {
			return nil, fmt.Errorf("sweep entry %q: want eps_space:eps_time:min_pts", item)
		}
		p := base
		var err error
		if p.EpsSpace, err = strconv.ParseFloat(fields[0], 64); err != nil {
			return nil, fmt.Errorf("sweep entry %q: eps_space: %w", item, err)
		}
		if p.EpsTime, err = strconv.ParseFloat(fields[1], 64); err != nil {
			return nil, fmt.Errorf("sweep entry %q: eps_time: %w", item, err)
		}
		if p.MinPts, err = strconv.Atoi(fields[2]); err != nil {
			return nil, fmt.Errorf("sweep entry %q: min_pts: %w", item, err)
		}
		sets = append(sets, p)
	}
	if len(sets) == 0 {
		return nil, errors.New("sweep: no parameter sets given")
	}
	return sets, nil
}

// runSweep clusters points once per parameter set and prints one line each.
func runSweep(opts Options, cfg *config.ClusteringConfig, points []stdbscan.Point, out io.Writer) error {
	if opts.OutDir != "" || opts.DBPath != "" {
		return errors.New("-sweep cannot be combined with -out or -db")
	}
	sets, err := parseSweep(opts.Sweep, cfg.ToParams())
	if err != nil {
		return err
	}

	done := monitoring.Timed("sweep")
	results, err := stdbscan.Sweep(points, sets, cfg.GetWorkers(), stdbscan.WithIndexKind(cfg.GetNeighborIndex()))
	done()
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}

	fmt.Fprintf(out, "points:   %d\n", len(points))
	for _, res := range results {
		p, s := res.Params(), res.Statistics()
		fmt.Fprintf(out, "eps_space=%g eps_time=%g min_pts=%d: clusters %d, noise %d (%.1f%%), max size %d\n",
			p.EpsSpace, p.EpsTime, p.MinPts, s.ClusterCount, s.NoiseCount, 100*s.NoiseRatio, s.MaxClusterSize)
	}
	return nil
}

func printSummary(w io.Writer, res *stdbscan.Result) {
	s := res.Statistics()
	fmt.Fprintf(w, "points:   %d\n", s.PointCount)
	fmt.Fprintf(w, "clusters: %d\n", s.ClusterCount)
	fmt.Fprintf(w, "noise:    %d (%.1f%%)\n", s.NoiseCount, 100*s.NoiseRatio)
	fmt.Fprintf(w, "core:     %d  border: %d\n", s.CoreCount, s.BorderCount)
	if s.ClusterCount > 0 {
		fmt.Fprintf(w, "sizes:    min %d  avg %.1f  max %d\n", s.MinClusterSize, s.AvgClusterSize, s.MaxClusterSize)
	}
}
