package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/banshee-data/stcluster/internal/stdbscan"
)

// DefaultConfigPath is the path to the canonical clustering defaults file.
const DefaultConfigPath = "config/clustering.defaults.json"

// maxConfigFileSize caps the size of a config file (1MB).
const maxConfigFileSize = 1 * 1024 * 1024

// Defaults applied by the Get* accessors when a field is omitted.
const (
	DefaultNeighborIndex          = stdbscan.IndexGrid
	DefaultWorkers                = 1
	DefaultPrecipitationThreshold = 1.0 // mm/h

	// DefaultGridEpsTime replaces the eps_time default for grid-series
	// input, whose times are Unix seconds: one hourly step.
	DefaultGridEpsTime = 3600.0
)

// ClusteringConfig is the JSON clustering configuration. Every field is
// optional; omitted fields fall back to the defaults returned by the Get*
// methods, so partial files are safe.
type ClusteringConfig struct {
	EpsSpaceKm  *float64 `json:"eps_space_km,omitempty"`
	EpsTime     *float64 `json:"eps_time,omitempty"`
	MinPts      *int     `json:"min_pts,omitempty"`
	ExcludeSelf *bool    `json:"exclude_self,omitempty"`
	AbsorbNoise *bool    `json:"absorb_noise,omitempty"`

	NeighborIndex *string `json:"neighbor_index,omitempty"` // brute, grid or kdtree
	Workers       *int    `json:"workers,omitempty"`        // 0 = GOMAXPROCS

	// Ingestion
	PrecipitationThreshold *float64 `json:"precipitation_threshold,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }

// EmptyClusteringConfig returns a config with every field unset.
func EmptyClusteringConfig() *ClusteringConfig {
	return &ClusteringConfig{}
}

// DefaultClusteringConfig returns a config with every field set to its default.
func DefaultClusteringConfig() *ClusteringConfig {
	return &ClusteringConfig{
		EpsSpaceKm:             ptrFloat64(stdbscan.DefaultEpsSpaceKm),
		EpsTime:                ptrFloat64(stdbscan.DefaultEpsTime),
		MinPts:                 ptrInt(stdbscan.DefaultMinPts),
		ExcludeSelf:            ptrBool(false),
		AbsorbNoise:            ptrBool(false),
		NeighborIndex:          ptrString(DefaultNeighborIndex),
		Workers:                ptrInt(DefaultWorkers),
		PrecipitationThreshold: ptrFloat64(DefaultPrecipitationThreshold),
	}
}

// LoadClusteringConfig loads and validates a ClusteringConfig from a JSON
// file. The file must have a .json extension and be at most 1MB.
func LoadClusteringConfig(path string) (*ClusteringConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxConfigFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyClusteringConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the fields that are set. Engine thresholds are checked by
// stdbscan.Params.Validate so the rules live in one place.
func (c *ClusteringConfig) Validate() error {
	if err := c.ToParams().Validate(); err != nil {
		return err
	}

	if c.NeighborIndex != nil {
		if _, err := stdbscan.NewIndex(*c.NeighborIndex); err != nil {
			return err
		}
	}

	if c.Workers != nil && *c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", *c.Workers)
	}

	if c.PrecipitationThreshold != nil {
		v := *c.PrecipitationThreshold
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("precipitation_threshold must be a finite value >= 0, got %v", v)
		}
	}

	return nil
}

// GetEpsSpaceKm returns the eps_space_km value or the default.
func (c *ClusteringConfig) GetEpsSpaceKm() float64 {
	if c.EpsSpaceKm == nil {
		return stdbscan.DefaultEpsSpaceKm
	}
	return *c.EpsSpaceKm
}

// GetEpsTime returns the eps_time value or the default.
func (c *ClusteringConfig) GetEpsTime() float64 {
	if c.EpsTime == nil {
		return stdbscan.DefaultEpsTime
	}
	return *c.EpsTime
}

// GetMinPts returns the min_pts value or the default.
func (c *ClusteringConfig) GetMinPts() int {
	if c.MinPts == nil {
		return stdbscan.DefaultMinPts
	}
	return *c.MinPts
}

// GetExcludeSelf returns the exclude_self value or the default.
func (c *ClusteringConfig) GetExcludeSelf() bool {
	if c.ExcludeSelf == nil {
		return false
	}
	return *c.ExcludeSelf
}

// GetAbsorbNoise returns the absorb_noise value or the default.
func (c *ClusteringConfig) GetAbsorbNoise() bool {
	if c.AbsorbNoise == nil {
		return false
	}
	return *c.AbsorbNoise
}

// GetNeighborIndex returns the neighbor_index value or the default.
func (c *ClusteringConfig) GetNeighborIndex() string {
	if c.NeighborIndex == nil || *c.NeighborIndex == "" {
		return DefaultNeighborIndex
	}
	return *c.NeighborIndex
}

// GetWorkers returns the workers value or the default.
func (c *ClusteringConfig) GetWorkers() int {
	if c.Workers == nil {
		return DefaultWorkers
	}
	return *c.Workers
}

// GetPrecipitationThreshold returns the precipitation_threshold value or the default.
func (c *ClusteringConfig) GetPrecipitationThreshold() float64 {
	if c.PrecipitationThreshold == nil {
		return DefaultPrecipitationThreshold
	}
	return *c.PrecipitationThreshold
}

// ToParams converts the config into engine thresholds.
func (c *ClusteringConfig) ToParams() stdbscan.Params {
	return stdbscan.Params{
		EpsSpace:    c.GetEpsSpaceKm(),
		EpsTime:     c.GetEpsTime(),
		MinPts:      c.GetMinPts(),
		ExcludeSelf: c.GetExcludeSelf(),
		AbsorbNoise: c.GetAbsorbNoise(),
	}
}

// EngineOptions returns the stdbscan options selected by the config.
func (c *ClusteringConfig) EngineOptions() []stdbscan.Option {
	return []stdbscan.Option{
		stdbscan.WithIndexKind(c.GetNeighborIndex()),
		stdbscan.WithWorkers(c.GetWorkers()),
	}
}

// NewEngine builds a stdbscan engine from the config.
func (c *ClusteringConfig) NewEngine() (*stdbscan.Engine, error) {
	return stdbscan.New(c.ToParams(), c.EngineOptions()...)
}
