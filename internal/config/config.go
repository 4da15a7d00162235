package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix marks environment overrides, e.g. ROUTEBOOK__CHART__WIDTH=400
const EnvPrefix = "ROUTEBOOK__"

// Config represents the complete pipeline configuration
type Config struct {
	Chart    ChartConfig    `yaml:"chart"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Input    InputConfig    `yaml:"input"`
	Output   OutputConfig   `yaml:"output"`
}

// ChartConfig holds elevation profile settings
type ChartConfig struct {
	Width           int `yaml:"width"`
	SmoothingWindow int `yaml:"smoothing_window"`
}

// PipelineConfig holds worker pool and caching settings
type PipelineConfig struct {
	Workers    int           `yaml:"workers"` // 0 uses GOMAXPROCS
	Sequential bool          `yaml:"sequential"`
	CacheTTL   time.Duration `yaml:"cache_ttl"`
	CacheFile  string        `yaml:"cache_file"` // empty keeps the cache in memory
}

// InputConfig locates the activity export and the page grouping
type InputConfig struct {
	ActivitiesFile string `yaml:"activities_file"`
	GroupsFile     string `yaml:"groups_file"`
}

// OutputConfig controls what gets written per group
type OutputConfig struct {
	PagesDir    string `yaml:"pages_dir"`
	GeoJSON     bool   `yaml:"geojson"`
	KML         bool   `yaml:"kml"`
	MetricsFile string `yaml:"metrics_file"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Chart: ChartConfig{
			Width:           200,
			SmoothingWindow: 2,
		},
		Pipeline: PipelineConfig{
			CacheTTL:  time.Hour,
			CacheFile: ".routebook_cache.json",
		},
		Input: InputConfig{
			ActivitiesFile: "activities_clean.json",
			GroupsFile:     "activities_ids.json",
		},
		Output: OutputConfig{
			PagesDir: "pages",
			GeoJSON:  true,
		},
	}
}

// defaults flattens DefaultConfig into koanf keys
func defaults() map[string]interface{} {
	d := DefaultConfig()
	return map[string]interface{}{
		"chart.width":            d.Chart.Width,
		"chart.smoothing_window": d.Chart.SmoothingWindow,
		"pipeline.workers":       d.Pipeline.Workers,
		"pipeline.sequential":    d.Pipeline.Sequential,
		"pipeline.cache_ttl":     d.Pipeline.CacheTTL.String(),
		"pipeline.cache_file":    d.Pipeline.CacheFile,
		"input.activities_file":  d.Input.ActivitiesFile,
		"input.groups_file":      d.Input.GroupsFile,
		"output.pages_dir":       d.Output.PagesDir,
		"output.geojson":         d.Output.GeoJSON,
		"output.kml":             d.Output.KML,
		"output.metrics_file":    d.Output.MetricsFile,
	}
}

// Load layers defaults, the optional YAML file at path and ROUTEBOOK__
// environment variables, in that order. An empty path skips the file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// envKey maps ROUTEBOOK__CHART__SMOOTHING_WINDOW to chart.smoothing_window
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

// Validate checks that required fields are present and sane
func (c *Config) Validate() error {
	var errs []error

	if c.Chart.Width <= 0 {
		errs = append(errs, fmt.Errorf("chart.width must be positive, got %d", c.Chart.Width))
	}
	if c.Chart.SmoothingWindow < 0 {
		errs = append(errs, fmt.Errorf("chart.smoothing_window must not be negative, got %d", c.Chart.SmoothingWindow))
	}
	if c.Pipeline.Workers < 0 {
		errs = append(errs, fmt.Errorf("pipeline.workers must not be negative, got %d", c.Pipeline.Workers))
	}
	if c.Pipeline.CacheTTL < 0 {
		errs = append(errs, fmt.Errorf("pipeline.cache_ttl must not be negative, got %v", c.Pipeline.CacheTTL))
	}
	if c.Input.ActivitiesFile == "" {
		errs = append(errs, errors.New("input.activities_file is required"))
	}
	if c.Input.GroupsFile == "" {
		errs = append(errs, errors.New("input.groups_file is required"))
	}
	if c.Output.PagesDir == "" {
		errs = append(errs, errors.New("output.pages_dir is required"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %w", errors.Join(errs...))
	}
	return nil
}
