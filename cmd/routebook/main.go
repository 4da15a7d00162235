package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/multierr"

	"github.com/dpup/routebook/internal/cache"
	"github.com/dpup/routebook/internal/config"
	"github.com/dpup/routebook/internal/export"
	"github.com/dpup/routebook/internal/lib/activity"
	"github.com/dpup/routebook/internal/metrics"
	"github.com/dpup/routebook/internal/services"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "YAML configuration file")
	sequential := pflag.Bool("sequential", false, "Build groups one at a time")
	width := pflag.Int("width", 0, "Elevation chart width in columns (overrides config)")
	groupID := pflag.String("group", "", "Only build the group with this joined id, e.g. 123_456")
	pflag.Parse()

	appConfig, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if pflag.CommandLine.Changed("sequential") {
		appConfig.Pipeline.Sequential = *sequential
	}
	if *width > 0 {
		appConfig.Chart.Width = *width
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	activities, groups, err := readInputs(appConfig.Input)
	if err != nil {
		log.Fatalf("Failed to read inputs: %v", err)
	}

	selected := groups
	if *groupID != "" {
		selected = filterGroups(groups, *groupID)
		if len(selected) == 0 {
			log.Fatalf("Group %s not found in %s", *groupID, appConfig.Input.GroupsFile)
		}
	}

	cacheInstance, err := openCache(ctx, appConfig.Pipeline)
	if err != nil {
		log.Printf("Starting with an empty page cache: %v", err)
	}

	pipelineMetrics := metrics.New()
	pageService := services.NewPageService(activities, cacheInstance, pipelineMetrics, appConfig)

	log.Printf("Building %d pages from %d activities (chart width %d)", len(selected), len(activities), appConfig.Chart.Width)

	pages, buildErr := pageService.BuildPages(ctx, selected)

	writeErr := writePages(appConfig.Output, pages)
	if err := writePageNumbers(appConfig.Output.PagesDir, groups); err != nil {
		writeErr = multierr.Append(writeErr, err)
	}

	if appConfig.Output.MetricsFile != "" {
		if err := pipelineMetrics.WriteTextfile(appConfig.Output.MetricsFile); err != nil {
			writeErr = multierr.Append(writeErr, err)
		}
	}

	if err := saveCache(cacheInstance, appConfig.Pipeline); err != nil {
		writeErr = multierr.Append(writeErr, err)
	}

	stats := cacheInstance.Stats()
	log.Printf("Wrote %d pages to %s (cache hits %d, misses %d)", len(pages), appConfig.Output.PagesDir, stats.Hits, stats.Misses)

	if err := multierr.Combine(buildErr, writeErr); err != nil {
		for _, e := range multierr.Errors(err) {
			log.Printf("Error: %v", e)
		}
		os.Exit(1)
	}
}

// openCache restores the page cache left by a previous run. A snapshot that
// cannot be read still yields a usable empty cache alongside the error.
func openCache(ctx context.Context, cfg config.PipelineConfig) (*cache.Cache, error) {
	c := cache.NewCache()
	if cfg.CacheTTL <= 0 {
		return c, nil
	}
	c.StartPeriodicCleanup(ctx, cfg.CacheTTL)

	if cfg.CacheFile == "" {
		return c, nil
	}
	loaded, err := c.Load(cfg.CacheFile)
	if err != nil {
		return c, err
	}
	if loaded > 0 {
		log.Printf("Restored %d cached pages from %s", loaded, cfg.CacheFile)
	}
	return c, nil
}

// saveCache persists fresh pages for the next run
func saveCache(c *cache.Cache, cfg config.PipelineConfig) error {
	if cfg.CacheTTL <= 0 || cfg.CacheFile == "" {
		return nil
	}
	if dir := filepath.Dir(cfg.CacheFile); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create cache directory: %w", err)
		}
	}
	return c.Save(cfg.CacheFile)
}

func readInputs(cfg config.InputConfig) ([]activity.Activity, []activity.Group, error) {
	data, err := os.ReadFile(cfg.ActivitiesFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read activities: %w", err)
	}
	activities, err := activity.ParseActivities(data)
	if err != nil {
		return nil, nil, err
	}

	data, err = os.ReadFile(cfg.GroupsFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read groups: %w", err)
	}
	groups, err := activity.ParseGroups(data)
	if err != nil {
		return nil, nil, err
	}

	return activities, groups, nil
}

func filterGroups(groups []activity.Group, key string) []activity.Group {
	var matched []activity.Group
	for _, group := range groups {
		if group.Key() == key {
			matched = append(matched, group)
		}
	}
	return matched
}

// writePages writes <pages_dir>/<id>/<id>_page.json and the enabled route exports
func writePages(cfg config.OutputConfig, pages map[string]*services.PageData) error {
	ids := make([]string, 0, len(pages))
	for id := range pages {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var errs error
	for _, id := range ids {
		if err := writePage(cfg, pages[id]); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("page %s: %w", id, err))
		}
	}
	return errs
}

func writePage(cfg config.OutputConfig, page *services.PageData) error {
	dir := filepath.Join(cfg.PagesDir, page.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create page directory: %w", err)
	}

	if err := writeJSON(filepath.Join(dir, page.ID+"_page.json"), page); err != nil {
		return err
	}

	if page.Polyline == "" {
		return nil
	}

	if cfg.GeoJSON {
		if err := writeFile(filepath.Join(dir, page.ID+"_route.geojson"), func(f *os.File) error {
			return export.WriteGeoJSON(f, page)
		}); err != nil {
			return err
		}
	}

	if cfg.KML {
		if err := writeFile(filepath.Join(dir, page.ID+"_route.kml"), func(f *os.File) error {
			return export.WriteKML(f, page)
		}); err != nil {
			return err
		}
	}

	return nil
}

// writePageNumbers maps every group key to its 1-based page number
func writePageNumbers(pagesDir string, groups []activity.Group) error {
	if err := os.MkdirAll(pagesDir, 0o755); err != nil {
		return fmt.Errorf("failed to create pages directory: %w", err)
	}
	return writeJSON(filepath.Join(pagesDir, "page_for_ids.json"), services.PageNumbers(groups))
}

func writeJSON(path string, v interface{}) error {
	return writeFile(path, func(f *os.File) error {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	})
}

func writeFile(path string, write func(*os.File) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, closeErr)
		}
	}()

	if err := write(f); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
