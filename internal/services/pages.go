package services

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	prefaberrors "github.com/dpup/prefab/errors"
	"github.com/dpup/prefab/logging"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/dpup/routebook/internal/cache"
	"github.com/dpup/routebook/internal/config"
	"github.com/dpup/routebook/internal/lib/activity"
	"github.com/dpup/routebook/internal/lib/elevation"
	"github.com/dpup/routebook/internal/lib/geo"
	"github.com/dpup/routebook/internal/metrics"
)

var (
	// ErrFullPage marks hand-made pages that carry no activity data
	ErrFullPage = errors.New("full page group has no activities")

	// ErrUnknownActivities is returned when none of a group's ids are known
	ErrUnknownActivities = errors.New("no known activities in group")
)

// PageData is everything the page renderer needs for one group
type PageData struct {
	ID             string    `json:"id"` // group key
	ActivityIDs    []int64   `json:"activity_ids"`
	Name           string    `json:"name"`
	StartDateLocal time.Time `json:"start_date_local"`
	Distance       float64   `json:"distance"`
	DistanceText   string    `json:"distance_text"`
	ElapsedTime    int64     `json:"elapsed_time"`
	DurationText   string    `json:"duration_text"`
	ElevationGain  float64   `json:"total_elevation_gain"`
	Polyline       string    `json:"polyline,omitempty"`
	SegmentLengths []int     `json:"elevations_lengths"`

	Start  *geo.Point  `json:"start,omitempty"`
	Bounds *geo.Bounds `json:"bounds,omitempty"`

	// Elevation chart, absent unless every activity in the group has samples
	Profile        elevation.Profile `json:"profile,omitempty"`
	SplitColumns   []int             `json:"split_columns,omitempty"`
	MinAltitude    float64           `json:"min_altitude,omitempty"`
	MaxAltitude    float64           `json:"max_altitude,omitempty"`
	ProfileMeters  float64           `json:"profile_distance,omitempty"`
	DistanceTickKm float64           `json:"distance_tick_km,omitempty"`
	DistanceTicks  []float64         `json:"distance_ticks,omitempty"`
	AltitudeTicks  []float64         `json:"altitude_ticks,omitempty"`
}

// HasProfile reports whether an elevation chart was built
func (p *PageData) HasProfile() bool {
	return len(p.Profile) > 0
}

// PageService turns route groups into page data
type PageService struct {
	activities []activity.Activity
	geoUtils   geo.GeoUtils
	builder    elevation.ProfileBuilder
	cache      *cache.Cache
	metrics    *metrics.Metrics
	config     *config.Config
}

// NewPageService creates a page service over an activity export
func NewPageService(activities []activity.Activity, cache *cache.Cache, m *metrics.Metrics, cfg *config.Config) *PageService {
	return &PageService{
		activities: activities,
		geoUtils:   geo.NewGeoUtils(),
		builder:    elevation.NewProfileBuilder(elevation.WithSmoothingWindow(cfg.Chart.SmoothingWindow)),
		cache:      cache,
		metrics:    m,
		config:     cfg,
	}
}

// BuildPage merges one group and computes its route and elevation chart
func (s *PageService) BuildPage(ctx context.Context, group activity.Group) (*PageData, error) {
	if group.FullPage {
		return nil, ErrFullPage
	}

	key := group.Key()
	width := s.config.Chart.Width

	selected, missing := activity.SelectGroup(s.activities, group.IDs)
	if len(selected) == 0 {
		return nil, fmt.Errorf("group %s: %w", key, ErrUnknownActivities)
	}
	if len(missing) > 0 {
		logging.Warnw(ctx, "Group references unknown activities", "group", key, "missing", missing)
	}

	contentHash := activity.ContentHash(selected)

	var cached PageData
	found, err := s.cache.GetPage(key, contentHash, width, &cached)
	if err != nil {
		logging.Warnw(ctx, "Page cache read failed", "group", key, "error", err)
	} else if found {
		s.metrics.CacheHits.Inc()
		s.metrics.PagesBuilt.WithLabelValues(metrics.ResultCached).Inc()
		return &cached, nil
	}

	start := time.Now()
	defer func() {
		s.metrics.PageBuildSeconds.Observe(time.Since(start).Seconds())
	}()

	merged, err := activity.Merge(selected)
	if err != nil {
		return nil, fmt.Errorf("failed to merge group %s: %w", key, err)
	}
	for _, part := range merged.Parts {
		if part.Polyline != "" {
			s.metrics.PolylinesDecoded.Inc()
		}
	}

	page := &PageData{
		ID:             key,
		ActivityIDs:    merged.ActivityIDs,
		Name:           merged.Name,
		StartDateLocal: merged.StartDateLocal,
		Distance:       merged.Distance,
		DistanceText:   activity.FormatKilometers(merged.Distance),
		ElapsedTime:    merged.ElapsedTime,
		DurationText:   activity.FormatDuration(merged.ElapsedTime),
		ElevationGain:  merged.TotalElevationGain,
		Polyline:       merged.Polyline,
		SegmentLengths: merged.SegmentLengths,
	}

	if merged.Polyline != "" {
		if err := s.addRoute(page, merged); err != nil {
			return nil, fmt.Errorf("group %s: %w", key, err)
		}
	}

	if err := s.addProfile(ctx, page, merged, width); err != nil {
		return nil, fmt.Errorf("group %s: %w", key, err)
	}

	if ttl := s.config.Pipeline.CacheTTL; ttl > 0 {
		if err := s.cache.SetPage(key, contentHash, width, page, ttl); err != nil {
			logging.Warnw(ctx, "Page cache write failed", "group", key, "error", err)
		}
	}

	s.metrics.PagesBuilt.WithLabelValues(metrics.ResultBuilt).Inc()
	logging.Debugw(ctx, "Built page", "group", key, "activities", len(merged.Parts), "profile", page.HasProfile())

	return page, nil
}

// addRoute fills the start marker and map bounds
func (s *PageService) addRoute(page *PageData, merged activity.Merged) error {
	startPoint, err := s.geoUtils.StartPoint(merged.Polyline)
	if err != nil {
		return err
	}
	page.Start = &startPoint

	bounds, err := s.geoUtils.Bounds(merged.Coordinates)
	if err != nil {
		return err
	}
	page.Bounds = &bounds

	return nil
}

// addProfile builds the elevation chart and its axis ticks
func (s *PageService) addProfile(ctx context.Context, page *PageData, merged activity.Merged, width int) error {
	segments, err := merged.Segments(s.geoUtils)
	if err != nil {
		return err
	}
	if len(segments) == 0 {
		logging.Infow(ctx, "No elevation data for group", "group", page.ID)
		return nil
	}

	profile, err := s.builder.Build(segments, width)
	if err != nil {
		if errors.Is(err, elevation.ErrInvariantViolation) {
			logging.Errorw(ctx, "Elevation profile invariant violated", "group", page.ID, "error", err)
		}
		return err
	}

	totalMeters := 0.0
	for _, seg := range segments {
		totalMeters += seg.Distance
	}
	totalKm := totalMeters / 1000

	minAltitude, maxAltitude, _ := profile.AltitudeRange()

	page.Profile = profile
	page.SplitColumns = profile.SplitColumns()
	page.MinAltitude = minAltitude
	page.MaxAltitude = maxAltitude
	page.ProfileMeters = totalMeters
	page.DistanceTickKm = elevation.DistanceTickInterval(totalKm)
	page.DistanceTicks = elevation.DistanceTicks(totalKm)
	page.AltitudeTicks = elevation.AltitudeTicks(minAltitude, maxAltitude)

	return nil
}

// BuildPages processes groups concurrently. A failing group does not stop the
// others; failures are returned together and successful pages are keyed by
// group id. Full-page groups are skipped.
func (s *PageService) BuildPages(ctx context.Context, groups []activity.Group) (map[string]*PageData, error) {
	var (
		mu      sync.Mutex
		pages   = make(map[string]*PageData, len(groups))
		failure error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers())

	for _, group := range groups {
		if group.FullPage {
			s.metrics.PagesBuilt.WithLabelValues(metrics.ResultSkipped).Inc()
			logging.Infow(ctx, "Skipping full page", "group", group.Key())
			continue
		}

		g.Go(func() (err error) {
			if err := gctx.Err(); err != nil {
				return err
			}

			defer func() {
				if r := recover(); r != nil {
					stack, _ := prefaberrors.ParseStack(debug.Stack())
					skipFrames := 3
					numFrames := 5
					logging.Errorw(gctx, "Page build: recovered from panic",
						"group", group.Key(), "error", r, "error.stack_trace", stack.MinimalStack(skipFrames, numFrames))
					err = nil
					mu.Lock()
					failure = multierr.Append(failure, fmt.Errorf("group %s: panic: %v", group.Key(), r))
					mu.Unlock()
				}
			}()

			page, buildErr := s.BuildPage(gctx, group)

			mu.Lock()
			defer mu.Unlock()
			if buildErr != nil {
				s.metrics.PagesBuilt.WithLabelValues(metrics.ResultFailed).Inc()
				logging.Errorw(gctx, "Failed to build page", "group", group.Key(), "error", buildErr)
				failure = multierr.Append(failure, buildErr)
				return nil
			}
			pages[page.ID] = page
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return pages, err
	}

	return pages, failure
}

// workers resolves the pool size from configuration
func (s *PageService) workers() int {
	if s.config.Pipeline.Sequential {
		return 1
	}
	if s.config.Pipeline.Workers > 0 {
		return s.config.Pipeline.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// PageNumbers assigns 1-based page numbers to groups in book order
func PageNumbers(groups []activity.Group) map[string]int {
	numbers := make(map[string]int, len(groups))
	for i, group := range groups {
		numbers[group.Key()] = i + 1
	}
	return numbers
}
