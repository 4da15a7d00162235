package activity

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dpup/routebook/internal/lib/elevation"
	"github.com/dpup/routebook/internal/lib/geo"
	"github.com/dpup/routebook/internal/lib/polyline"
)

// NameSeparator joins activity names on a merged page
const NameSeparator = " / "

// ErrNoActivities is returned when merging an empty group
var ErrNoActivities = errors.New("no activities to merge")

// SelectGroup picks the activities listed in ids, in ids order. Ids with no
// matching activity are returned separately.
func SelectGroup(all []Activity, ids []int64) (selected []Activity, missing []int64) {
	byID := make(map[int64]Activity, len(all))
	for _, a := range all {
		byID[a.ID] = a
	}

	for _, id := range ids {
		a, ok := byID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		selected = append(selected, a)
	}
	return selected, missing
}

// Merge combines activities into one record. Activities are ordered by local
// start time; names are joined, totals summed, and every polyline decoded,
// concatenated and re-encoded into a single route. The input is not modified.
func Merge(activities []Activity) (Merged, error) {
	if len(activities) == 0 {
		return Merged{}, ErrNoActivities
	}

	parts := make([]Activity, len(activities))
	copy(parts, activities)
	sort.SliceStable(parts, func(i, j int) bool {
		return parts[i].StartDateLocal.Before(parts[j].StartDateLocal)
	})

	codec := polyline.NewCodec()
	names := make([]string, 0, len(parts))
	merged := Merged{
		ActivityIDs:    make([]int64, 0, len(parts)),
		StartDateLocal: parts[0].StartDateLocal,
		SegmentLengths: make([]int, 0, len(parts)),
		Parts:          parts,
	}

	for _, a := range parts {
		merged.ActivityIDs = append(merged.ActivityIDs, a.ID)
		names = append(names, a.Name)
		merged.Distance += a.Distance
		merged.ElapsedTime += a.ElapsedTime
		merged.TotalElevationGain += a.TotalElevationGain

		if a.Polyline == "" {
			merged.SegmentLengths = append(merged.SegmentLengths, 0)
			continue
		}

		coords, err := codec.Decode(a.Polyline)
		if err != nil {
			return Merged{}, fmt.Errorf("activity %d: %w", a.ID, err)
		}
		merged.Coordinates = append(merged.Coordinates, coords...)
		merged.SegmentLengths = append(merged.SegmentLengths, len(coords))
	}

	merged.ID = JoinIDs(merged.ActivityIDs)
	merged.Name = strings.Join(names, NameSeparator)
	if len(merged.Coordinates) > 0 {
		merged.Polyline = codec.Encode(merged.Coordinates)
	}

	return merged, nil
}

// Segments returns one elevation segment per merged activity, in merge order.
// The chart is all or nothing: when any activity lacks elevation samples, or
// has neither a recorded distance nor a route to measure, no segments are
// returned. An activity with no recorded distance falls back to the
// great-circle length of its own polyline.
func (m Merged) Segments(geoUtils geo.GeoUtils) ([]elevation.Segment, error) {
	segments := make([]elevation.Segment, 0, len(m.Parts))

	for _, a := range m.Parts {
		if len(a.Elevations) == 0 {
			return nil, nil
		}

		distance := a.Distance
		if distance <= 0 && a.Polyline != "" {
			points, err := geoUtils.DecodePolyline(a.Polyline)
			if err != nil {
				return nil, fmt.Errorf("activity %d: %w", a.ID, err)
			}
			if distance, err = geoUtils.RouteLength(points); err != nil {
				return nil, fmt.Errorf("activity %d: %w", a.ID, err)
			}
		}

		if !(distance > 0) {
			return nil, nil
		}

		seg, err := elevation.NewSegment(a.Elevations, distance)
		if err != nil {
			return nil, fmt.Errorf("activity %d: %w", a.ID, err)
		}
		segments = append(segments, seg)
	}

	return segments, nil
}

// FormatKilometers renders meters as "12.3 Km"
func FormatKilometers(meters float64) string {
	return fmt.Sprintf("%.1f Km", meters/1000)
}

// FormatDuration renders seconds as "H:MM.SS"
func FormatDuration(seconds int64) string {
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	return fmt.Sprintf("%d:%02d.%02d", hours, minutes, seconds%60)
}
