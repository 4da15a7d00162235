package activity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpup/routebook/internal/lib/elevation"
	"github.com/dpup/routebook/internal/lib/geo"
	"github.com/dpup/routebook/internal/lib/polyline"
)

func testActivities() []Activity {
	morning := time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC)

	return []Activity{
		{
			ID:                 2002,
			Name:               "Descente",
			StartDateLocal:     morning.Add(4 * time.Hour),
			Distance:           1500,
			ElapsedTime:        1800,
			TotalElevationGain: 20,
			Polyline: polyline.Encode([]polyline.Coordinate{
				{Latitude: 46.30, Longitude: 7.50},
				{Latitude: 46.29, Longitude: 7.49},
			}),
			Elevations: []float64{2000, 1600, 1800, 1700, 1400},
		},
		{
			ID:                 1001,
			Name:               "Montée",
			StartDateLocal:     morning,
			Distance:           2000,
			ElapsedTime:        3600,
			TotalElevationGain: 600,
			Polyline: polyline.Encode([]polyline.Coordinate{
				{Latitude: 46.20, Longitude: 7.40},
				{Latitude: 46.25, Longitude: 7.45},
				{Latitude: 46.30, Longitude: 7.50},
			}),
			Elevations: []float64{1000, 1200, 1300, 1100, 1600, 1300, 1200, 1500},
		},
	}
}

func TestMerge(t *testing.T) {
	input := testActivities()

	merged, err := Merge(input)
	require.NoError(t, err)

	assert.Equal(t, "1001_2002", merged.ID)
	assert.Equal(t, []int64{1001, 2002}, merged.ActivityIDs)
	assert.Equal(t, "Montée / Descente", merged.Name)
	assert.Equal(t, 3500.0, merged.Distance)
	assert.Equal(t, int64(5400), merged.ElapsedTime)
	assert.Equal(t, 620.0, merged.TotalElevationGain)
	assert.Equal(t, input[1].StartDateLocal, merged.StartDateLocal)
	assert.Equal(t, []int{3, 2}, merged.SegmentLengths)
	require.Len(t, merged.Coordinates, 5)

	decoded, err := polyline.Decode(merged.Polyline)
	require.NoError(t, err)
	require.Len(t, decoded, 5)
	assert.InDelta(t, 46.20, decoded[0].Latitude, 1e-5)
	assert.InDelta(t, 7.49, decoded[4].Longitude, 1e-5)

	// Input order is left alone
	assert.Equal(t, int64(2002), input[0].ID)
}

func TestMerge_Errors(t *testing.T) {
	_, err := Merge(nil)
	assert.ErrorIs(t, err, ErrNoActivities)

	bad := testActivities()
	bad[0].Polyline = "_p~iF~ps|"
	_, err = Merge(bad)
	assert.ErrorIs(t, err, polyline.ErrMalformedInput)
}

func TestMerge_WithoutPolylines(t *testing.T) {
	activities := testActivities()
	for i := range activities {
		activities[i].Polyline = ""
	}

	merged, err := Merge(activities)
	require.NoError(t, err)
	assert.Empty(t, merged.Polyline)
	assert.Equal(t, []int{0, 0}, merged.SegmentLengths)
}

func TestMerged_Segments(t *testing.T) {
	merged, err := Merge(testActivities())
	require.NoError(t, err)

	segments, err := merged.Segments(geo.NewGeoUtils())
	require.NoError(t, err)
	require.Len(t, segments, 2)
	assert.Equal(t, 2000.0, segments[0].Distance)
	assert.Len(t, segments[0].Samples, 8)
	assert.Equal(t, 1500.0, segments[1].Distance)

	profile, err := elevation.BuildProfile(segments, 200)
	require.NoError(t, err)
	assert.Len(t, profile.SplitColumns(), 1)
}

func TestMerged_SegmentsBackfillDistance(t *testing.T) {
	activities := testActivities()
	activities[0].Distance = 0

	merged, err := Merge(activities)
	require.NoError(t, err)

	segments, err := merged.Segments(geo.NewGeoUtils())
	require.NoError(t, err)
	require.Len(t, segments, 2)
	assert.InDelta(t, 1360, segments[1].Distance, 100, "distance should come from the polyline length")
}

func TestMerged_SegmentsAllOrNothing(t *testing.T) {
	tests := []struct {
		name   string
		mutate func([]Activity)
	}{
		{name: "one activity without elevations", mutate: func(a []Activity) { a[1].Elevations = nil }},
		{name: "first activity without elevations", mutate: func(a []Activity) { a[0].Elevations = []float64{} }},
		{name: "one activity with nothing to measure", mutate: func(a []Activity) {
			a[0].Distance = 0
			a[0].Polyline = ""
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			activities := testActivities()
			tt.mutate(activities)

			merged, err := Merge(activities)
			require.NoError(t, err)

			segments, err := merged.Segments(geo.NewGeoUtils())
			require.NoError(t, err)
			assert.Empty(t, segments, "no partial chart")
		})
	}
}

func TestMerged_SegmentsMeasuresMissingDistance(t *testing.T) {
	activities := testActivities()
	activities[0].Distance = 0

	merged, err := Merge(activities)
	require.NoError(t, err)

	segments, err := merged.Segments(geo.NewGeoUtils())
	require.NoError(t, err)
	require.Len(t, segments, 2)
	assert.Greater(t, segments[0].Distance, 0.0)
}

func TestSelectGroup(t *testing.T) {
	selected, missing := SelectGroup(testActivities(), []int64{1001, 3003, 2002})

	require.Len(t, selected, 2)
	assert.Equal(t, int64(1001), selected[0].ID)
	assert.Equal(t, int64(2002), selected[1].ID)
	assert.Equal(t, []int64{3003}, missing)
}

func TestParseGroups(t *testing.T) {
	groups, err := ParseGroups([]byte(`[[1001, 2002], ["cover"], [42]]`))
	require.NoError(t, err)
	require.Len(t, groups, 3)

	assert.Equal(t, "1001_2002", groups[0].Key())
	assert.False(t, groups[0].FullPage)
	assert.True(t, groups[1].FullPage)
	assert.Equal(t, "cover", groups[1].Key())
	assert.Equal(t, []int64{42}, groups[2].IDs)

	_, err = ParseGroups([]byte(`[[]]`))
	assert.Error(t, err)
}

func TestParseActivities(t *testing.T) {
	activities, err := ParseActivities([]byte(`[{
		"id": 6406797632,
		"name": "Mont Gelé",
		"start_date_local": "2024-09-01T14:30:00Z",
		"distance": 12345.6,
		"elapsed_time": 16200,
		"total_elevation_gain": 1020,
		"polyline": "_p~iF~ps|U_ulLnnqC_mqNvxq` + "`" + `@"
	}]`))
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, int64(6406797632), activities[0].ID)
	assert.Equal(t, 14, activities[0].StartDateLocal.Hour())
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "12.3 Km", FormatKilometers(12345))
	assert.Equal(t, "0.0 Km", FormatKilometers(0))
	assert.Equal(t, "4:30.00", FormatDuration(16200))
	assert.Equal(t, "1:01.05", FormatDuration(3665))
}
