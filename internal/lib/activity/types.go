// Package activity merges the recorded activities of a route group into a
// single page record
package activity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dpup/routebook/internal/lib/polyline"
)

// Activity is one recorded outing as exported from the tracking service
type Activity struct {
	ID                 int64     `json:"id"`
	Name               string    `json:"name"`
	StartDateLocal     time.Time `json:"start_date_local"`
	Distance           float64   `json:"distance"`     // meters
	ElapsedTime        int64     `json:"elapsed_time"` // seconds
	TotalElevationGain float64   `json:"total_elevation_gain"`
	Polyline           string    `json:"polyline"`
	Elevations         []float64 `json:"elevations,omitempty"` // meters, sampled along Polyline
}

// Merged is the combined record for a group of activities shown on one page
type Merged struct {
	ID                 string                `json:"id"`
	ActivityIDs        []int64               `json:"activity_ids"`
	Name               string                `json:"name"`
	StartDateLocal     time.Time             `json:"start_date_local"`
	Distance           float64               `json:"distance"`
	ElapsedTime        int64                 `json:"elapsed_time"`
	TotalElevationGain float64               `json:"total_elevation_gain"`
	Polyline           string                `json:"polyline"`
	Coordinates        []polyline.Coordinate `json:"-"`
	// Coordinate count contributed by each activity, in merged order
	SegmentLengths []int      `json:"elevations_lengths"`
	Parts          []Activity `json:"-"`
}

// Group lists the activity ids rendered together on one page. Groups written
// with string entries are hand-made full pages with no activity data.
type Group struct {
	IDs      []int64
	Labels   []string
	FullPage bool
}

// Key returns the joined id used to name the group's outputs
func (g Group) Key() string {
	if g.FullPage {
		return strings.Join(g.Labels, "_")
	}
	return JoinIDs(g.IDs)
}

// UnmarshalJSON accepts either a list of numeric ids or a list of strings
func (g *Group) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("group must be a list: %w", err)
	}
	if len(raw) == 0 {
		return fmt.Errorf("group is empty")
	}

	*g = Group{}
	if bytes.HasPrefix(bytes.TrimSpace(raw[0]), []byte(`"`)) {
		g.FullPage = true
		return json.Unmarshal(data, &g.Labels)
	}

	return json.Unmarshal(data, &g.IDs)
}

// MarshalJSON writes the group back in the list form it was read from
func (g Group) MarshalJSON() ([]byte, error) {
	if g.FullPage {
		return json.Marshal(g.Labels)
	}
	return json.Marshal(g.IDs)
}

// JoinIDs builds the "id1_id2_..." key for a group
func JoinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, "_")
}

// ParseGroups reads the groups file: a JSON list of id lists
func ParseGroups(data []byte) ([]Group, error) {
	var groups []Group
	if err := json.Unmarshal(data, &groups); err != nil {
		return nil, fmt.Errorf("failed to parse groups: %w", err)
	}
	return groups, nil
}

// ParseActivities reads the activities file: a JSON list of activities
func ParseActivities(data []byte) ([]Activity, error) {
	var activities []Activity
	if err := json.Unmarshal(data, &activities); err != nil {
		return nil, fmt.Errorf("failed to parse activities: %w", err)
	}
	return activities, nil
}
