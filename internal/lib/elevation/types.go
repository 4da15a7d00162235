// Package elevation maps elevation samples of one or more route segments onto
// a fixed-width column grid and picks axis ticks for rendering the result.
package elevation

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidInput is returned for segments or widths that cannot be mapped
	ErrInvalidInput = errors.New("invalid elevation input")

	// ErrInvariantViolation signals a defect in the column mapping arithmetic
	ErrInvariantViolation = errors.New("elevation profile invariant violated")
)

// DefaultSmoothingWindow is the moving-average window used by NewProfileBuilder
const DefaultSmoothingWindow = 2

// Segment is one activity's altitude samples (meters) and the distance
// (meters) they were recorded over
type Segment struct {
	Samples  []float64 `json:"samples"`
	Distance float64   `json:"distance_m"`
}

// NewSegment validates samples and distance. The sample slice is copied.
func NewSegment(samples []float64, distance float64) (Segment, error) {
	seg := Segment{Samples: append([]float64(nil), samples...), Distance: distance}
	if err := seg.Validate(); err != nil {
		return Segment{}, err
	}
	return seg, nil
}

// Validate checks the non-empty samples and positive distance invariants
func (s Segment) Validate() error {
	if len(s.Samples) == 0 {
		return fmt.Errorf("%w: segment has no elevation samples", ErrInvalidInput)
	}
	if !(s.Distance > 0) || math.IsInf(s.Distance, 1) {
		return fmt.Errorf("%w: segment distance must be positive, got %v", ErrInvalidInput, s.Distance)
	}
	return nil
}

// Profile holds one entry per pixel column. A column carries two altitudes
// where two adjacent segments meet, one otherwise.
type Profile [][]float64

// Width returns the number of columns
func (p Profile) Width() int {
	return len(p)
}

// SplitColumns returns the indices of columns shared by two segments
func (p Profile) SplitColumns() []int {
	var splits []int
	for x, column := range p {
		if len(column) > 1 {
			splits = append(splits, x)
		}
	}
	return splits
}

// Points flattens the profile into (column, altitude) pairs in drawing order
func (p Profile) Points() []ProfilePoint {
	points := make([]ProfilePoint, 0, len(p))
	for x, column := range p {
		for _, altitude := range column {
			points = append(points, ProfilePoint{X: x, Altitude: altitude})
		}
	}
	return points
}

// AltitudeRange returns the lowest and highest altitude in the profile and the
// span between them. A flat profile reports a span of 1 so callers can scale
// by it without dividing by zero.
func (p Profile) AltitudeRange() (min, max, span float64) {
	min, max = math.Inf(1), math.Inf(-1)
	for _, column := range p {
		for _, altitude := range column {
			min = math.Min(min, altitude)
			max = math.Max(max, altitude)
		}
	}
	if math.IsInf(min, 1) {
		return 0, 0, 1
	}

	span = max - min
	if span == 0 {
		span = 1
	}
	return min, max, span
}

// ProfilePoint is one drawable vertex of a profile
type ProfilePoint struct {
	X        int     `json:"x"`
	Altitude float64 `json:"altitude"`
}

// ProfileBuilder maps segments onto pixel columns
type ProfileBuilder interface {
	// Build a profile of exactly chartWidth columns
	Build(segments []Segment, chartWidth int) (Profile, error)
}

// NewProfileBuilder is implemented in profile.go
