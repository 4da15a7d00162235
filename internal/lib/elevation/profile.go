package elevation

import (
	"fmt"
	"math"
)

// profileBuilder implements the ProfileBuilder interface
type profileBuilder struct {
	smoothingWindow int
}

// Option configures a ProfileBuilder
type Option func(*profileBuilder)

// WithSmoothingWindow sets the moving-average window. Windows below 2 disable
// smoothing.
func WithSmoothingWindow(window int) Option {
	return func(b *profileBuilder) {
		if window < 0 {
			window = 0
		}
		b.smoothingWindow = window
	}
}

// NewProfileBuilder creates a new ProfileBuilder implementation
func NewProfileBuilder(opts ...Option) ProfileBuilder {
	b := &profileBuilder{smoothingWindow: DefaultSmoothingWindow}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BuildProfile builds a profile with the default smoothing window
func BuildProfile(segments []Segment, chartWidth int) (Profile, error) {
	return NewProfileBuilder().Build(segments, chartWidth)
}

// Build places every segment on the columns proportional to the distance it
// covers, not to how many samples it has, so activities recorded at different
// densities line up by distance traveled.
func (b *profileBuilder) Build(segments []Segment, chartWidth int) (Profile, error) {
	if chartWidth <= 0 {
		return nil, fmt.Errorf("%w: chart width must be positive, got %d", ErrInvalidInput, chartWidth)
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: no segments", ErrInvalidInput)
	}

	totalDistance := 0.0
	for i, seg := range segments {
		if err := seg.Validate(); err != nil {
			return nil, fmt.Errorf("segment %d: %w", i, err)
		}
		totalDistance += seg.Distance
	}
	if !(totalDistance > 0) || math.IsInf(totalDistance, 1) {
		return nil, fmt.Errorf("%w: total distance must be positive, got %v", ErrInvalidInput, totalDistance)
	}

	profile := make(Profile, chartWidth)
	spans := columnSpans(segments, totalDistance, chartWidth)

	for i, seg := range segments {
		span := spans[i]
		altitudes := resample(seg.Samples, span.width())
		altitudes = smooth(altitudes, b.smoothingWindow)

		for k, altitude := range altitudes {
			profile[span.start+k] = append(profile[span.start+k], altitude)
		}
	}

	if err := checkProfile(profile, chartWidth, len(segments)); err != nil {
		return nil, err
	}

	return profile, nil
}

// columnSpan is a half-open range of pixel columns [start, stop)
type columnSpan struct {
	start int
	stop  int
}

func (s columnSpan) width() int {
	return s.stop - s.start
}

// columnSpans converts cumulative distances into column ranges.
//
// Boundary overlap rule: every segment except the last extends one column past
// its own end, so it shares its final column with the first column of the next
// segment. That shared column is the one that ends up holding two altitudes.
func columnSpans(segments []Segment, totalDistance float64, chartWidth int) []columnSpan {
	boundaries := boundaryColumns(segments, totalDistance, chartWidth)
	spans := make([]columnSpan, len(segments))
	last := len(segments) - 1

	for i := range segments {
		start := 0
		if i > 0 {
			start = boundaries[i-1]
		}

		stop := chartWidth
		if i < last {
			stop = boundaries[i] + 1
		}

		spans[i] = columnSpan{start: start, stop: stop}
	}

	return spans
}

// boundaryColumns places the column shared by each pair of adjacent segments.
// Boundaries stay inside the chart and are strictly increasing whenever the
// chart has at least one column per boundary, so no column carries more than
// two values. A segment too short to own a column is widened to one.
func boundaryColumns(segments []Segment, totalDistance float64, chartWidth int) []int {
	inner := len(segments) - 1
	columns := make([]int, inner)

	offset := 0.0
	for i := 0; i < inner; i++ {
		offset += segments[i].Distance
		columns[i] = min(distanceToColumn(offset, totalDistance, chartWidth), chartWidth-1)
	}

	if inner > chartWidth {
		// More boundaries than columns; some of them have to stack
		for i := 1; i < inner; i++ {
			columns[i] = max(columns[i], columns[i-1])
		}
		return columns
	}

	for i := 1; i < inner; i++ {
		columns[i] = max(columns[i], columns[i-1]+1)
	}
	for i := inner - 1; i >= 0; i-- {
		columns[i] = min(columns[i], chartWidth-inner+i)
	}

	return columns
}

// distanceToColumn maps a distance along the route to the nearest column index
func distanceToColumn(distance, totalDistance float64, chartWidth int) int {
	x := int(math.Round(float64(chartWidth) * distance / totalDistance))
	if x < 0 {
		return 0
	}
	if x > chartWidth {
		return chartWidth
	}
	return x
}

// resample stretches or squeezes samples to width values by nearest-index lookup
func resample(samples []float64, width int) []float64 {
	out := make([]float64, width)
	n := len(samples)
	for k := range out {
		out[k] = samples[k*n/width]
	}
	return out
}

// smooth applies a centered moving average over [i-window/2, i+window/2],
// truncated at both ends of the slice
func smooth(values []float64, window int) []float64 {
	half := window / 2
	if half == 0 || len(values) < 2 {
		return values
	}

	out := make([]float64, len(values))
	for i := range values {
		lo := max(0, i-half)
		hi := min(len(values)-1, i+half)

		sum := 0.0
		for _, v := range values[lo : hi+1] {
			sum += v
		}
		out[i] = sum / float64(hi-lo+1)
	}
	return out
}

// checkProfile verifies the column count, that no column was left empty and,
// when every boundary fits on its own column, that none holds more than two
// values
func checkProfile(profile Profile, chartWidth, segmentCount int) error {
	if len(profile) != chartWidth {
		return fmt.Errorf("%w: got %d columns, want %d", ErrInvariantViolation, len(profile), chartWidth)
	}

	separable := segmentCount-1 <= chartWidth
	for x, column := range profile {
		if len(column) == 0 {
			return fmt.Errorf("%w: column %d is empty", ErrInvariantViolation, x)
		}
		if separable && len(column) > 2 {
			return fmt.Errorf("%w: column %d holds %d values", ErrInvariantViolation, x, len(column))
		}
	}
	return nil
}
