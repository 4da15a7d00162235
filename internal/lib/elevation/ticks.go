package elevation

import "math"

// MaxAltitudeTicks bounds the number of labels on the altitude axis
const MaxAltitudeTicks = 5

// tickThreshold maps a bound to a tick interval
type tickThreshold struct {
	bound    float64
	interval float64
}

// Checked in order with <=, last entry is the fallback
var distanceIntervals = []tickThreshold{
	{bound: 5, interval: 1},
	{bound: 10, interval: 2},
	{bound: 20, interval: 5},
	{bound: math.Inf(1), interval: 10},
}

// Checked in order with >, first match wins
var altitudeIntervals = []tickThreshold{
	{bound: 4000, interval: 1000},
	{bound: 1000, interval: 500},
	{bound: 400, interval: 200},
	{bound: 200, interval: 100},
	{bound: 100, interval: 50},
}

const fallbackAltitudeInterval = 20

// DistanceTickInterval picks the distance axis interval in kilometers
func DistanceTickInterval(totalKm float64) float64 {
	for _, t := range distanceIntervals {
		if totalKm <= t.bound {
			return t.interval
		}
	}
	return distanceIntervals[len(distanceIntervals)-1].interval
}

// DistanceTicks lists the labelled kilometer marks along the distance axis.
// The origin is left unlabelled and no mark goes past the route's end.
func DistanceTicks(totalKm float64) []float64 {
	if !(totalKm > 0) || math.IsInf(totalKm, 1) {
		return nil
	}

	interval := DistanceTickInterval(totalKm)
	var ticks []float64
	for k := 1; ; k++ {
		tick := float64(k) * interval
		if tick > totalKm {
			break
		}
		ticks = append(ticks, tick)
	}
	return ticks
}

// AltitudeTickInterval picks the altitude axis interval in meters for a range
func AltitudeTickInterval(rangeM float64) float64 {
	for _, t := range altitudeIntervals {
		if rangeM > t.bound {
			return t.interval
		}
	}
	return fallbackAltitudeInterval
}

// AltitudeTicks returns at most MaxAltitudeTicks multiples of the chosen
// interval inside [minM, maxM], in increasing order
func AltitudeTicks(minM, maxM float64) []float64 {
	if math.IsNaN(minM) || math.IsNaN(maxM) || math.IsInf(minM, 0) || math.IsInf(maxM, 0) || minM > maxM {
		return nil
	}

	span := maxM - minM
	if span == 0 {
		span = 1
	}
	interval := AltitudeTickInterval(span)

	first := math.Ceil(minM/interval) * interval
	last := math.Floor(maxM/interval) * interval
	if first > last {
		return nil
	}

	count := int(math.Round((last-first)/interval)) + 1
	ticks := make([]float64, count)
	for i := range ticks {
		ticks[i] = first + float64(i)*interval
	}

	return downsampleTicks(ticks)
}

// downsampleTicks keeps every stride-th tick starting with the first. The
// stride is rounded up so the result never exceeds MaxAltitudeTicks; the last
// tick may be dropped.
func downsampleTicks(ticks []float64) []float64 {
	if len(ticks) <= MaxAltitudeTicks {
		return ticks
	}

	stride := (len(ticks) + MaxAltitudeTicks - 1) / MaxAltitudeTicks
	kept := make([]float64, 0, MaxAltitudeTicks)
	for i := 0; i < len(ticks); i += stride {
		kept = append(kept, ticks[i])
	}
	return kept
}
