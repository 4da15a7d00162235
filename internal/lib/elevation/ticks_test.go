package elevation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceTickInterval_Boundaries(t *testing.T) {
	tests := []struct {
		totalKm  float64
		expected float64
	}{
		{0.5, 1},
		{5.0, 1},
		{5.1, 2},
		{10.0, 2},
		{10.1, 5},
		{20.0, 5},
		{20.1, 10},
		{250, 10},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, DistanceTickInterval(tt.totalKm), "total %v km", tt.totalKm)
	}
}

func TestDistanceTicks(t *testing.T) {
	assert.Equal(t, []float64{1, 2, 3, 4}, DistanceTicks(4.2))
	assert.Equal(t, []float64{5, 10}, DistanceTicks(12.5))
	assert.Equal(t, []float64{10, 20, 30}, DistanceTicks(30))
	assert.Empty(t, DistanceTicks(0.4), "no full kilometer to label")
	assert.Nil(t, DistanceTicks(0))
}

func TestAltitudeTickInterval(t *testing.T) {
	assert.Equal(t, 1000.0, AltitudeTickInterval(4001))
	assert.Equal(t, 500.0, AltitudeTickInterval(4000))
	assert.Equal(t, 200.0, AltitudeTickInterval(1000))
	assert.Equal(t, 100.0, AltitudeTickInterval(400))
	assert.Equal(t, 50.0, AltitudeTickInterval(200))
	assert.Equal(t, 20.0, AltitudeTickInterval(100))
	assert.Equal(t, 20.0, AltitudeTickInterval(1))
}

func TestAltitudeTicks(t *testing.T) {
	assert.Equal(t, []float64{1000, 1200, 1400}, AltitudeTicks(1000, 1500))
	assert.Equal(t, []float64{1020, 1040, 1060, 1080}, AltitudeTicks(1012, 1090))

	// Nine multiples of 500 are thinned to every other one
	assert.Equal(t, []float64{0, 1000, 2000, 3000, 4000}, AltitudeTicks(0, 4000))
}

func TestAltitudeTicks_Degenerate(t *testing.T) {
	assert.Equal(t, []float64{100}, AltitudeTicks(100, 100))
	assert.Empty(t, AltitudeTicks(1234, 1234), "no multiple of 20 in a single point")
	assert.Nil(t, AltitudeTicks(2000, 1000))
	assert.Nil(t, AltitudeTicks(math.NaN(), 10))
}

func TestAltitudeTicks_CountBound(t *testing.T) {
	for min := -500.0; min < 3000; min += 137 {
		for span := 1.0; span < 9000; span *= 1.7 {
			max := min + span
			ticks := AltitudeTicks(min, max)

			assert.LessOrEqual(t, len(ticks), MaxAltitudeTicks, "range [%v, %v]", min, max)
			for i, tick := range ticks {
				assert.GreaterOrEqual(t, tick, min)
				assert.LessOrEqual(t, tick, max)
				if i > 0 {
					assert.Greater(t, tick, ticks[i-1], "ticks must increase")
				}
			}
		}
	}
}
