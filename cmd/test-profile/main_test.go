package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoute(t *testing.T) {
	points, err := parseRoute("46.2331,7.3606; 46.2920, 7.5350;")
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, 46.2331, points[0].Latitude)
	assert.Equal(t, 7.5350, points[1].Longitude)

	tests := []struct {
		name  string
		route string
	}{
		{"single point", "46.2331,7.3606"},
		{"missing longitude", "46.2331;46.2920,7.5350"},
		{"not a number", "46.2331,east;46.2920,7.5350"},
		{"latitude out of range", "96.2331,7.3606;46.2920,7.5350"},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseRoute(tt.route)
			assert.Error(t, err)
		})
	}
}

func TestParseSegments(t *testing.T) {
	segments, err := parseSegments("1000,1200,1300|1300,900", "2000,1500")
	require.NoError(t, err)
	require.Len(t, segments, 2)
	assert.Equal(t, []float64{1300, 900}, segments[1].Samples)
	assert.Equal(t, 2000.0, segments[0].Distance)

	_, err = parseSegments("1000|900", "2000")
	assert.Error(t, err, "one distance per sample group")

	_, err = parseSegments("1000,x", "2000")
	assert.Error(t, err)

	_, err = parseSegments("1000", "-5")
	assert.Error(t, err)
}
