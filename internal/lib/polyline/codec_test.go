package polyline

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gopolyline "github.com/twpayne/go-polyline"
)

// Reference vector shared by every implementation of this format
const referencePolyline = "_p~iF~ps|U_ulLnnqC_mqNvxq`@"

var referenceCoords = []Coordinate{
	{Latitude: 38.5, Longitude: -120.2},
	{Latitude: 40.7, Longitude: -120.95},
	{Latitude: 43.252, Longitude: -126.453},
}

func assertCoordsInDelta(t *testing.T, expected, actual []Coordinate) {
	t.Helper()
	require.Len(t, actual, len(expected))
	for i := range expected {
		assert.InDelta(t, expected[i].Latitude, actual[i].Latitude, 1e-5, "latitude at %d", i)
		assert.InDelta(t, expected[i].Longitude, actual[i].Longitude, 1e-5, "longitude at %d", i)
	}
}

func TestCodec_DecodeReferenceVector(t *testing.T) {
	codec := NewCodec()

	coords, err := codec.Decode(referencePolyline)
	require.NoError(t, err)
	assertCoordsInDelta(t, referenceCoords, coords)
}

func TestCodec_EncodeReferenceVector(t *testing.T) {
	codec := NewCodec()

	assert.Equal(t, referencePolyline, codec.Encode(referenceCoords))
}

func TestCodec_DecodeFirst(t *testing.T) {
	codec := NewCodec()

	first, err := codec.DecodeFirst(referencePolyline)
	require.NoError(t, err)

	all, err := codec.Decode(referencePolyline)
	require.NoError(t, err)

	assert.Equal(t, all[0], first)

	// Only the leading point has to be well formed
	first, err = codec.DecodeFirst("_p~iF~ps|U_ulL")
	require.NoError(t, err)
	assert.InDelta(t, 38.5, first.Latitude, 1e-5)
	assert.InDelta(t, -120.2, first.Longitude, 1e-5)
}

func TestCodec_EncodeEmpty(t *testing.T) {
	assert.Equal(t, "", NewCodec().Encode(nil))
	assert.Equal(t, "", Encode([]Coordinate{}))
}

func TestCodec_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for n := 1; n <= 50; n++ {
		coords := make([]Coordinate, n)
		for i := range coords {
			coords[i] = Coordinate{
				Latitude:  math.Round((rng.Float64()*180-90)*1e5) / 1e5,
				Longitude: math.Round((rng.Float64()*360-180)*1e5) / 1e5,
			}
		}

		encoded := Encode(coords)
		decoded, err := Decode(encoded)
		require.NoError(t, err, "round trip of %d points", n)
		assertCoordsInDelta(t, coords, decoded)

		// Re-encoding 5-decimal input must be byte-identical
		assert.Equal(t, encoded, Encode(decoded))
	}
}

func TestCodec_RoundsToFivePlaces(t *testing.T) {
	coords := []Coordinate{{Latitude: 46.123456789, Longitude: 7.987654321}}

	decoded, err := Decode(Encode(coords))
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	assert.InDelta(t, 46.12346, decoded[0].Latitude, 1e-9)
	assert.InDelta(t, 7.98765, decoded[0].Longitude, 1e-9)
}

func TestCodec_SmallNegativeDeltas(t *testing.T) {
	coords := []Coordinate{
		{Latitude: 0, Longitude: 0},
		{Latitude: -0.00001, Longitude: 0.00001},
		{Latitude: -0.00002, Longitude: -0.00001},
	}

	decoded, err := Decode(Encode(coords))
	require.NoError(t, err)
	assertCoordsInDelta(t, coords, decoded)
}

// Decoded values must match the wire library bit for bit after the integer
// accumulation, and encoding must be byte-identical
func TestCodec_MatchesWireLibrary(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	coords := make([]Coordinate, 200)
	raw := make([][]float64, len(coords))
	lat, lng := 46.2, 7.3
	for i := range coords {
		lat += (rng.Float64() - 0.5) * 0.01
		lng += (rng.Float64() - 0.5) * 0.01
		lat = math.Round(lat*1e5) / 1e5
		lng = math.Round(lng*1e5) / 1e5
		coords[i] = Coordinate{Latitude: lat, Longitude: lng}
		raw[i] = []float64{lat, lng}
	}

	expected := string(gopolyline.EncodeCoords(raw))
	assert.Equal(t, expected, Encode(coords))

	libCoords, _, err := gopolyline.DecodeCoords([]byte(expected))
	require.NoError(t, err)

	decoded, err := Decode(expected)
	require.NoError(t, err)
	require.Len(t, decoded, len(libCoords))
	for i, c := range libCoords {
		assert.InDelta(t, c[0], decoded[i].Latitude, 1e-9)
		assert.InDelta(t, c[1], decoded[i].Longitude, 1e-9)
	}
}

func TestCodec_MalformedInput(t *testing.T) {
	codec := NewCodec()

	tests := []struct {
		name      string
		encoded   string
		wantCause error
	}{
		{"truncated group", "_p~iF~ps|", gopolyline.ErrUnterminatedSequence},
		{"missing longitude", "_p~iF", gopolyline.ErrEmpty},
		{"character below alphabet", "_p~iF ps|U", gopolyline.ErrInvalidByte},
		{"non-ascii character", "_p~iF~ps|é", gopolyline.ErrInvalidByte},
		{"overlong group", "~~~~~~~~~~~~~~~?", gopolyline.ErrOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Decode(tt.encoded)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedInput)
			assert.ErrorIs(t, err, tt.wantCause)

			_, err = codec.DecodeFirst(tt.encoded)
			assert.ErrorIs(t, err, ErrMalformedInput)
			assert.ErrorIs(t, err, tt.wantCause)
		})
	}
}

func TestCodec_EmptyInput(t *testing.T) {
	_, err := Decode("")
	assert.ErrorIs(t, err, ErrMalformedInput)

	_, err = DecodeFirst("")
	assert.ErrorIs(t, err, ErrMalformedInput)
	assert.ErrorIs(t, err, gopolyline.ErrEmpty)
}

// A 13th group carrying more than the 4 bits left in a 64-bit value must be
// rejected, not truncated
func TestCodec_OverflowOnLastGroup(t *testing.T) {
	// 12 full continuation groups then a final group of 16
	_, err := Decode("____________O?")
	assert.ErrorIs(t, err, ErrMalformedInput)
	assert.ErrorIs(t, err, gopolyline.ErrOverflow)

	// 15 still fits
	_, err = DecodeFirst("____________N?")
	assert.NoError(t, err)
}

func TestCodec_DecodeFirstIgnoresTrailingGarbage(t *testing.T) {
	// The second point is corrupt but never read
	first, err := DecodeFirst("_p~iF~ps|U !")
	require.NoError(t, err)
	assert.InDelta(t, 38.5, first.Latitude, 1e-5)

	_, err = Decode("_p~iF~ps|U !")
	assert.ErrorIs(t, err, ErrMalformedInput)
}
