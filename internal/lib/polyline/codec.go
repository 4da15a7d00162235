package polyline

import (
	"errors"
	"fmt"

	gopolyline "github.com/twpayne/go-polyline"
)

// Encoded units per degree
const scale = 1e5

// wire is the two-dimensional, precision 5 form of the format
var wire = gopolyline.Codec{Dim: 2, Scale: scale}

// codec implements the Codec interface
type codec struct{}

// NewCodec creates a new Codec implementation
func NewCodec() Codec {
	return &codec{}
}

// Decode decodes every coordinate in the encoded string
func (c *codec) Decode(encoded string) ([]Coordinate, error) {
	return Decode(encoded)
}

// DecodeFirst decodes only the leading coordinate, used when a representative
// point (the route start) is needed without paying for the full decode
func (c *codec) DecodeFirst(encoded string) (Coordinate, error) {
	return DecodeFirst(encoded)
}

// Encode encodes coordinates into the compact string form
func (c *codec) Encode(coords []Coordinate) string {
	return Encode(coords)
}

// Decode is a package-level convenience for NewCodec().Decode. Deltas are
// summed as integers before scaling, so decoded values carry no drift.
func Decode(encoded string) ([]Coordinate, error) {
	if encoded == "" {
		return nil, fmt.Errorf("%w: empty input", ErrMalformedInput)
	}

	flat, _, err := wire.DecodeFlatCoords(make([]float64, 0, len(encoded)/3), []byte(encoded))
	if err != nil {
		return nil, malformed(err)
	}

	coords := make([]Coordinate, len(flat)/2)
	for i := range coords {
		coords[i] = Coordinate{Latitude: flat[2*i], Longitude: flat[2*i+1]}
	}
	return coords, nil
}

// DecodeFirst is a package-level convenience for NewCodec().DecodeFirst
func DecodeFirst(encoded string) (Coordinate, error) {
	coord, _, err := wire.DecodeCoord([]byte(encoded))
	if err != nil {
		return Coordinate{}, malformed(err)
	}
	return Coordinate{Latitude: coord[0], Longitude: coord[1]}, nil
}

// Encode turns coordinates into the compact string form. Each value is rounded
// to 5 decimals and delta-encoded against the previous rounded point.
func Encode(coords []Coordinate) string {
	if len(coords) == 0 {
		return ""
	}

	raw := make([][]float64, len(coords))
	for i, coord := range coords {
		raw[i] = []float64{coord.Latitude, coord.Longitude}
	}

	return string(wire.EncodeCoords(make([]byte, 0, len(coords)*8), raw))
}

// malformed folds the wire-level decoding errors into ErrMalformedInput
func malformed(err error) error {
	switch {
	case errors.Is(err, gopolyline.ErrEmpty):
		return fmt.Errorf("%w: missing value at end of input: %w", ErrMalformedInput, err)
	case errors.Is(err, gopolyline.ErrUnterminatedSequence):
		return fmt.Errorf("%w: truncated group: %w", ErrMalformedInput, err)
	case errors.Is(err, gopolyline.ErrInvalidByte):
		return fmt.Errorf("%w: character outside the alphabet: %w", ErrMalformedInput, err)
	case errors.Is(err, gopolyline.ErrOverflow):
		return fmt.Errorf("%w: value overflows: %w", ErrMalformedInput, err)
	default:
		return fmt.Errorf("%w: %w", ErrMalformedInput, err)
	}
}
