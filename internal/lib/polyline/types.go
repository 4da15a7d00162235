// Package polyline encodes and decodes coordinate sequences in the compact
// polyline format (precision 5, signed deltas, zig-zag, 5-bit groups).
package polyline

import "errors"

// ErrMalformedInput is returned when an encoded string cannot be decoded
var ErrMalformedInput = errors.New("malformed polyline")

// Coordinate represents a decoded (latitude, longitude) pair in degrees
type Coordinate struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// Codec defines the polyline wire-format operations
type Codec interface {
	// Decode every coordinate of an encoded string
	Decode(encoded string) ([]Coordinate, error)

	// Decode only the first coordinate, leaving the remainder untouched
	DecodeFirst(encoded string) (Coordinate, error)

	// Encode coordinates, first point relative to (0, 0)
	Encode(coords []Coordinate) string
}

// NewCodec is implemented in codec.go
