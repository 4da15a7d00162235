package geo

import "github.com/dpup/routebook/internal/lib/polyline"

// Point represents a geographic coordinate
type Point = polyline.Coordinate

// Bounds is the smallest latitude/longitude box containing a route
type Bounds struct {
	SouthWest Point `json:"south_west"`
	NorthEast Point `json:"north_east"`
}

// GeoUtils interface defines geographic calculation utilities
type GeoUtils interface {
	// Calculate great-circle distance between two points in meters
	PointToPoint(p1, p2 Point) (float64, error)

	// Sum of great-circle distances along the points in meters
	RouteLength(points []Point) (float64, error)

	// Bounding box of the points
	Bounds(points []Point) (Bounds, error)

	// Decode polyline string to point sequence
	DecodePolyline(encoded string) ([]Point, error)

	// Encode point sequence to polyline string
	EncodePolyline(points []Point) string

	// Decode only the first point of a polyline (the route start)
	StartPoint(encoded string) (Point, error)
}

// NewGeoUtils is implemented in geo.go
