package geo

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"

	"github.com/dpup/routebook/internal/lib/polyline"
)

// geoUtils implements the GeoUtils interface
type geoUtils struct {
	codec polyline.Codec
}

// NewGeoUtils creates a new GeoUtils implementation
func NewGeoUtils() GeoUtils {
	return &geoUtils{codec: polyline.NewCodec()}
}

// PointToPoint calculates great-circle distance between two points
func (g *geoUtils) PointToPoint(p1, p2 Point) (float64, error) {
	if !isValidCoordinate(p1) || !isValidCoordinate(p2) {
		return 0, errors.New("invalid coordinates: latitude must be [-90, 90], longitude must be [-180, 180]")
	}

	if p1 == p2 {
		return 0, nil
	}

	return orbgeo.Distance(ToOrbPoint(p1), ToOrbPoint(p2)), nil
}

// RouteLength sums the great-circle length of every leg of the route
func (g *geoUtils) RouteLength(points []Point) (float64, error) {
	if len(points) == 0 {
		return 0, errors.New("route has no points")
	}

	for i, point := range points {
		if !isValidCoordinate(point) {
			return 0, fmt.Errorf("invalid coordinates at point %d", i)
		}
	}

	return orbgeo.Length(ToLineString(points)), nil
}

// Bounds returns the bounding box of the points
func (g *geoUtils) Bounds(points []Point) (Bounds, error) {
	if len(points) == 0 {
		return Bounds{}, errors.New("route has no points")
	}

	bound := ToLineString(points).Bound()
	return Bounds{
		SouthWest: Point{Latitude: bound.Min.Lat(), Longitude: bound.Min.Lon()},
		NorthEast: Point{Latitude: bound.Max.Lat(), Longitude: bound.Max.Lon()},
	}, nil
}

// DecodePolyline decodes polyline string to point sequence
func (g *geoUtils) DecodePolyline(encoded string) ([]Point, error) {
	if encoded == "" {
		return nil, errors.New("encoded polyline string is empty")
	}

	points, err := g.codec.Decode(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode polyline: %w", err)
	}

	// Validate decoded coordinates
	for _, point := range points {
		if !isValidCoordinate(point) {
			return nil, errors.New("decoded polyline contains invalid coordinates")
		}
	}

	return points, nil
}

// EncodePolyline encodes points to the compact polyline form
func (g *geoUtils) EncodePolyline(points []Point) string {
	return g.codec.Encode(points)
}

// StartPoint decodes the first point only
func (g *geoUtils) StartPoint(encoded string) (Point, error) {
	if encoded == "" {
		return Point{}, errors.New("encoded polyline string is empty")
	}

	point, err := g.codec.DecodeFirst(encoded)
	if err != nil {
		return Point{}, fmt.Errorf("failed to decode polyline start: %w", err)
	}

	return point, nil
}

// Coordinate Conversion Utilities

// NewPoint creates a Point from latitude and longitude values with validation
func NewPoint(latitude, longitude float64) (Point, error) {
	point := Point{Latitude: latitude, Longitude: longitude}
	if !isValidCoordinate(point) {
		return Point{}, errors.New("invalid coordinates: latitude must be [-90, 90], longitude must be [-180, 180]")
	}
	return point, nil
}

// ToOrbPoint converts to orb's (lon, lat) ordering
func ToOrbPoint(p Point) orb.Point {
	return orb.Point{p.Longitude, p.Latitude}
}

// ToLineString converts a point sequence to an orb LineString
func ToLineString(points []Point) orb.LineString {
	ls := make(orb.LineString, len(points))
	for i, p := range points {
		ls[i] = ToOrbPoint(p)
	}
	return ls
}

// isValidCoordinate validates latitude and longitude values
func isValidCoordinate(point Point) bool {
	return point.Latitude >= -90 && point.Latitude <= 90 &&
		point.Longitude >= -180 && point.Longitude <= 180
}
