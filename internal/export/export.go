// Package export writes a page's route in map interchange formats.
package export

import (
	"errors"
	"fmt"
	"io"

	"github.com/paulmach/orb/geojson"
	"github.com/twpayne/go-kml/v2"

	"github.com/dpup/routebook/internal/lib/geo"
	"github.com/dpup/routebook/internal/services"
)

// ErrNoRoute is returned for pages whose activities carry no polyline
var ErrNoRoute = errors.New("page has no route")

// WriteGeoJSON writes a FeatureCollection holding the route as a LineString
// and its start as a Point
func WriteGeoJSON(w io.Writer, page *services.PageData) error {
	points, err := routePoints(page)
	if err != nil {
		return err
	}

	fc := geojson.NewFeatureCollection()

	route := geojson.NewFeature(geo.ToLineString(points))
	route.ID = page.ID
	route.Properties["id"] = page.ID
	route.Properties["name"] = page.Name
	route.Properties["distance"] = page.Distance
	route.Properties["elevation_gain"] = page.ElevationGain
	fc.Append(route)

	start := geojson.NewFeature(geo.ToOrbPoint(points[0]))
	start.Properties["id"] = page.ID
	start.Properties["role"] = "start"
	fc.Append(start)

	data, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal geojson: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write geojson: %w", err)
	}
	return nil
}

// WriteKML writes a KML document with a route placemark and a start placemark
func WriteKML(w io.Writer, page *services.PageData) error {
	points, err := routePoints(page)
	if err != nil {
		return err
	}

	coords := make([]kml.Coordinate, len(points))
	for i, p := range points {
		coords[i] = kml.Coordinate{Lon: p.Longitude, Lat: p.Latitude}
	}

	doc := kml.KML(
		kml.Document(
			kml.Name(page.Name),
			kml.Placemark(
				kml.Name(page.Name),
				kml.Description(activitySummary(page)),
				kml.LineString(
					kml.Tessellate(true),
					kml.Coordinates(coords...),
				),
			),
			kml.Placemark(
				kml.Name("Start"),
				kml.Point(
					kml.Coordinates(coords[0]),
				),
			),
		),
	)

	if err := doc.WriteIndent(w, "", "  "); err != nil {
		return fmt.Errorf("failed to write kml: %w", err)
	}
	return nil
}

func routePoints(page *services.PageData) ([]geo.Point, error) {
	if page.Polyline == "" {
		return nil, fmt.Errorf("%s: %w", page.ID, ErrNoRoute)
	}
	points, err := geo.NewGeoUtils().DecodePolyline(page.Polyline)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", page.ID, err)
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%s: %w", page.ID, ErrNoRoute)
	}
	return points, nil
}

func activitySummary(page *services.PageData) string {
	return fmt.Sprintf("%s, %s, %.0f m climbing", page.DistanceText, page.DurationText, page.ElevationGain)
}
