package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/dpup/routebook/internal/lib/activity"
	"github.com/dpup/routebook/internal/lib/elevation"
	"github.com/dpup/routebook/internal/lib/geo"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	geoUtils := geo.NewGeoUtils()

	switch command {
	case "route-length":
		handleRouteLength(geoUtils)
	case "inspect-polyline":
		handleInspectPolyline(geoUtils)
	case "join-polylines":
		handleJoinPolylines(geoUtils)
	case "profile":
		handleProfile()
	case "ticks":
		handleTicks()
	case "help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

// handleRouteLength measures a route given as "lat,lng;lat,lng;..." leg by leg
func handleRouteLength(geoUtils geo.GeoUtils) {
	fs := flag.NewFlagSet("route-length", flag.ExitOnError)
	pointsStr := fs.String("points", "", "Route as \"lat,lng;lat,lng;...\"")

	fs.Parse(os.Args[2:])

	points, err := parseRoute(*pointsStr)
	if err != nil {
		fmt.Println("Example usage:")
		fmt.Println("  test-profile route-length --points \"46.2331,7.3606;46.2920,7.5350;46.3042,7.6310\"")
		log.Fatalf("Error reading route: %v", err)
	}

	total := 0.0
	fmt.Printf("Route legs:\n")
	for i := 1; i < len(points); i++ {
		leg, err := geoUtils.PointToPoint(points[i-1], points[i])
		if err != nil {
			log.Fatalf("Error measuring leg %d: %v", i, err)
		}
		total += leg
		fmt.Printf("  %d -> %d: %s (cumulative %s)\n", i, i+1,
			activity.FormatKilometers(leg), activity.FormatKilometers(total))
	}
	fmt.Printf("  Total: %.0f m, distance ticks every %.0f km\n",
		total, elevation.DistanceTickInterval(total/1000))
}

// handleInspectPolyline shows what a page would take from an encoded route:
// the start marker, the bounds and whether the string re-encodes unchanged
func handleInspectPolyline(geoUtils geo.GeoUtils) {
	fs := flag.NewFlagSet("inspect-polyline", flag.ExitOnError)
	polylineStr := fs.String("polyline", "", "Encoded polyline string")
	verbose := fs.Bool("verbose", false, "List every decoded point")

	fs.Parse(os.Args[2:])

	if *polylineStr == "" {
		fmt.Println("Example usage:")
		fmt.Println("  test-profile inspect-polyline --polyline \"_p~iF~ps|U_ulLnnqC_mqNvxq`@\"")
		os.Exit(1)
	}

	start, err := geoUtils.StartPoint(*polylineStr)
	if err != nil {
		log.Fatalf("Error reading start point: %v", err)
	}
	fmt.Printf("Start marker: %.5f, %.5f\n", start.Latitude, start.Longitude)

	points, err := geoUtils.DecodePolyline(*polylineStr)
	if err != nil {
		log.Fatalf("Start point is readable but the route is not: %v", err)
	}

	bounds, err := geoUtils.Bounds(points)
	if err != nil {
		log.Fatalf("Error computing bounds: %v", err)
	}
	length, err := geoUtils.RouteLength(points)
	if err != nil {
		log.Fatalf("Error measuring route: %v", err)
	}

	reencoded := geoUtils.EncodePolyline(points)

	fmt.Printf("Points: %d, length %s\n", len(points), activity.FormatKilometers(length))
	fmt.Printf("Map bounds: SW %.5f, %.5f  NE %.5f, %.5f\n",
		bounds.SouthWest.Latitude, bounds.SouthWest.Longitude,
		bounds.NorthEast.Latitude, bounds.NorthEast.Longitude)
	fmt.Printf("Re-encoded: %s\n", reencoded)
	if reencoded == *polylineStr {
		fmt.Printf("Canonical: yes\n")
	} else {
		fmt.Printf("Canonical: no (input carries non-minimal groups or extra precision)\n")
	}

	if *verbose {
		for i, point := range points {
			fmt.Printf("  %4d  %.5f, %.5f\n", i, point.Latitude, point.Longitude)
		}
	}
}

// handleJoinPolylines merges several encoded routes the way grouped activities
// are merged onto one page
func handleJoinPolylines(geoUtils geo.GeoUtils) {
	fs := flag.NewFlagSet("join-polylines", flag.ExitOnError)
	routes := fs.StringArray("polyline", nil, "Encoded route, repeat once per activity")

	fs.Parse(os.Args[2:])

	if len(*routes) == 0 {
		fmt.Println("Example usage:")
		fmt.Println("  test-profile join-polylines --polyline \"_p~iF~ps|U_ulLnnqC\" --polyline \"_mqNvxq`@\"")
		os.Exit(1)
	}

	var joined []geo.Point
	lengths := make([]int, 0, len(*routes))
	for i, route := range *routes {
		points, err := geoUtils.DecodePolyline(route)
		if err != nil {
			log.Fatalf("Error decoding route %d: %v", i+1, err)
		}
		joined = append(joined, points...)
		lengths = append(lengths, len(points))
	}

	fmt.Printf("Joined route:\n")
	fmt.Printf("  Points per activity: %v\n", lengths)
	fmt.Printf("  Encoded: %s\n", geoUtils.EncodePolyline(joined))
}

func handleProfile() {
	fs := flag.NewFlagSet("profile", flag.ExitOnError)
	elevationsStr := fs.String("elevations", "", "Samples per segment as \"1,2,3|4,5,6\"")
	distancesStr := fs.String("distances", "", "Segment distances in meters as \"1000,500\"")
	width := fs.Int("width", 40, "Chart width in columns")
	window := fs.Int("window", elevation.DefaultSmoothingWindow, "Moving average window")

	fs.Parse(os.Args[2:])

	if *elevationsStr == "" || *distancesStr == "" {
		fmt.Println("Example usage:")
		fmt.Println("  test-profile profile --elevations \"1000,1200,1300|1300,900\" --distances \"2000,1500\" --width 20")
		os.Exit(1)
	}

	segments, err := parseSegments(*elevationsStr, *distancesStr)
	if err != nil {
		log.Fatalf("Error parsing segments: %v", err)
	}

	builder := elevation.NewProfileBuilder(elevation.WithSmoothingWindow(*window))
	profile, err := builder.Build(segments, *width)
	if err != nil {
		log.Fatalf("Error building profile: %v", err)
	}

	minAltitude, maxAltitude, _ := profile.AltitudeRange()

	fmt.Printf("Elevation profile:\n")
	fmt.Printf("  Segments: %d\n", len(segments))
	fmt.Printf("  Width: %d columns\n", profile.Width())
	fmt.Printf("  Altitude: %.1f to %.1f m\n", minAltitude, maxAltitude)
	fmt.Printf("  Split columns: %v\n", profile.SplitColumns())
	fmt.Printf("  Columns:\n")
	for i, column := range profile {
		values := make([]string, len(column))
		for j, v := range column {
			values[j] = strconv.FormatFloat(v, 'f', 1, 64)
		}
		fmt.Printf("    %3d: %s\n", i, strings.Join(values, ", "))
	}
}

func handleTicks() {
	fs := flag.NewFlagSet("ticks", flag.ExitOnError)
	distanceKm := fs.Float64("distance-km", 0, "Total route distance in km")
	minAltitude := fs.Float64("min", 0, "Minimum altitude in meters")
	maxAltitude := fs.Float64("max", 0, "Maximum altitude in meters")

	fs.Parse(os.Args[2:])

	if *distanceKm == 0 && *minAltitude == 0 && *maxAltitude == 0 {
		fmt.Println("Example usage:")
		fmt.Println("  test-profile ticks --distance-km 42.5 --min 380 --max 2252")
		os.Exit(1)
	}

	fmt.Printf("Axis ticks:\n")
	fmt.Printf("  Distance interval: %.0f km\n", elevation.DistanceTickInterval(*distanceKm))
	fmt.Printf("  Distance ticks: %v\n", elevation.DistanceTicks(*distanceKm))
	fmt.Printf("  Altitude interval: %.0f m\n", elevation.AltitudeTickInterval(*maxAltitude-*minAltitude))
	fmt.Printf("  Altitude ticks: %v\n", elevation.AltitudeTicks(*minAltitude, *maxAltitude))
}

func printUsage() {
	fmt.Printf(`test-profile - Route and elevation profile testing tool

USAGE:
    test-profile <command> [options]

COMMANDS:
    route-length        Measure a route leg by leg
    inspect-polyline    Show start marker, bounds and re-encoding of a route
    join-polylines      Merge encoded routes as a grouped page would
    profile             Build an elevation profile from sample segments
    ticks               Show distance and altitude axis ticks
    help                Show this help message

EXAMPLES:
    # Inspect the reference polyline
    test-profile inspect-polyline --polyline "_p~iF~ps|U_ulLnnqC_mqNvxq`+"`"+`@" --verbose

    # Sion to Sierre to Leuk
    test-profile route-length --points "46.2331,7.3606;46.2920,7.5350;46.3042,7.6310"

    # Two segments on a 20 column chart
    test-profile profile --elevations "1000,1200,1300|1300,900" --distances "2000,1500" --width 20

    # Axis ticks for a mountain stage
    test-profile ticks --distance-km 42.5 --min 380 --max 2252
`)
}

func parseSegments(elevationsStr, distancesStr string) ([]elevation.Segment, error) {
	sampleGroups := strings.Split(elevationsStr, "|")
	distances := strings.Split(distancesStr, ",")
	if len(sampleGroups) != len(distances) {
		return nil, fmt.Errorf("got %d sample groups but %d distances", len(sampleGroups), len(distances))
	}

	segments := make([]elevation.Segment, 0, len(sampleGroups))
	for i, group := range sampleGroups {
		var samples []float64
		for _, field := range strings.Split(group, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("invalid sample: %s", field)
			}
			samples = append(samples, v)
		}

		distance, err := strconv.ParseFloat(strings.TrimSpace(distances[i]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid distance: %s", distances[i])
		}

		seg, err := elevation.NewSegment(samples, distance)
		if err != nil {
			return nil, err
		}
		segments = append(segments, seg)
	}

	return segments, nil
}

// parseRoute reads "lat,lng;lat,lng;..." into at least two validated points
func parseRoute(route string) ([]geo.Point, error) {
	var points []geo.Point
	for i, pair := range strings.Split(route, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		latStr, lngStr, ok := strings.Cut(pair, ",")
		if !ok {
			return nil, fmt.Errorf("point %d: expected lat,lng but got %q", i+1, pair)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i+1, err)
		}
		lng, err := strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i+1, err)
		}

		point, err := geo.NewPoint(lat, lng)
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i+1, err)
		}
		points = append(points, point)
	}

	if len(points) < 2 {
		return nil, fmt.Errorf("a route needs at least two points, got %d", len(points))
	}
	return points, nil
}
