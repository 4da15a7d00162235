package activity

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"time"
)

// ContentHash fingerprints every field a page is built from. The result does
// not depend on the order of activities.
func ContentHash(activities []Activity) string {
	sorted := make([]Activity, len(activities))
	copy(sorted, activities)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	h := sha256.New()
	for _, a := range sorted {
		fmt.Fprintf(h, "%d|%s|%s|%g|%d|%g|%s|",
			a.ID,
			a.Name,
			a.StartDateLocal.Format(time.RFC3339),
			a.Distance,
			a.ElapsedTime,
			a.TotalElevationGain,
			a.Polyline,
		)
		for _, e := range a.Elevations {
			fmt.Fprintf(h, "%g,", e)
		}
		h.Write([]byte{'\n'})
	}

	return fmt.Sprintf("%x", h.Sum(nil))
}
