// Package extract converts rendered vessel detail pages into structured
// records. It applies an ordered set of extraction strategies per field
// and validates fallback coordinates against a regional geofence.
package extract

import "github.com/fleetops/vesselwatch/internal/metrics"

// Geofence is the bounding box of the expected operating region.
// Fallback coordinate candidates outside the box are discarded.
type Geofence struct {
	LatMin float64
	LatMax float64
	LonMin float64
	LonMax float64
}

// Contains reports whether the coordinate lies inside the box.
func (g Geofence) Contains(lat, lon float64) bool {
	return lat >= g.LatMin && lat <= g.LatMax && lon >= g.LonMin && lon <= g.LonMax
}

// Accept validates a candidate and records rejections. Coordinates must
// be globally valid and inside the operating region.
func (g Geofence) Accept(lat, lon float64) bool {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		metrics.GeofenceRejects.Inc()
		return false
	}
	if !g.Contains(lat, lon) {
		metrics.GeofenceRejects.Inc()
		return false
	}
	return true
}

// Center returns the midpoint of the box, used as the documented regional
// placeholder for synthetic positions.
func (g Geofence) Center() (lat, lon float64) {
	return (g.LatMin + g.LatMax) / 2, (g.LonMin + g.LonMax) / 2
}
