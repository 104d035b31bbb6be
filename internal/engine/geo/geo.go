// Package geo implements great-circle distance on the WGS84 sphere.
package geo

import (
	"math"

	"github.com/dealmapper/happyhour/internal/core/model"
)

const earthRadiusKm = 6371.0

// DistanceKm returns the haversine great-circle distance between a and b.
func DistanceKm(a, b model.Coordinate) float64 {
	dLat := radians(b.Lat - a.Lat)
	dLon := radians(b.Lon - a.Lon)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(radians(a.Lat))*math.Cos(radians(b.Lat))*sinLon*sinLon

	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// WithinRadius reports whether b lies within radiusKm of a. Degenerate
// input (NaN anywhere) never satisfies the test; a missing coordinate is
// excluded upstream, not defaulted to zero distance.
func WithinRadius(a, b model.Coordinate, radiusKm float64) bool {
	if math.IsNaN(a.Lat) || math.IsNaN(a.Lon) || math.IsNaN(b.Lat) || math.IsNaN(b.Lon) || math.IsNaN(radiusKm) {
		return false
	}
	return DistanceKm(a, b) <= radiusKm
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
