package geo

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// DistanceMeters returns the great-circle (haversine) distance between two
// lon/lat points in meters, as required for node dedupe matching (spec.md
// §4.2 "Distance computations for dedupe use a spherical great-circle
// metric").
func DistanceMeters(lon1, lat1, lon2, lat2 float64) float64 {
	return geo.DistanceHaversine(orb.Point{lon1, lat1}, orb.Point{lon2, lat2})
}
