// Package geo provides the distance helpers used by provenance and duplicate checks.
package geo

import "math"

const EarthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance in kilometres between two WGS84 points.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// SquaredPlanarDistance ranks nearby points; it is only meaningful over a few hundred metres.
func SquaredPlanarDistance(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := lat2 - lat1
	dLng := lng2 - lng1
	return dLat*dLat + dLng*dLng
}

// BoundingBox is an axis-aligned box in degrees.
type BoundingBox struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

func BoxAround(lat, lng, radiusDeg float64) BoundingBox {
	return BoundingBox{
		MinLat: lat - radiusDeg,
		MaxLat: lat + radiusDeg,
		MinLng: lng - radiusDeg,
		MaxLng: lng + radiusDeg,
	}
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
