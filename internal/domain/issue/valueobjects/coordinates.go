package valueobjects

import (
	"fmt"
	"math"
)

// Coordinates is a WGS84 point in degrees.
type Coordinates struct {
	lat float64
	lng float64
}

func NewCoordinates(lat, lng float64) (Coordinates, error) {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lng) || math.IsInf(lng, 0) {
		return Coordinates{}, fmt.Errorf("coordinates must be finite")
	}
	if lat < -90 || lat > 90 {
		return Coordinates{}, fmt.Errorf("latitude %v out of range [-90, 90]", lat)
	}
	if lng < -180 || lng > 180 {
		return Coordinates{}, fmt.Errorf("longitude %v out of range [-180, 180]", lng)
	}
	return Coordinates{lat: lat, lng: lng}, nil
}

func (c Coordinates) Lat() float64 {
	return c.lat
}

func (c Coordinates) Lng() float64 {
	return c.lng
}

func (c Coordinates) String() string {
	return fmt.Sprintf("%.6f, %.6f", c.lat, c.lng)
}
