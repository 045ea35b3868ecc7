package domain

import (
	"math"
	"strconv"
)

const earthRadiusKm = 6371.0

// Immutable geographic position in degrees.
type Location struct {
	Lat float64
	Lon float64
}

// Return coordinates as [lon, lat] for external API compatibility.
func (l Location) CoordsToList() []float64 { return []float64{l.Lon, l.Lat} }

// String renders the location as "lat, lon" for customer-facing messages.
func (l Location) String() string {
	return strconv.FormatFloat(l.Lat, 'f', -1, 64) + ", " + strconv.FormatFloat(l.Lon, 'f', -1, 64)
}

// Key is a stable cache key with the precision of about a meter.
func (l Location) Key() string {
	return strconv.FormatFloat(l.Lat, 'f', 5, 64) + "," + strconv.FormatFloat(l.Lon, 'f', 5, 64)
}

// DistanceKm returns the great-circle distance between two locations.
func (l Location) DistanceKm(other Location) float64 {
	dLat := (other.Lat - l.Lat) * math.Pi / 180.0
	dLon := (other.Lon - l.Lon) * math.Pi / 180.0
	lat1r := l.Lat * math.Pi / 180.0
	lat2r := other.Lat * math.Pi / 180.0

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1r)*math.Cos(lat2r)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}
