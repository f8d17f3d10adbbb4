package gps

import (
	"fmt"
	"math"
)

// earthRadiusKm is the mean Earth radius used by the haversine formula.
const earthRadiusKm = 6371

// Coordinates is a validated GPS position in degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// New validates and returns a GPS position. Latitude must lie in [-90, 90]
// and longitude in [-180, 180].
func New(latitude, longitude float64) (Coordinates, error) {
	if math.IsNaN(latitude) || math.IsNaN(longitude) {
		return Coordinates{}, fmt.Errorf("invalid GPS coordinates (%v, %v)", latitude, longitude)
	}
	if latitude < -90 || latitude > 90 || longitude < -180 || longitude > 180 {
		return Coordinates{}, fmt.Errorf("GPS coordinates out of range (%v, %v)", latitude, longitude)
	}
	return Coordinates{Latitude: latitude, Longitude: longitude}, nil
}

// String renders the position for logs.
func (c Coordinates) String() string {
	return fmt.Sprintf("GPS(%v, %v)", c.Latitude, c.Longitude)
}

// DistanceTo returns the great-circle distance to other in kilometers,
// computed with the haversine formula.
func (c Coordinates) DistanceTo(other Coordinates) float64 {
	phi1 := radians(c.Latitude)
	phi2 := radians(other.Latitude)
	deltaPhi := radians(other.Latitude - c.Latitude)
	deltaLambda := radians(other.Longitude - c.Longitude)

	a := math.Pow(math.Sin(deltaPhi/2), 2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Pow(math.Sin(deltaLambda/2), 2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// MidpointTo returns the great-circle midpoint between c and other.
func (c Coordinates) MidpointTo(other Coordinates) Coordinates {
	lat1 := radians(c.Latitude)
	lon1 := radians(c.Longitude)
	lat2 := radians(other.Latitude)
	dlon := radians(other.Longitude - c.Longitude)

	bx := math.Cos(lat2) * math.Cos(dlon)
	by := math.Cos(lat2) * math.Sin(dlon)
	latMid := math.Atan2(math.Sin(lat1)+math.Sin(lat2),
		math.Sqrt(math.Pow(math.Cos(lat1)+bx, 2)+by*by))
	lonMid := lon1 + math.Atan2(by, math.Cos(lat1)+bx)

	return Coordinates{Latitude: degrees(latMid), Longitude: degrees(lonMid)}
}

// BarycenterTo returns the weighted mean of c (counting for weight
// points) and other (counting for one), the incremental update used when
// a point joins an existing group of `weight` members.
func (c Coordinates) BarycenterTo(other Coordinates, weight float64) Coordinates {
	return Coordinates{
		Latitude:  c.Latitude + (other.Latitude-c.Latitude)/(1+weight),
		Longitude: c.Longitude + (other.Longitude-c.Longitude)/(1+weight),
	}
}

// Barycenter returns the spherical barycenter of points. It panics on an
// empty slice; callers gate on membership.
func Barycenter(points []Coordinates) Coordinates {
	var x, y, z float64
	for _, p := range points {
		lat := radians(p.Latitude)
		lon := radians(p.Longitude)
		x += math.Cos(lat) * math.Cos(lon)
		y += math.Cos(lat) * math.Sin(lon)
		z += math.Sin(lat)
	}

	total := float64(len(points))
	x /= total
	y /= total
	z /= total

	lon := math.Atan2(y, x)
	hyp := math.Sqrt(x*x + y*y)
	lat := math.Atan2(z, hyp)

	return Coordinates{Latitude: degrees(lat), Longitude: degrees(lon)}
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
func degrees(rad float64) float64 { return rad * 180 / math.Pi }
