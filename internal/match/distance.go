package match

import "math"

const (
	earthRadiusMiles = 3959.0

	// SentinelDistance stands in for a distance that cannot be computed.
	SentinelDistance = 999999.0
)

// Distance returns the great-circle distance in miles between two points. A
// coordinate that is missing, zero or NaN yields SentinelDistance.
func Distance(lat1, lon1, lat2, lon2 *float64) float64 {
	for _, c := range []*float64{lat1, lon1, lat2, lon2} {
		if missingCoordinate(c) {
			return SentinelDistance
		}
	}
	return Haversine(*lat1, *lon1, *lat2, *lon2)
}

func missingCoordinate(c *float64) bool {
	return c == nil || *c == 0 || math.IsNaN(*c)
}

// Haversine computes the great-circle distance in miles.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMiles * c
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

// roundHalfUp rounds .5 towards positive infinity.
func roundHalfUp(v float64) float64 { return math.Floor(v + 0.5) }
