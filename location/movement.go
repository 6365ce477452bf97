package location

import "math"

// IsMoving reports whether the average speed over the rolling window
// exceeds the threshold. A single noisy reading does not flip the state.
func IsMoving(windowKmh []float64, thresholdKmh float64) bool {
	if len(windowKmh) == 0 {
		return false
	}
	var sum float64
	for _, s := range windowKmh {
		sum += s
	}
	return sum/float64(len(windowKmh)) > thresholdKmh
}

const earthRadiusKm = 6371.0

// DistanceKm returns the haversine distance between two coordinates.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := rad(lat2 - lat1)
	dLng := rad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func rad(deg float64) float64 { return deg * math.Pi / 180 }
