package stdbscan

import "math"

// EarthRadiusKm is the sphere radius used for great-circle distances.
const EarthRadiusKm = 6371.0

// Haversine returns the great-circle distance in kilometres between two
// (lat, lon) pairs given in degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	sinPhi := math.Sin(dPhi / 2)
	sinLambda := math.Sin(dLambda / 2)
	a := sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLambda*sinLambda
	// Rounding can push a fractionally outside [0, 1] for near-antipodal pairs.
	a = math.Min(1, math.Max(0, a))

	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// SpatialDistance is the great-circle distance between p and q in km.
func SpatialDistance(p, q Point) float64 {
	return Haversine(p.Lat, p.Lon, q.Lat, q.Lon)
}

// TemporalDistance is |p.Time - q.Time| in whatever unit the caller uses.
func TemporalDistance(p, q Point) float64 {
	return math.Abs(p.Time - q.Time)
}

// withinThresholds is the joint ST-DBSCAN neighbourhood test. The cheap
// temporal check runs first.
func withinThresholds(p, q Point, epsSpace, epsTime float64) bool {
	return TemporalDistance(p, q) <= epsTime && SpatialDistance(p, q) <= epsSpace
}

// toECEF maps a (lat, lon) in degrees onto a sphere of EarthRadiusKm,
// returning Earth-centred Cartesian coordinates in km. The straight-line
// (chord) distance between two such vectors never exceeds their great-circle
// distance, which lets the indexes prefilter with a Euclidean radius.
func toECEF(lat, lon float64) [3]float64 {
	phi := lat * math.Pi / 180
	lambda := lon * math.Pi / 180
	cosPhi := math.Cos(phi)
	return [3]float64{
		EarthRadiusKm * cosPhi * math.Cos(lambda),
		EarthRadiusKm * cosPhi * math.Sin(lambda),
		EarthRadiusKm * math.Sin(phi),
	}
}
