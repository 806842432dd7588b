package geofence

import "math"

// DefaultRadiusMeters applies when a tenant has an office location but no radius.
// Deliberately generous, this is not a small campus radius.
const DefaultRadiusMeters = 3000.0

const earthRadiusMeters = 6371000

// Location is a user-supplied coordinate pair captured at punch time.
type Location struct {
	Latitude  float64
	Longitude float64
}

// OfficeArea is a tenant's registered office reference point. Any field may be
// missing: geofencing is tenant-opt-in, not a mandatory control.
type OfficeArea struct {
	Latitude     *float64
	Longitude    *float64
	RadiusMeters *float64
}

// Haversine returns the great-circle distance between two points in meters.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := (lat2 - lat1) * (math.Pi / 180.0)
	dLng := (lng2 - lng1) * (math.Pi / 180.0)

	lat1Rad := lat1 * (math.Pi / 180.0)
	lat2Rad := lat2 * (math.Pi / 180.0)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLng/2)*math.Sin(dLng/2)*math.Cos(lat1Rad)*math.Cos(lat2Rad)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// IsInsideOffice reports whether user may punch from their location.
//
// A missing or partially configured office returns true: tenants without a
// configured office have geofencing disabled, and that fail-open behavior is a
// policy decision, not a bug. A configured office with a missing user location
// returns false.
func IsInsideOffice(user *Location, office *OfficeArea) bool {
	if office == nil || office.Latitude == nil || office.Longitude == nil {
		return true
	}
	if user == nil {
		return false
	}
	dist, radius := distanceAndRadius(user, office)
	return dist <= radius
}

// DistanceToOffice returns the computed distance in meters and the effective
// radius, for rejection messages. ok is false when either side is missing.
func DistanceToOffice(user *Location, office *OfficeArea) (distance, radius float64, ok bool) {
	if office == nil || office.Latitude == nil || office.Longitude == nil || user == nil {
		return 0, 0, false
	}
	distance, radius = distanceAndRadius(user, office)
	return distance, radius, true
}

func distanceAndRadius(user *Location, office *OfficeArea) (float64, float64) {
	radius := DefaultRadiusMeters
	if office.RadiusMeters != nil && *office.RadiusMeters > 0 {
		radius = *office.RadiusMeters
	}
	return Haversine(user.Latitude, user.Longitude, *office.Latitude, *office.Longitude), radius
}
