package company

import (
	"time"

	"github.com/attendly-hr/attendly-backend-go/internal/pkg/geofence"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
)

// Company is a tenant. Office coordinates and radius may be absent; geofencing
// is opt-in per tenant.
type Company struct {
	ID   string
	Name string

	TimeZone string // IANA name, e.g. "Asia/Jakarta"

	OfficeLatitude  *float64
	OfficeLongitude *float64
	RadiusMeters    *float64

	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OfficeArea adapts the tenant geo config for the geofence validator.
func (c Company) OfficeArea() *geofence.OfficeArea {
	return &geofence.OfficeArea{
		Latitude:     c.OfficeLatitude,
		Longitude:    c.OfficeLongitude,
		RadiusMeters: c.RadiusMeters,
	}
}

// Location returns the tenant's local time zone, falling back to UTC when the
// configured name does not resolve.
func (c Company) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil || c.TimeZone == "" {
		return time.UTC
	}
	return loc
}
