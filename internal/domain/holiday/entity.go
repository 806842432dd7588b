package holiday

import "time"

// Holiday is a tenant-declared non-working day, date-bucketed the same way as
// attendance ("YYYY-MM-DD" in the tenant's time zone).
type Holiday struct {
	ID        string
	CompanyID string
	Date      string
	Name      string
	CreatedAt time.Time
}
