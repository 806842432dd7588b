package attendance

import "errors"

// Attendance domain errors. These are anticipated outcomes, returned as values
// and mapped to specific responses at the HTTP boundary, never panics.
var (
	// Punch-in errors
	ErrAlreadyMarked   = errors.New("attendance already marked for today")
	ErrFaceMismatch    = errors.New("face verification failed, please try again")
	ErrOutsideGeofence = errors.New("you are outside the allowed office radius")

	// Break / punch-out errors
	ErrNoActiveSession = errors.New("no active attendance session found")
	ErrAlreadyOnBreak  = errors.New("you are already on a break")
	ErrReportRequired  = errors.New("daily report of at least 5 characters is required")

	// General errors
	ErrAttendanceNotFound = errors.New("attendance record not found")
)
