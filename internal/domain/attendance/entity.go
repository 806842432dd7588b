package attendance

import (
	"time"
)

// Status is the per-day lifecycle state of an attendance record.
// NotStarted -> Present -> [OnBreak -> Present]* -> Completed|HalfDay via the
// punch flow; Absent, OnLeave and Holiday are only ever written by the leave
// reconciler, the mark-absent job, or HR manual entry.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusPresent    Status = "present"
	StatusCompleted  Status = "completed"
	StatusOnBreak    Status = "on_break"
	StatusHalfDay    Status = "half_day"
	StatusAbsent     Status = "absent"
	StatusOnLeave    Status = "on_leave"
	StatusHoliday    Status = "holiday"
)

// Mode tags how the day was worked (or not worked).
type Mode string

const (
	ModeOffice      Mode = "office"
	ModeWFH         Mode = "wfh"
	ModeManual      Mode = "manual"
	ModePaidLeave   Mode = "paid_leave"
	ModeUnpaidLeave Mode = "unpaid_leave"
	ModeHoliday     Mode = "holiday"
	ModeLeave       Mode = "leave"
)

// Source tags the capture method.
type Source string

const (
	SourceFacePunch  Source = "face_punch"
	SourceManual     Source = "manual"
	SourceReconciler Source = "reconciler"
	SourceSystem     Source = "system"
)

// Attendance is one record per (user, calendar day). Date is a "YYYY-MM-DD"
// string bucketed in the tenant's time zone, not a timestamp: every subsystem
// comparing days compares this string. The storage layer enforces uniqueness
// on (user_id, date).
type Attendance struct {
	ID        string
	UserID    string
	CompanyID string
	Date      string

	PunchInTime       *time.Time
	PunchOutTime      *time.Time
	BreakStartAt      *time.Time
	TotalBreakMinutes int

	NetWorkHours float64
	Status       Status
	Mode         Mode
	Source       Source

	InImage  *string
	OutImage *string

	Latitude  *float64
	Longitude *float64
	Address   *string

	FaceMatched bool

	IsManualEntry bool
	AddedBy       *string
	Remarks       *string
	IsEdited      bool
	EditedBy      *string

	CreatedAt time.Time
	UpdatedAt time.Time

	// Joined for responses
	UserName *string
}
