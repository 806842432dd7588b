package leave

import "time"

type LeaveType string

const (
	TypePaid   LeaveType = "paid"
	TypeSick   LeaveType = "sick"
	TypeCasual LeaveType = "casual"
	TypeWFH    LeaveType = "wfh"
	TypeUnpaid LeaveType = "unpaid"
)

// IsPaidCategory reports whether the type accrues paid leave days in payroll.
func (t LeaveType) IsPaidCategory() bool {
	return t == TypePaid || t == TypeSick || t == TypeCasual
}

type DayType string

const (
	DayTypeFull DayType = "full_day"
	DayTypeHalf DayType = "half_day"
)

type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusRejected RequestStatus = "rejected"
)

// LeaveRequest is one leave application. StartDate and EndDate carry date-only
// semantics; their "YYYY-MM-DD" rendering in the tenant's time zone is what the
// reconciler and the overlap check compare.
type LeaveRequest struct {
	ID        string
	UserID    string
	CompanyID string

	LeaveType LeaveType
	DayType   DayType

	StartDate time.Time
	EndDate   time.Time
	DaysCount float64

	Reason string

	Status   RequestStatus
	ActionBy *string
	ActionAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	// Joined for responses
	UserName *string
}

// ComputeDaysCount returns 0.5 for a half-day request, otherwise the inclusive
// day count between start and end.
func ComputeDaysCount(start, end time.Time, dayType DayType) float64 {
	if dayType == DayTypeHalf {
		return 0.5
	}
	days := int(end.Sub(start).Hours()/24) + 1
	if days < 1 {
		days = 1
	}
	return float64(days)
}
