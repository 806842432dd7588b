package leave

import (
	"context"
	"time"
)

type LeaveRequestRepository interface {
	Create(ctx context.Context, req LeaveRequest) (LeaveRequest, error)

	GetByID(ctx context.Context, id, companyID string) (LeaveRequest, error)

	// UpdateStatus writes the approval decision fields.
	UpdateStatus(ctx context.Context, id string, status RequestStatus, actionBy string, actionAt time.Time) error

	// HasOverlapping reports whether any Pending or Approved request for the
	// user overlaps [start, end]. Rejected requests do not block re-application.
	HasOverlapping(ctx context.Context, userID string, start, end time.Time) (bool, error)

	ListByUser(ctx context.Context, userID, companyID string) ([]LeaveRequest, error)

	ListPending(ctx context.Context, companyID string) ([]LeaveRequest, error)

	// ListApprovedFrom returns approved requests for the user whose start date
	// falls inside [windowStart, windowEnd]. Leaves that begin before the window
	// but end inside it are not returned; the payroll engine preserves that
	// behavior knowingly.
	ListApprovedFrom(ctx context.Context, userID string, windowStart, windowEnd time.Time) ([]LeaveRequest, error)
}
