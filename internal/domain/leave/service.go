package leave

import "context"

// LeaveService owns the leave request lifecycle. Approve also triggers the
// leave-to-attendance reconciliation.
type LeaveService interface {
	Apply(ctx context.Context, req ApplyLeaveRequest) (LeaveResponse, error)

	Approve(ctx context.Context, requestID string) (LeaveResponse, error)

	Reject(ctx context.Context, requestID string, reason string) (LeaveResponse, error)

	MyRequests(ctx context.Context) ([]LeaveResponse, error)

	PendingRequests(ctx context.Context) ([]LeaveResponse, error)
}
