package leave

import "errors"

var (
	ErrLeaveNotFound         = errors.New("leave request not found")
	ErrOverlappingLeave      = errors.New("an existing leave request overlaps with these dates")
	ErrLeaveAlreadyProcessed = errors.New("leave request has already been approved or rejected")
	ErrInvalidDateRange      = errors.New("end date must not be before start date")
)
