package response

import (
	"errors"
	"net/http"

	"github.com/attendly-hr/attendly-backend-go/internal/domain/attendance"
	"github.com/attendly-hr/attendly-backend-go/internal/domain/company"
	"github.com/attendly-hr/attendly-backend-go/internal/domain/leave"
	"github.com/attendly-hr/attendly-backend-go/internal/domain/user"
	"github.com/attendly-hr/attendly-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses. Domain rejections are
// expected outcomes with specific status codes; anything unmatched is an
// infrastructure failure and stays generic.
func HandleError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Attendance domain errors
	case errors.Is(err, attendance.ErrAlreadyMarked):
		Conflict(w, "Attendance already marked for today")
	case errors.Is(err, attendance.ErrFaceMismatch):
		BadRequest(w, "Face verification failed, please try again", nil)
	case errors.Is(err, attendance.ErrOutsideGeofence):
		BadRequest(w, "You are outside the allowed office area", nil)
	case errors.Is(err, attendance.ErrReportRequired):
		BadRequest(w, "Daily report of at least 5 characters is required", nil)
	case errors.Is(err, attendance.ErrNoActiveSession):
		BadRequest(w, "No active attendance session for today", nil)
	case errors.Is(err, attendance.ErrAlreadyOnBreak):
		Conflict(w, "Break already started")
	case errors.Is(err, attendance.ErrAttendanceNotFound):
		NotFound(w, "Attendance record not found")

	// Leave domain errors
	case errors.Is(err, leave.ErrLeaveNotFound):
		NotFound(w, "Leave request not found")
	case errors.Is(err, leave.ErrOverlappingLeave):
		Conflict(w, "An overlapping leave request already exists")
	case errors.Is(err, leave.ErrLeaveAlreadyProcessed):
		Conflict(w, "Leave request already processed")
	case errors.Is(err, leave.ErrInvalidDateRange):
		BadRequest(w, "Invalid leave date range", nil)

	// User domain errors
	case errors.Is(err, user.ErrUserNotFound):
		NotFound(w, "User not found")
	case errors.Is(err, user.ErrUserInactive):
		Forbidden(w, "User account is inactive")
	case errors.Is(err, user.ErrHRAccessRequired):
		Forbidden(w, "HR access required")

	// Company domain errors
	case errors.Is(err, company.ErrCompanyNotFound):
		NotFound(w, "Company not found")
	case errors.Is(err, company.ErrCompanySuspended):
		Forbidden(w, "Company account is suspended")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
