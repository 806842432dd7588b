package leave

import (
	"time"

	"github.com/attendly-hr/attendly-backend-go/internal/pkg/validator"
)

type ApplyLeaveRequest struct {
	LeaveType string `json:"leave_type"`
	DayType   string `json:"day_type"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Reason    string `json:"reason"`
}

func (r *ApplyLeaveRequest) Validate() error {
	var errs validator.ValidationErrors

	types := []string{string(TypePaid), string(TypeSick), string(TypeCasual), string(TypeWFH), string(TypeUnpaid)}
	if !validator.IsInSlice(r.LeaveType, types) {
		errs = append(errs, validator.ValidationError{
			Field:   "leave_type",
			Message: "leave_type must be one of: paid, sick, casual, wfh, unpaid",
		})
	}

	if !validator.IsInSlice(r.DayType, []string{string(DayTypeFull), string(DayTypeHalf)}) {
		errs = append(errs, validator.ValidationError{
			Field:   "day_type",
			Message: "day_type must be one of: full_day, half_day",
		})
	}

	start, okStart := validator.IsValidDate(r.StartDate)
	if !okStart {
		errs = append(errs, validator.ValidationError{
			Field:   "start_date",
			Message: "start_date must be in YYYY-MM-DD format",
		})
	}
	end, okEnd := validator.IsValidDate(r.EndDate)
	if !okEnd {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date must be in YYYY-MM-DD format",
		})
	}
	if okStart && okEnd && end.Before(start) {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date must not be before start_date",
		})
	}

	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type RejectLeaveRequest struct {
	Reason string `json:"reason"`
}

type LeaveResponse struct {
	ID        string  `json:"id"`
	UserID    string  `json:"user_id"`
	UserName  *string `json:"user_name,omitempty"`
	LeaveType string  `json:"leave_type"`
	DayType   string  `json:"day_type"`
	StartDate string  `json:"start_date"`
	EndDate   string  `json:"end_date"`
	DaysCount float64 `json:"days_count"`
	Reason    string  `json:"reason"`
	Status    string  `json:"status"`
	ActionBy  *string `json:"action_by,omitempty"`
	ActionAt  *string `json:"action_at,omitempty"`
}

func ToResponse(lr LeaveRequest) LeaveResponse {
	resp := LeaveResponse{
		ID:        lr.ID,
		UserID:    lr.UserID,
		UserName:  lr.UserName,
		LeaveType: string(lr.LeaveType),
		DayType:   string(lr.DayType),
		StartDate: lr.StartDate.Format("2006-01-02"),
		EndDate:   lr.EndDate.Format("2006-01-02"),
		DaysCount: lr.DaysCount,
		Reason:    lr.Reason,
		Status:    string(lr.Status),
		ActionBy:  lr.ActionBy,
	}
	if lr.ActionAt != nil {
		s := lr.ActionAt.Format(time.RFC3339)
		resp.ActionAt = &s
	}
	return resp
}
