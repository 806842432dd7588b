package payroll

import (
	"context"
	"time"

	"github.com/attendly-hr/attendly-backend-go/internal/domain/attendance"
	"github.com/attendly-hr/attendly-backend-go/internal/domain/holiday"
	"github.com/attendly-hr/attendly-backend-go/internal/domain/leave"
	"github.com/attendly-hr/attendly-backend-go/internal/domain/payroll"
	"github.com/attendly-hr/attendly-backend-go/internal/domain/user"
	"github.com/attendly-hr/attendly-backend-go/internal/pkg/jwt"
	"github.com/shopspring/decimal"
)

type PayrollServiceImpl struct {
	attendance.AttendanceRepository
	holiday.HolidayRepository
	leave.LeaveRequestRepository
	user.UserRepository
}

func NewPayrollService(
	attendanceRepo attendance.AttendanceRepository,
	holidayRepo holiday.HolidayRepository,
	leaveRepo leave.LeaveRequestRepository,
	userRepo user.UserRepository,
) payroll.PayrollService {
	return &PayrollServiceImpl{
		AttendanceRepository:   attendanceRepo,
		HolidayRepository:      holidayRepo,
		LeaveRequestRepository: leaveRepo,
		UserRepository:         userRepo,
	}
}

// GetAccrual implements payroll.PayrollService. Employees may query their own
// accrual; any other user requires an HR-level role.
func (s *PayrollServiceImpl) GetAccrual(ctx context.Context, req payroll.AccrualRequest) (payroll.AccrualSummary, error) {
	if err := req.Validate(); err != nil {
		return payroll.AccrualSummary{}, err
	}

	identity, err := jwt.IdentityFromContext(ctx)
	if err != nil {
		return payroll.AccrualSummary{}, err
	}
	if req.UserID != identity.UserID && !identity.Role.IsHRLevel() {
		return payroll.AccrualSummary{}, user.ErrHRAccessRequired
	}

	usr, err := s.UserRepository.GetByID(ctx, req.UserID, identity.CompanyID)
	if err != nil {
		return payroll.AccrualSummary{}, err
	}

	records, err := s.AttendanceRepository.ListRange(ctx, req.UserID, identity.CompanyID, req.StartDate, req.EndDate)
	if err != nil {
		return payroll.AccrualSummary{}, err
	}

	holidays, err := s.HolidayRepository.ListRange(ctx, identity.CompanyID, req.StartDate, req.EndDate)
	if err != nil {
		return payroll.AccrualSummary{}, err
	}

	windowStart, _ := time.Parse("2006-01-02", req.StartDate)
	windowEnd, _ := time.Parse("2006-01-02", req.EndDate)

	// Leaves are matched on start date only: a leave that begins before the
	// window but ends inside it is not counted. Known approximation carried
	// from the established payroll behavior.
	leaves, err := s.LeaveRequestRepository.ListApprovedFrom(ctx, req.UserID, windowStart, windowEnd)
	if err != nil {
		return payroll.AccrualSummary{}, err
	}

	return ComputeAccrual(usr, records, holidays, leaves, req.StartDate, req.EndDate), nil
}

// ComputeAccrual is the pure aggregation step: no clock, no I/O, identical
// inputs always give an identical summary.
func ComputeAccrual(
	usr user.User,
	records []attendance.Attendance,
	holidays []holiday.Holiday,
	leaves []leave.LeaveRequest,
	startDate, endDate string,
) payroll.AccrualSummary {
	summary := payroll.AccrualSummary{
		UserID:      usr.ID,
		CompanyID:   usr.CompanyID,
		StartDate:   startDate,
		EndDate:     endDate,
		BasicSalary: usr.BasicSalary,
	}

	var joinedAfter string
	if usr.JoiningDate != nil {
		joinedAfter = usr.JoiningDate.Format("2006-01-02")
	}

	for _, att := range records {
		if joinedAfter != "" && att.Date < joinedAfter {
			continue
		}
		switch att.Status {
		case attendance.StatusHalfDay:
			summary.HalfDays++
		case attendance.StatusPresent, attendance.StatusCompleted:
			summary.PresentDays++
		}
		if att.Mode == attendance.ModeWFH {
			summary.WFHDays++
		}
	}

	summary.HolidayCount = len(holidays)

	for _, lr := range leaves {
		days := lr.DaysCount
		if lr.DayType == leave.DayTypeHalf {
			days = 0.5
		}
		switch {
		case lr.LeaveType.IsPaidCategory():
			summary.PaidLeaveDays += days
		case lr.LeaveType == leave.TypeUnpaid:
			summary.UnpaidLeaveDays += days
		}
	}

	summary.TotalPayableDays = float64(summary.PresentDays) +
		float64(summary.HolidayCount) +
		summary.PaidLeaveDays +
		float64(summary.HalfDays)*0.5

	// Per-day rate uses the days in the window's starting month for the whole
	// range, even when the range spans months.
	daysInMonth := daysInMonthOf(startDate)
	perDay := usr.BasicSalary.Div(decimal.NewFromInt(int64(daysInMonth)))
	summary.PerDaySalary = perDay.Round(2)
	summary.EstimatedSalary = perDay.Mul(decimal.NewFromFloat(summary.TotalPayableDays)).Round(0)

	return summary
}

func daysInMonthOf(date string) int {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		t = time.Now()
	}
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
