package leave

import (
	"context"
	"log/slog"
	"time"

	"github.com/attendly-hr/attendly-backend-go/internal/domain/attendance"
	"github.com/attendly-hr/attendly-backend-go/internal/domain/company"
	"github.com/attendly-hr/attendly-backend-go/internal/domain/leave"
	"github.com/attendly-hr/attendly-backend-go/internal/domain/user"
	"github.com/attendly-hr/attendly-backend-go/internal/pkg/database"
	"github.com/attendly-hr/attendly-backend-go/internal/pkg/jwt"
	"github.com/attendly-hr/attendly-backend-go/internal/pkg/metrics"
	"github.com/attendly-hr/attendly-backend-go/internal/repository/postgresql"
	"github.com/jackc/pgx/v5"
)

type LeaveServiceImpl struct {
	leave.LeaveRequestRepository
	attendance.AttendanceRepository
	company.CompanyRepository
	logger *slog.Logger

	withTx func(ctx context.Context, fn func(ctx context.Context) error) error
	now    func() time.Time
}

func NewLeaveService(
	db *database.DB,
	leaveRepo leave.LeaveRequestRepository,
	attendanceRepo attendance.AttendanceRepository,
	companyRepo company.CompanyRepository,
	logger *slog.Logger,
) leave.LeaveService {
	return &LeaveServiceImpl{
		LeaveRequestRepository: leaveRepo,
		AttendanceRepository:   attendanceRepo,
		CompanyRepository:      companyRepo,
		logger:                 logger,
		withTx: func(ctx context.Context, fn func(ctx context.Context) error) error {
			return postgresql.WithTransaction(ctx, db, func(tx pgx.Tx) error {
				return fn(context.WithValue(ctx, "tx", tx))
			})
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Apply implements leave.LeaveService.
func (s *LeaveServiceImpl) Apply(ctx context.Context, req leave.ApplyLeaveRequest) (leave.LeaveResponse, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveResponse{}, err
	}

	identity, err := jwt.IdentityFromContext(ctx)
	if err != nil {
		return leave.LeaveResponse{}, err
	}

	start, _ := time.Parse("2006-01-02", req.StartDate)
	end, _ := time.Parse("2006-01-02", req.EndDate)

	dayType := leave.DayType(req.DayType)

	// The overlap check and the insert run in one transaction so two
	// concurrent applications for the same range cannot both pass the check.
	var created leave.LeaveRequest
	err = s.withTx(ctx, func(txCtx context.Context) error {
		overlapping, err := s.LeaveRequestRepository.HasOverlapping(txCtx, identity.UserID, start, end)
		if err != nil {
			return err
		}
		if overlapping {
			return leave.ErrOverlappingLeave
		}

		created, err = s.LeaveRequestRepository.Create(txCtx, leave.LeaveRequest{
			UserID:    identity.UserID,
			CompanyID: identity.CompanyID,
			LeaveType: leave.LeaveType(req.LeaveType),
			DayType:   dayType,
			StartDate: start,
			EndDate:   end,
			DaysCount: leave.ComputeDaysCount(start, end, dayType),
			Reason:    req.Reason,
			Status:    leave.StatusPending,
		})
		return err
	})
	if err != nil {
		return leave.LeaveResponse{}, err
	}

	return leave.ToResponse(created), nil
}

// Approve implements leave.LeaveService. Reconciliation runs before the status
// flip: a failure partway through the range leaves the request Pending, so HR
// can approve again and skip-if-exists absorbs the days already written.
func (s *LeaveServiceImpl) Approve(ctx context.Context, requestID string) (leave.LeaveResponse, error) {
	identity, err := jwt.IdentityFromContext(ctx)
	if err != nil {
		return leave.LeaveResponse{}, err
	}
	if !identity.Role.IsHRLevel() {
		return leave.LeaveResponse{}, user.ErrHRAccessRequired
	}

	req, err := s.LeaveRequestRepository.GetByID(ctx, requestID, identity.CompanyID)
	if err != nil {
		return leave.LeaveResponse{}, err
	}
	if req.Status != leave.StatusPending {
		return leave.LeaveResponse{}, leave.ErrLeaveAlreadyProcessed
	}

	comp, err := s.CompanyRepository.GetByID(ctx, identity.CompanyID)
	if err != nil {
		return leave.LeaveResponse{}, err
	}

	if err := s.reconcile(ctx, req, comp); err != nil {
		return leave.LeaveResponse{}, err
	}

	nowUTC := s.now()
	if err := s.LeaveRequestRepository.UpdateStatus(ctx, requestID, leave.StatusApproved, identity.UserID, nowUTC); err != nil {
		return leave.LeaveResponse{}, err
	}

	req.Status = leave.StatusApproved
	req.ActionBy = &identity.UserID
	req.ActionAt = &nowUTC
	return leave.ToResponse(req), nil
}

// reconcile expands the approved range into one attendance record per calendar
// day, skipping any day that already has one. A day the user already punched
// must never be clobbered by a leave approval.
func (s *LeaveServiceImpl) reconcile(ctx context.Context, req leave.LeaveRequest, comp company.Company) error {
	loc := comp.Location()

	for d := req.StartDate; !d.After(req.EndDate); d = d.AddDate(0, 0, 1) {
		dateStr := d.Format("2006-01-02")

		existing, err := s.AttendanceRepository.GetByUserAndDate(ctx, req.UserID, dateStr, req.CompanyID)
		if err != nil {
			return err
		}
		if existing != nil {
			s.logger.Info("reconciliation skipped existing attendance",
				slog.String("user_id", req.UserID),
				slog.String("date", dateStr),
			)
			metrics.ObserveReconciledDay("skipped")
			continue
		}

		att := synthesizeDay(req, dateStr, loc)
		if _, err := s.AttendanceRepository.Create(ctx, att); err != nil {
			return err
		}
		metrics.ObserveReconciledDay("created")
	}

	return nil
}

func synthesizeDay(req leave.LeaveRequest, dateStr string, loc *time.Location) attendance.Attendance {
	att := attendance.Attendance{
		UserID:    req.UserID,
		CompanyID: req.CompanyID,
		Date:      dateStr,
		Source:    attendance.SourceReconciler,
	}

	switch {
	case req.LeaveType == leave.TypeUnpaid:
		att.Status = attendance.StatusAbsent
		att.Mode = attendance.ModeUnpaidLeave
		att.NetWorkHours = 0
	case req.LeaveType == leave.TypeWFH:
		att.Status = attendance.StatusPresent
		att.Mode = attendance.ModeWFH
		att.NetWorkHours = 8
		setSyntheticWindow(&att, dateStr, loc)
	default: // Paid, Sick, Casual
		att.Mode = attendance.ModePaidLeave
		if req.DayType == leave.DayTypeHalf {
			att.Status = attendance.StatusHalfDay
			att.NetWorkHours = 4
		} else {
			att.Status = attendance.StatusOnLeave
			att.NetWorkHours = 8
		}
		setSyntheticWindow(&att, dateStr, loc)
	}

	return att
}

func setSyntheticWindow(att *attendance.Attendance, dateStr string, loc *time.Location) {
	day, err := time.ParseInLocation("2006-01-02", dateStr, loc)
	if err != nil {
		return
	}
	in := time.Date(day.Year(), day.Month(), day.Day(), 9, 0, 0, 0, loc).UTC()
	out := time.Date(day.Year(), day.Month(), day.Day(), 18, 0, 0, 0, loc).UTC()
	att.PunchInTime = &in
	att.PunchOutTime = &out
}

// Reject implements leave.LeaveService.
func (s *LeaveServiceImpl) Reject(ctx context.Context, requestID string, reason string) (leave.LeaveResponse, error) {
	identity, err := jwt.IdentityFromContext(ctx)
	if err != nil {
		return leave.LeaveResponse{}, err
	}
	if !identity.Role.IsHRLevel() {
		return leave.LeaveResponse{}, user.ErrHRAccessRequired
	}

	req, err := s.LeaveRequestRepository.GetByID(ctx, requestID, identity.CompanyID)
	if err != nil {
		return leave.LeaveResponse{}, err
	}
	if req.Status != leave.StatusPending {
		return leave.LeaveResponse{}, leave.ErrLeaveAlreadyProcessed
	}

	nowUTC := s.now()
	if err := s.LeaveRequestRepository.UpdateStatus(ctx, requestID, leave.StatusRejected, identity.UserID, nowUTC); err != nil {
		return leave.LeaveResponse{}, err
	}

	s.logger.Info("leave request rejected",
		slog.String("request_id", requestID),
		slog.String("action_by", identity.UserID),
		slog.String("reason", reason),
	)

	req.Status = leave.StatusRejected
	req.ActionBy = &identity.UserID
	req.ActionAt = &nowUTC
	return leave.ToResponse(req), nil
}

// MyRequests implements leave.LeaveService.
func (s *LeaveServiceImpl) MyRequests(ctx context.Context) ([]leave.LeaveResponse, error) {
	identity, err := jwt.IdentityFromContext(ctx)
	if err != nil {
		return nil, err
	}

	requests, err := s.LeaveRequestRepository.ListByUser(ctx, identity.UserID, identity.CompanyID)
	if err != nil {
		return nil, err
	}

	responses := make([]leave.LeaveResponse, 0, len(requests))
	for _, req := range requests {
		responses = append(responses, leave.ToResponse(req))
	}
	return responses, nil
}

// PendingRequests implements leave.LeaveService.
func (s *LeaveServiceImpl) PendingRequests(ctx context.Context) ([]leave.LeaveResponse, error) {
	identity, err := jwt.IdentityFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if !identity.Role.IsHRLevel() {
		return nil, user.ErrHRAccessRequired
	}

	requests, err := s.LeaveRequestRepository.ListPending(ctx, identity.CompanyID)
	if err != nil {
		return nil, err
	}

	responses := make([]leave.LeaveResponse, 0, len(requests))
	for _, req := range requests {
		responses = append(responses, leave.ToResponse(req))
	}
	return responses, nil
}
