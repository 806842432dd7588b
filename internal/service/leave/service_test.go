package leave

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/attendly-hr/attendly-backend-go/internal/domain/attendance"
	"github.com/attendly-hr/attendly-backend-go/internal/domain/company"
	"github.com/attendly-hr/attendly-backend-go/internal/domain/leave"
	"github.com/attendly-hr/attendly-backend-go/internal/domain/user"
	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testUserID    = "user-1"
	testCompanyID = "company-1"
)

func authCtx(t *testing.T, userID, companyID string, role user.Role) context.Context {
	t.Helper()
	auth := jwtauth.New("HS256", []byte("test-secret"), nil)
	token, _, err := auth.Encode(map[string]interface{}{
		"user_id":    userID,
		"company_id": companyID,
		"role":       string(role),
	})
	require.NoError(t, err)
	return jwtauth.NewContext(context.Background(), token, nil)
}

func day(s string) time.Time {
	d, _ := time.Parse("2006-01-02", s)
	return d
}

type fakeLeaveRepo struct {
	requests map[string]leave.LeaveRequest
}

func newFakeLeaveRepo() *fakeLeaveRepo {
	return &fakeLeaveRepo{requests: make(map[string]leave.LeaveRequest)}
}

func (f *fakeLeaveRepo) Create(_ context.Context, req leave.LeaveRequest) (leave.LeaveRequest, error) {
	req.ID = uuid.New().String()
	f.requests[req.ID] = req
	return req, nil
}

func (f *fakeLeaveRepo) GetByID(_ context.Context, id, _ string) (leave.LeaveRequest, error) {
	req, ok := f.requests[id]
	if !ok {
		return leave.LeaveRequest{}, leave.ErrLeaveNotFound
	}
	return req, nil
}

func (f *fakeLeaveRepo) UpdateStatus(_ context.Context, id string, status leave.RequestStatus, actionBy string, actionAt time.Time) error {
	req, ok := f.requests[id]
	if !ok {
		return leave.ErrLeaveNotFound
	}
	req.Status = status
	req.ActionBy = &actionBy
	req.ActionAt = &actionAt
	f.requests[id] = req
	return nil
}

func (f *fakeLeaveRepo) HasOverlapping(_ context.Context, userID string, start, end time.Time) (bool, error) {
	for _, req := range f.requests {
		if req.UserID != userID {
			continue
		}
		if req.Status != leave.StatusPending && req.Status != leave.StatusApproved {
			continue
		}
		if !req.StartDate.After(end) && !req.EndDate.Before(start) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLeaveRepo) ListByUser(_ context.Context, userID, _ string) ([]leave.LeaveRequest, error) {
	var out []leave.LeaveRequest
	for _, req := range f.requests {
		if req.UserID == userID {
			out = append(out, req)
		}
	}
	return out, nil
}

func (f *fakeLeaveRepo) ListPending(_ context.Context, companyID string) ([]leave.LeaveRequest, error) {
	var out []leave.LeaveRequest
	for _, req := range f.requests {
		if req.CompanyID == companyID && req.Status == leave.StatusPending {
			out = append(out, req)
		}
	}
	return out, nil
}

func (f *fakeLeaveRepo) ListApprovedFrom(_ context.Context, userID string, windowStart, windowEnd time.Time) ([]leave.LeaveRequest, error) {
	var out []leave.LeaveRequest
	for _, req := range f.requests {
		if req.UserID == userID && req.Status == leave.StatusApproved &&
			!req.StartDate.Before(windowStart) && !req.StartDate.After(windowEnd) {
			out = append(out, req)
		}
	}
	return out, nil
}

type fakeAttendanceRepo struct {
	records map[string]attendance.Attendance
	creates int

	// failOnCreate makes the Nth Create fail once, to exercise partial writes.
	failOnCreate int
}

func newFakeAttendanceRepo() *fakeAttendanceRepo {
	return &fakeAttendanceRepo{records: make(map[string]attendance.Attendance)}
}

func (f *fakeAttendanceRepo) Create(_ context.Context, att attendance.Attendance) (attendance.Attendance, error) {
	if f.failOnCreate > 0 && f.creates+1 == f.failOnCreate {
		f.failOnCreate = 0
		return attendance.Attendance{}, errors.New("insert failed")
	}
	k := att.UserID + "|" + att.Date
	if _, exists := f.records[k]; exists {
		return attendance.Attendance{}, attendance.ErrAlreadyMarked
	}
	att.ID = uuid.New().String()
	f.records[k] = att
	f.creates++
	return att, nil
}

func (f *fakeAttendanceRepo) GetByUserAndDate(_ context.Context, userID, date, _ string) (*attendance.Attendance, error) {
	if att, ok := f.records[userID+"|"+date]; ok {
		return &att, nil
	}
	return nil, nil
}

func (f *fakeAttendanceRepo) GetOpenSession(_ context.Context, _, _, _ string) (attendance.Attendance, error) {
	return attendance.Attendance{}, attendance.ErrNoActiveSession
}

func (f *fakeAttendanceRepo) Update(_ context.Context, att attendance.Attendance) error {
	f.records[att.UserID+"|"+att.Date] = att
	return nil
}

func (f *fakeAttendanceRepo) ListRange(_ context.Context, _, _, _, _ string) ([]attendance.Attendance, error) {
	return nil, nil
}

func (f *fakeAttendanceRepo) List(_ context.Context, _ attendance.Filter, _ string) ([]attendance.Attendance, int64, error) {
	return nil, 0, nil
}

func (f *fakeAttendanceRepo) ListMine(_ context.Context, _ string, _ attendance.MyFilter, _ string) ([]attendance.Attendance, int64, error) {
	return nil, 0, nil
}

type fakeCompanyRepo struct{}

func (fakeCompanyRepo) GetByID(_ context.Context, id string) (company.Company, error) {
	return company.Company{ID: id, TimeZone: "Asia/Jakarta", Status: company.StatusActive}, nil
}

func (fakeCompanyRepo) ListActiveIDs(_ context.Context) ([]string, error) {
	return []string{testCompanyID}, nil
}

type fixture struct {
	svc            *LeaveServiceImpl
	leaveRepo      *fakeLeaveRepo
	attendanceRepo *fakeAttendanceRepo
	employeeCtx    context.Context
	hrCtx          context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	leaveRepo := newFakeLeaveRepo()
	attendanceRepo := newFakeAttendanceRepo()
	svc := &LeaveServiceImpl{
		LeaveRequestRepository: leaveRepo,
		AttendanceRepository:   attendanceRepo,
		CompanyRepository:      fakeCompanyRepo{},
		logger:                 slog.New(slog.NewTextHandler(io.Discard, nil)),
		withTx: func(ctx context.Context, fn func(ctx context.Context) error) error {
			return fn(ctx)
		},
		now: func() time.Time { return time.Now().UTC() },
	}
	return &fixture{
		svc:            svc,
		leaveRepo:      leaveRepo,
		attendanceRepo: attendanceRepo,
		employeeCtx:    authCtx(t, testUserID, testCompanyID, user.RoleEmployee),
		hrCtx:          authCtx(t, "hr-1", testCompanyID, user.RoleHR),
	}
}

func (f *fixture) seedApproved(start, end string) {
	f.leaveRepo.requests["seed"] = leave.LeaveRequest{
		ID:        "seed",
		UserID:    testUserID,
		CompanyID: testCompanyID,
		LeaveType: leave.TypePaid,
		DayType:   leave.DayTypeFull,
		StartDate: day(start),
		EndDate:   day(end),
		Status:    leave.StatusApproved,
	}
}

func TestApply_CreatesPendingRequest(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Apply(f.employeeCtx, leave.ApplyLeaveRequest{
		LeaveType: "paid",
		DayType:   "full_day",
		StartDate: "2024-05-10",
		EndDate:   "2024-05-12",
		Reason:    "family event",
	})
	require.NoError(t, err)

	assert.Equal(t, string(leave.StatusPending), resp.Status)
	assert.Equal(t, 3.0, resp.DaysCount)
}

func TestApply_HalfDayCountsAsHalf(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Apply(f.employeeCtx, leave.ApplyLeaveRequest{
		LeaveType: "sick",
		DayType:   "half_day",
		StartDate: "2024-05-10",
		EndDate:   "2024-05-10",
		Reason:    "doctor visit",
	})
	require.NoError(t, err)
	assert.Equal(t, 0.5, resp.DaysCount)
}

func TestApply_OverlapRejection(t *testing.T) {
	tests := []struct {
		name        string
		start, end  string
		wantAllowed bool
	}{
		{"fully contained", "2024-05-12", "2024-05-13", false},
		{"partial overlap at start", "2024-05-14", "2024-05-20", false},
		{"partial overlap at end", "2024-05-01", "2024-05-11", false},
		{"no overlap", "2024-05-16", "2024-05-20", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.seedApproved("2024-05-10", "2024-05-15")

			_, err := f.svc.Apply(f.employeeCtx, leave.ApplyLeaveRequest{
				LeaveType: "paid",
				DayType:   "full_day",
				StartDate: tt.start,
				EndDate:   tt.end,
				Reason:    "trip",
			})

			if tt.wantAllowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, leave.ErrOverlappingLeave)
			}
		})
	}
}

func TestApply_RejectedLeaveDoesNotBlock(t *testing.T) {
	f := newFixture(t)
	f.seedApproved("2024-05-10", "2024-05-15")
	seed := f.leaveRepo.requests["seed"]
	seed.Status = leave.StatusRejected
	f.leaveRepo.requests["seed"] = seed

	_, err := f.svc.Apply(f.employeeCtx, leave.ApplyLeaveRequest{
		LeaveType: "paid",
		DayType:   "full_day",
		StartDate: "2024-05-10",
		EndDate:   "2024-05-15",
		Reason:    "retry after rejection",
	})
	assert.NoError(t, err)
}

func TestApprove_RequiresHR(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Approve(f.employeeCtx, "any")
	assert.ErrorIs(t, err, user.ErrHRAccessRequired)
}

func TestApprove_ReconcilesPaidLeave(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Apply(f.employeeCtx, leave.ApplyLeaveRequest{
		LeaveType: "paid",
		DayType:   "full_day",
		StartDate: "2024-05-10",
		EndDate:   "2024-05-12",
		Reason:    "family event",
	})
	require.NoError(t, err)

	approved, err := f.svc.Approve(f.hrCtx, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, string(leave.StatusApproved), approved.Status)

	require.Len(t, f.attendanceRepo.records, 3)
	for _, d := range []string{"2024-05-10", "2024-05-11", "2024-05-12"} {
		att, ok := f.attendanceRepo.records[testUserID+"|"+d]
		require.True(t, ok, "missing record for %s", d)
		assert.Equal(t, attendance.StatusOnLeave, att.Status)
		assert.Equal(t, attendance.ModePaidLeave, att.Mode)
		assert.Equal(t, attendance.SourceReconciler, att.Source)
		assert.Equal(t, 8.0, att.NetWorkHours)
		require.NotNil(t, att.PunchInTime)
		jakarta, _ := time.LoadLocation("Asia/Jakarta")
		assert.Equal(t, "09:00", att.PunchInTime.In(jakarta).Format("15:04"))
		assert.Equal(t, "18:00", att.PunchOutTime.In(jakarta).Format("15:04"))
	}
}

func TestApprove_ReconcilesUnpaidLeave(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Apply(f.employeeCtx, leave.ApplyLeaveRequest{
		LeaveType: "unpaid",
		DayType:   "full_day",
		StartDate: "2024-05-10",
		EndDate:   "2024-05-10",
		Reason:    "personal",
	})
	require.NoError(t, err)

	_, err = f.svc.Approve(f.hrCtx, resp.ID)
	require.NoError(t, err)

	att := f.attendanceRepo.records[testUserID+"|2024-05-10"]
	assert.Equal(t, attendance.StatusAbsent, att.Status)
	assert.Equal(t, attendance.ModeUnpaidLeave, att.Mode)
	assert.Equal(t, 0.0, att.NetWorkHours)
	assert.Nil(t, att.PunchInTime)
}

func TestApprove_ReconcilesHalfDay(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Apply(f.employeeCtx, leave.ApplyLeaveRequest{
		LeaveType: "casual",
		DayType:   "half_day",
		StartDate: "2024-05-10",
		EndDate:   "2024-05-10",
		Reason:    "errand",
	})
	require.NoError(t, err)

	_, err = f.svc.Approve(f.hrCtx, resp.ID)
	require.NoError(t, err)

	att := f.attendanceRepo.records[testUserID+"|2024-05-10"]
	assert.Equal(t, attendance.StatusHalfDay, att.Status)
	assert.Equal(t, 4.0, att.NetWorkHours)
}

func TestApprove_ReconcilesWFH(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Apply(f.employeeCtx, leave.ApplyLeaveRequest{
		LeaveType: "wfh",
		DayType:   "full_day",
		StartDate: "2024-05-10",
		EndDate:   "2024-05-11",
		Reason:    "remote work",
	})
	require.NoError(t, err)

	_, err = f.svc.Approve(f.hrCtx, resp.ID)
	require.NoError(t, err)

	att := f.attendanceRepo.records[testUserID+"|2024-05-10"]
	assert.Equal(t, attendance.StatusPresent, att.Status)
	assert.Equal(t, attendance.ModeWFH, att.Mode)
	assert.Equal(t, 8.0, att.NetWorkHours)
}

func TestReconcile_SkipsExistingAttendance(t *testing.T) {
	f := newFixture(t)

	punched := attendance.Attendance{
		UserID:    testUserID,
		CompanyID: testCompanyID,
		Date:      "2024-05-11",
		Status:    attendance.StatusCompleted,
		Source:    attendance.SourceFacePunch,
	}
	_, err := f.attendanceRepo.Create(context.Background(), punched)
	require.NoError(t, err)

	resp, err := f.svc.Apply(f.employeeCtx, leave.ApplyLeaveRequest{
		LeaveType: "paid",
		DayType:   "full_day",
		StartDate: "2024-05-10",
		EndDate:   "2024-05-12",
		Reason:    "family event",
	})
	require.NoError(t, err)

	_, err = f.svc.Approve(f.hrCtx, resp.ID)
	require.NoError(t, err)

	// The punched day keeps its real record.
	att := f.attendanceRepo.records[testUserID+"|2024-05-11"]
	assert.Equal(t, attendance.StatusCompleted, att.Status)
	assert.Equal(t, attendance.SourceFacePunch, att.Source)
	assert.Len(t, f.attendanceRepo.records, 3)
}

func TestReconcile_Idempotent(t *testing.T) {
	f := newFixture(t)

	req := leave.LeaveRequest{
		UserID:    testUserID,
		CompanyID: testCompanyID,
		LeaveType: leave.TypePaid,
		DayType:   leave.DayTypeFull,
		StartDate: day("2024-05-10"),
		EndDate:   day("2024-05-12"),
	}
	comp, _ := fakeCompanyRepo{}.GetByID(context.Background(), testCompanyID)

	require.NoError(t, f.svc.reconcile(context.Background(), req, comp))
	first := f.attendanceRepo.creates

	require.NoError(t, f.svc.reconcile(context.Background(), req, comp))
	assert.Equal(t, first, f.attendanceRepo.creates, "second run must be a no-op")
	assert.Len(t, f.attendanceRepo.records, 3)
}

func TestApprove_AlreadyProcessed(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Apply(f.employeeCtx, leave.ApplyLeaveRequest{
		LeaveType: "paid",
		DayType:   "full_day",
		StartDate: "2024-05-10",
		EndDate:   "2024-05-10",
		Reason:    "family event",
	})
	require.NoError(t, err)

	_, err = f.svc.Approve(f.hrCtx, resp.ID)
	require.NoError(t, err)

	_, err = f.svc.Approve(f.hrCtx, resp.ID)
	assert.ErrorIs(t, err, leave.ErrLeaveAlreadyProcessed)
}

func TestReject_TerminalButReapplyAllowed(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Apply(f.employeeCtx, leave.ApplyLeaveRequest{
		LeaveType: "paid",
		DayType:   "full_day",
		StartDate: "2024-05-10",
		EndDate:   "2024-05-10",
		Reason:    "family event",
	})
	require.NoError(t, err)

	rejected, err := f.svc.Reject(f.hrCtx, resp.ID, "short notice")
	require.NoError(t, err)
	assert.Equal(t, string(leave.StatusRejected), rejected.Status)
	assert.Empty(t, f.attendanceRepo.records, "rejection must not reconcile")

	_, err = f.svc.Apply(f.employeeCtx, leave.ApplyLeaveRequest{
		LeaveType: "paid",
		DayType:   "full_day",
		StartDate: "2024-05-10",
		EndDate:   "2024-05-10",
		Reason:    "second attempt",
	})
	assert.NoError(t, err)
}

func TestApprove_RetryAfterPartialReconcile(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Apply(f.employeeCtx, leave.ApplyLeaveRequest{
		LeaveType: "paid",
		DayType:   "full_day",
		StartDate: "2024-05-10",
		EndDate:   "2024-05-12",
		Reason:    "family event",
	})
	require.NoError(t, err)

	// Second synthesized day fails: one of three days is written.
	f.attendanceRepo.failOnCreate = 2
	_, err = f.svc.Approve(f.hrCtx, resp.ID)
	require.Error(t, err)
	require.Len(t, f.attendanceRepo.records, 1)

	// The request must still be pending so the approval can be repeated.
	stored, err := f.leaveRepo.GetByID(context.Background(), resp.ID, testCompanyID)
	require.NoError(t, err)
	assert.Equal(t, leave.StatusPending, stored.Status)

	approved, err := f.svc.Approve(f.hrCtx, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, string(leave.StatusApproved), approved.Status)

	require.Len(t, f.attendanceRepo.records, 3)
	for _, d := range []string{"2024-05-10", "2024-05-11", "2024-05-12"} {
		_, ok := f.attendanceRepo.records[testUserID+"|"+d]
		assert.True(t, ok, "missing record for %s", d)
	}
}
