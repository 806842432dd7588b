package attendance

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/attendly-hr/attendly-backend-go/internal/domain/attendance"
	"github.com/attendly-hr/attendly-backend-go/internal/domain/company"
	"github.com/attendly-hr/attendly-backend-go/internal/domain/user"
	"github.com/attendly-hr/attendly-backend-go/internal/pkg/facematch"
	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testUserID    = "user-1"
	testCompanyID = "company-1"
)

var testDescriptor = "[0.1, 0.2, 0.3, 0.4]"

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

type fakeAttendanceRepo struct {
	mu      sync.Mutex
	records map[string]attendance.Attendance // keyed user_id|date
}

func newFakeAttendanceRepo() *fakeAttendanceRepo {
	return &fakeAttendanceRepo{records: make(map[string]attendance.Attendance)}
}

func (f *fakeAttendanceRepo) key(userID, date string) string { return userID + "|" + date }

func (f *fakeAttendanceRepo) Create(_ context.Context, att attendance.Attendance) (attendance.Attendance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := f.key(att.UserID, att.Date)
	if _, exists := f.records[k]; exists {
		return attendance.Attendance{}, attendance.ErrAlreadyMarked
	}
	att.ID = uuid.New().String()
	att.CreatedAt = time.Now()
	f.records[k] = att
	return att, nil
}

func (f *fakeAttendanceRepo) GetByUserAndDate(_ context.Context, userID, date, _ string) (*attendance.Attendance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if att, ok := f.records[f.key(userID, date)]; ok {
		return &att, nil
	}
	return nil, nil
}

func (f *fakeAttendanceRepo) GetOpenSession(_ context.Context, userID, date, _ string) (attendance.Attendance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	att, ok := f.records[f.key(userID, date)]
	if !ok || att.PunchInTime == nil || att.PunchOutTime != nil {
		return attendance.Attendance{}, attendance.ErrNoActiveSession
	}
	return att, nil
}

func (f *fakeAttendanceRepo) Update(_ context.Context, att attendance.Attendance) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := f.key(att.UserID, att.Date)
	if _, ok := f.records[k]; !ok {
		return attendance.ErrAttendanceNotFound
	}
	f.records[k] = att
	return nil
}

func (f *fakeAttendanceRepo) ListRange(_ context.Context, userID, _, startDate, endDate string) ([]attendance.Attendance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []attendance.Attendance
	for _, att := range f.records {
		if att.UserID == userID && att.Date >= startDate && att.Date <= endDate {
			out = append(out, att)
		}
	}
	return out, nil
}

func (f *fakeAttendanceRepo) List(_ context.Context, _ attendance.Filter, companyID string) ([]attendance.Attendance, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []attendance.Attendance
	for _, att := range f.records {
		if att.CompanyID == companyID {
			out = append(out, att)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeAttendanceRepo) ListMine(_ context.Context, userID string, _ attendance.MyFilter, _ string) ([]attendance.Attendance, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []attendance.Attendance
	for _, att := range f.records {
		if att.UserID == userID {
			out = append(out, att)
		}
	}
	return out, int64(len(out)), nil
}

type fakeUserRepo struct {
	users map[string]user.User
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string, _ string) (user.User, error) {
	u, ok := f.users[id]
	if !ok {
		return user.User{}, user.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) ListActiveByCompany(_ context.Context, _ string) ([]user.User, error) {
	var out []user.User
	for _, u := range f.users {
		if u.IsActive {
			out = append(out, u)
		}
	}
	return out, nil
}

type fakeCompanyRepo struct {
	companies map[string]company.Company
}

func (f *fakeCompanyRepo) GetByID(_ context.Context, id string) (company.Company, error) {
	c, ok := f.companies[id]
	if !ok {
		return company.Company{}, company.ErrCompanyNotFound
	}
	return c, nil
}

func (f *fakeCompanyRepo) ListActiveIDs(_ context.Context) ([]string, error) {
	var ids []string
	for id := range f.companies {
		ids = append(ids, id)
	}
	return ids, nil
}

type fakeFileService struct {
	uploads []string
}

func (f *fakeFileService) UploadPunchPhotoAsync(userID, date, punchType string, _ io.Reader, _ string) string {
	key := "attendance/" + date + "/" + userID + "-" + punchType + ".jpg"
	f.uploads = append(f.uploads, key)
	return key
}

func (f *fakeFileService) GetFileURL(_ context.Context, path string, _ time.Duration) (string, error) {
	return "http://localhost/" + path, nil
}

type fixture struct {
	svc            *AttendanceServiceImpl
	attendanceRepo *fakeAttendanceRepo
	ctx            context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	lat, lng, radius := -6.2, 106.8, 3000.0
	desc := testDescriptor

	attendanceRepo := newFakeAttendanceRepo()
	svc := &AttendanceServiceImpl{
		AttendanceRepository: attendanceRepo,
		UserRepository: &fakeUserRepo{users: map[string]user.User{
			testUserID: {
				ID:             testUserID,
				CompanyID:      testCompanyID,
				FullName:       "Test Employee",
				Role:           user.RoleEmployee,
				FaceDescriptor: &desc,
				IsActive:       true,
			},
		}},
		CompanyRepository: &fakeCompanyRepo{companies: map[string]company.Company{
			testCompanyID: {
				ID:              testCompanyID,
				Name:            "Test Co",
				TimeZone:        "Asia/Jakarta",
				OfficeLatitude:  &lat,
				OfficeLongitude: &lng,
				RadiusMeters:    &radius,
				Status:          company.StatusActive,
			},
		}},
		matcher:     facematch.NewMatcher(facematch.DefaultCacheCapacity, facematch.MatchThreshold),
		fileService: &fakeFileService{},
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:         func() time.Time { return time.Now().UTC() },
	}

	return &fixture{
		svc:            svc,
		attendanceRepo: attendanceRepo,
		ctx:            authCtx(t, testUserID, testCompanyID, user.RoleEmployee),
	}
}

func (f *fixture) setNow(t time.Time) { f.svc.now = func() time.Time { return t.UTC() } }

func punchInRequest() attendance.PunchInRequest {
	return attendance.PunchInRequest{
		Latitude:   -6.2,
		Longitude:  106.8,
		Descriptor: json.RawMessage(testDescriptor),
	}
}

func TestPunchIn_Success(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.PunchIn(f.ctx, punchInRequest())
	require.NoError(t, err)

	assert.Equal(t, string(attendance.StatusPresent), resp.Status)
	assert.Equal(t, string(attendance.ModeOffice), resp.Mode)
	assert.True(t, resp.FaceMatched)
	assert.NotNil(t, resp.PunchInTime)
	assert.Nil(t, resp.PunchOutTime)
}

func TestPunchIn_SecondPunchSameDayRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.PunchIn(f.ctx, punchInRequest())
	require.NoError(t, err)

	_, err = f.svc.PunchIn(f.ctx, punchInRequest())
	assert.ErrorIs(t, err, attendance.ErrAlreadyMarked)
	assert.Len(t, f.attendanceRepo.records, 1)
}

func TestPunchIn_FaceMismatch(t *testing.T) {
	f := newFixture(t)

	req := punchInRequest()
	req.Descriptor = json.RawMessage("[9.0, 9.0, 9.0, 9.0]")

	_, err := f.svc.PunchIn(f.ctx, req)
	assert.ErrorIs(t, err, attendance.ErrFaceMismatch)
	assert.Empty(t, f.attendanceRepo.records)
}

func TestPunchIn_OutsideGeofence(t *testing.T) {
	f := newFixture(t)

	req := punchInRequest()
	req.Latitude = -6.9 // ~78km from the office
	req.Longitude = 107.6

	_, err := f.svc.PunchIn(f.ctx, req)
	assert.ErrorIs(t, err, attendance.ErrOutsideGeofence)
}

func TestPunchIn_WFHSkipsGeofence(t *testing.T) {
	f := newFixture(t)

	mode := string(attendance.ModeWFH)
	req := punchInRequest()
	req.Latitude = -6.9
	req.Longitude = 107.6
	req.Mode = &mode

	resp, err := f.svc.PunchIn(f.ctx, req)
	require.NoError(t, err)
	assert.Equal(t, string(attendance.ModeWFH), resp.Mode)
}

func TestPunchOut_ReportGate(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.PunchIn(f.ctx, punchInRequest())
	require.NoError(t, err)

	_, err = f.svc.PunchOut(f.ctx, attendance.PunchOutRequest{DailyReport: "abcd"})
	assert.ErrorIs(t, err, attendance.ErrReportRequired)

	_, err = f.svc.PunchOut(f.ctx, attendance.PunchOutRequest{DailyReport: "  abcd  "})
	assert.ErrorIs(t, err, attendance.ErrReportRequired, "trimmed length is what counts")

	resp, err := f.svc.PunchOut(f.ctx, attendance.PunchOutRequest{DailyReport: "abcde"})
	require.NoError(t, err)
	assert.NotNil(t, resp.PunchOutTime)
}

func TestPunchOut_NoOpenSession(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.PunchOut(f.ctx, attendance.PunchOutRequest{DailyReport: "worked all day"})
	assert.ErrorIs(t, err, attendance.ErrNoActiveSession)
}

func TestPunchOut_HalfDayBoundary(t *testing.T) {
	tests := []struct {
		name       string
		worked     time.Duration
		wantHours  float64
		wantStatus attendance.Status
	}{
		{"exactly four hours is completed", 4 * time.Hour, 4.00, attendance.StatusCompleted},
		{"just under four hours is half day", 4*time.Hour - 36*time.Second, 3.99, attendance.StatusHalfDay},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			start := time.Date(2024, 5, 1, 2, 0, 0, 0, time.UTC) // 09:00 Asia/Jakarta
			f.setNow(start)
			_, err := f.svc.PunchIn(f.ctx, punchInRequest())
			require.NoError(t, err)

			f.setNow(start.Add(tt.worked))
			resp, err := f.svc.PunchOut(f.ctx, attendance.PunchOutRequest{DailyReport: "daily report text"})
			require.NoError(t, err)

			assert.Equal(t, tt.wantHours, resp.NetWorkHours)
			assert.Equal(t, string(tt.wantStatus), resp.Status)
		})
	}
}

func TestFullDayFlow(t *testing.T) {
	f := newFixture(t)

	start := time.Date(2024, 5, 1, 2, 0, 0, 0, time.UTC) // 09:00 Asia/Jakarta
	f.setNow(start)
	resp, err := f.svc.PunchIn(f.ctx, punchInRequest())
	require.NoError(t, err)
	assert.Equal(t, string(attendance.StatusPresent), resp.Status)

	f.setNow(start.Add(3 * time.Hour))
	resp, err = f.svc.StartBreak(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, string(attendance.StatusOnBreak), resp.Status)

	f.setNow(start.Add(3*time.Hour + 30*time.Minute))
	resp, err = f.svc.EndBreak(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, string(attendance.StatusPresent), resp.Status)
	assert.Equal(t, 30, resp.TotalBreakMinutes)

	f.setNow(start.Add(8*time.Hour + 30*time.Minute)) // 17:30 local
	resp, err = f.svc.PunchOut(f.ctx, attendance.PunchOutRequest{DailyReport: "Completed sprint tasks"})
	require.NoError(t, err)
	assert.Equal(t, 8.50, resp.NetWorkHours)
	assert.Equal(t, string(attendance.StatusCompleted), resp.Status)
}

func TestShortDayFlow(t *testing.T) {
	f := newFixture(t)

	start := time.Date(2024, 5, 1, 2, 0, 0, 0, time.UTC)
	f.setNow(start)
	_, err := f.svc.PunchIn(f.ctx, punchInRequest())
	require.NoError(t, err)

	f.setNow(start.Add(3*time.Hour + 30*time.Minute)) // 12:30 local
	resp, err := f.svc.PunchOut(f.ctx, attendance.PunchOutRequest{DailyReport: "left early today"})
	require.NoError(t, err)
	assert.Equal(t, 3.50, resp.NetWorkHours)
	assert.Equal(t, string(attendance.StatusHalfDay), resp.Status)
}

func TestStartBreak_AlreadyOnBreak(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.PunchIn(f.ctx, punchInRequest())
	require.NoError(t, err)

	_, err = f.svc.StartBreak(f.ctx)
	require.NoError(t, err)

	_, err = f.svc.StartBreak(f.ctx)
	assert.ErrorIs(t, err, attendance.ErrAlreadyOnBreak)
}

func TestEndBreak_LenientWithoutOpenBreak(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.PunchIn(f.ctx, punchInRequest())
	require.NoError(t, err)

	resp, err := f.svc.EndBreak(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, string(attendance.StatusPresent), resp.Status)
	assert.Equal(t, 0, resp.TotalBreakMinutes)
}

func TestManualEntry_RequiresHR(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ManualEntry(f.ctx, attendance.ManualEntryRequest{
		UserID: testUserID,
		Date:   "2024-05-01",
		Status: string(attendance.StatusPresent),
	})
	assert.ErrorIs(t, err, user.ErrHRAccessRequired)
}

func TestManualEntry_PresentSynthesizesWindow(t *testing.T) {
	f := newFixture(t)
	hrCtx := authCtx(t, testUserID, testCompanyID, user.RoleHR)

	resp, err := f.svc.ManualEntry(hrCtx, attendance.ManualEntryRequest{
		UserID: testUserID,
		Date:   "2024-05-01",
		Status: string(attendance.StatusPresent),
	})
	require.NoError(t, err)

	assert.True(t, resp.IsManualEntry)
	assert.Equal(t, 8.0, resp.NetWorkHours)
	require.NotNil(t, resp.PunchInTime)
	require.NotNil(t, resp.PunchOutTime)

	in, err := time.Parse(time.RFC3339, *resp.PunchInTime)
	require.NoError(t, err)
	jakarta, _ := time.LoadLocation("Asia/Jakarta")
	assert.Equal(t, "09:00", in.In(jakarta).Format("15:04"))
}

func TestManualEntry_OverwritesExistingDay(t *testing.T) {
	f := newFixture(t)
	hrCtx := authCtx(t, testUserID, testCompanyID, user.RoleHR)

	_, err := f.svc.PunchIn(f.ctx, punchInRequest())
	require.NoError(t, err)

	date := f.svc.now().In(time.FixedZone("WIB", 7*3600)).Format("2006-01-02")
	resp, err := f.svc.ManualEntry(hrCtx, attendance.ManualEntryRequest{
		UserID: testUserID,
		Date:   date,
		Status: string(attendance.StatusAbsent),
	})
	require.NoError(t, err)

	assert.Equal(t, string(attendance.StatusAbsent), resp.Status)
	assert.Len(t, f.attendanceRepo.records, 1)
}

func TestResponseResolvesImageKeysToURLs(t *testing.T) {
	f := newFixture(t)

	inKey := "attendance/2024-05-01/user-1-in.jpg"
	resp := f.svc.toResponse(f.ctx, attendance.Attendance{
		ID:      "att-1",
		UserID:  testUserID,
		Date:    "2024-05-01",
		InImage: &inKey,
	})

	require.NotNil(t, resp.InImage)
	assert.Equal(t, "http://localhost/"+inKey, *resp.InImage)
	assert.Nil(t, resp.OutImage)
}
