package attendance

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/attendly-hr/attendly-backend-go/internal/domain/attendance"
	"github.com/attendly-hr/attendly-backend-go/internal/domain/company"
	"github.com/attendly-hr/attendly-backend-go/internal/domain/user"
	"github.com/attendly-hr/attendly-backend-go/internal/pkg/facematch"
	"github.com/attendly-hr/attendly-backend-go/internal/pkg/geofence"
	"github.com/attendly-hr/attendly-backend-go/internal/pkg/jwt"
	"github.com/attendly-hr/attendly-backend-go/internal/pkg/metrics"
	"github.com/attendly-hr/attendly-backend-go/internal/service/file"
)

// HalfDayThresholdHours separates Completed from HalfDay at punch-out. The
// boundary is strict: exactly 4.00 net hours is still Completed.
const HalfDayThresholdHours = 4.0

// MinDailyReportLength is the minimum trimmed length of the punch-out report.
const MinDailyReportLength = 5

type AttendanceServiceImpl struct {
	attendance.AttendanceRepository
	user.UserRepository
	company.CompanyRepository
	matcher     *facematch.Matcher
	fileService file.FileService
	logger      *slog.Logger

	now func() time.Time
}

func NewAttendanceService(
	attendanceRepo attendance.AttendanceRepository,
	userRepo user.UserRepository,
	companyRepo company.CompanyRepository,
	matcher *facematch.Matcher,
	fileService file.FileService,
	logger *slog.Logger,
) attendance.AttendanceService {
	return &AttendanceServiceImpl{
		AttendanceRepository: attendanceRepo,
		UserRepository:       userRepo,
		CompanyRepository:    companyRepo,
		matcher:              matcher,
		fileService:          fileService,
		logger:               logger,
		now:                  func() time.Time { return time.Now().UTC() },
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func timePtrToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

// resolveImageURL swaps a stored photo key for a servable URL. A resolution
// failure falls back to the raw key; the record matters more than the link.
func (a *AttendanceServiceImpl) resolveImageURL(ctx context.Context, key *string) *string {
	if key == nil || a.fileService == nil {
		return key
	}
	url, err := a.fileService.GetFileURL(ctx, *key, 15*time.Minute)
	if err != nil {
		return key
	}
	return &url
}

func (a *AttendanceServiceImpl) toResponse(ctx context.Context, att attendance.Attendance) attendance.AttendanceResponse {
	return attendance.AttendanceResponse{
		ID:                att.ID,
		UserID:            att.UserID,
		UserName:          att.UserName,
		Date:              att.Date,
		PunchInTime:       timePtrToString(att.PunchInTime),
		PunchOutTime:      timePtrToString(att.PunchOutTime),
		TotalBreakMinutes: att.TotalBreakMinutes,
		NetWorkHours:      att.NetWorkHours,
		Status:            string(att.Status),
		Mode:              string(att.Mode),
		Source:            string(att.Source),
		FaceMatched:       att.FaceMatched,
		Latitude:          att.Latitude,
		Longitude:         att.Longitude,
		Address:           att.Address,
		InImage:           a.resolveImageURL(ctx, att.InImage),
		OutImage:          a.resolveImageURL(ctx, att.OutImage),
		IsManualEntry:     att.IsManualEntry,
		Remarks:           att.Remarks,
	}
}

// localDate buckets an instant into the tenant's calendar day. Every subsystem
// that compares days goes through the same string representation.
func localDate(t time.Time, comp company.Company) string {
	return t.In(comp.Location()).Format("2006-01-02")
}

func (a *AttendanceServiceImpl) loadCaller(ctx context.Context) (jwt.Identity, company.Company, error) {
	identity, err := jwt.IdentityFromContext(ctx)
	if err != nil {
		return jwt.Identity{}, company.Company{}, err
	}

	comp, err := a.CompanyRepository.GetByID(ctx, identity.CompanyID)
	if err != nil {
		return jwt.Identity{}, company.Company{}, err
	}
	if comp.Status == company.StatusSuspended {
		return jwt.Identity{}, company.Company{}, company.ErrCompanySuspended
	}

	return identity, comp, nil
}

func descriptorValue(d *string) interface{} {
	if d == nil {
		return nil
	}
	return *d
}

// PunchIn implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) PunchIn(ctx context.Context, req attendance.PunchInRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	identity, comp, err := a.loadCaller(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	usr, err := a.UserRepository.GetByID(ctx, identity.UserID, identity.CompanyID)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	if !usr.IsActive {
		return attendance.AttendanceResponse{}, user.ErrUserInactive
	}

	nowUTC := a.now()
	dateLocal := localDate(nowUTC, comp)

	// Advisory read; the unique index is what actually prevents the duplicate.
	existing, err := a.AttendanceRepository.GetByUserAndDate(ctx, identity.UserID, dateLocal, identity.CompanyID)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	if existing != nil {
		metrics.ObservePunch("punch_in", "already_marked")
		return attendance.AttendanceResponse{}, attendance.ErrAlreadyMarked
	}

	if !a.matcher.Verify(identity.UserID, descriptorValue(usr.FaceDescriptor), req.Descriptor) {
		// Unparseable stored descriptor and a different face look the same here;
		// the raw inputs go to the log so operators can tell them apart.
		a.logger.Warn("face mismatch at punch-in",
			slog.String("user_id", identity.UserID),
			slog.Bool("has_stored_descriptor", usr.FaceDescriptor != nil),
		)
		metrics.ObservePunch("punch_in", "face_mismatch")
		return attendance.AttendanceResponse{}, attendance.ErrFaceMismatch
	}

	mode := attendance.ModeOffice
	if req.Mode != nil && *req.Mode != "" {
		mode = attendance.Mode(*req.Mode)
	}

	if mode == attendance.ModeOffice {
		userLoc := &geofence.Location{Latitude: req.Latitude, Longitude: req.Longitude}
		if !geofence.IsInsideOffice(userLoc, comp.OfficeArea()) {
			distance, radius, ok := geofence.DistanceToOffice(userLoc, comp.OfficeArea())
			if ok {
				a.logger.Warn("punch-in outside geofence",
					slog.String("user_id", identity.UserID),
					slog.Float64("distance_meters", distance),
					slog.Float64("radius_meters", radius),
				)
			}
			metrics.ObservePunch("punch_in", "outside_geofence")
			return attendance.AttendanceResponse{}, attendance.ErrOutsideGeofence
		}
	}

	data := attendance.Attendance{
		UserID:      identity.UserID,
		CompanyID:   identity.CompanyID,
		Date:        dateLocal,
		PunchInTime: &nowUTC,
		Status:      attendance.StatusPresent,
		Mode:        mode,
		Source:      attendance.SourceFacePunch,
		Latitude:    &req.Latitude,
		Longitude:   &req.Longitude,
		Address:     req.Address,
		FaceMatched: true,
	}

	if req.Photo != nil && req.PhotoHeader != nil {
		key := a.fileService.UploadPunchPhotoAsync(identity.UserID, dateLocal, "in", req.Photo, req.PhotoHeader.Filename)
		data.InImage = &key
	}

	created, err := a.AttendanceRepository.Create(ctx, data)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	metrics.ObservePunch("punch_in", "success")
	return a.toResponse(ctx, created), nil
}

// StartBreak implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) StartBreak(ctx context.Context) (attendance.AttendanceResponse, error) {
	identity, comp, err := a.loadCaller(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	nowUTC := a.now()
	dateLocal := localDate(nowUTC, comp)

	att, err := a.AttendanceRepository.GetOpenSession(ctx, identity.UserID, dateLocal, identity.CompanyID)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	if att.Status == attendance.StatusOnBreak {
		return attendance.AttendanceResponse{}, attendance.ErrAlreadyOnBreak
	}

	att.Status = attendance.StatusOnBreak
	att.BreakStartAt = &nowUTC

	if err := a.AttendanceRepository.Update(ctx, att); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	return a.toResponse(ctx, att), nil
}

// EndBreak implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) EndBreak(ctx context.Context) (attendance.AttendanceResponse, error) {
	identity, comp, err := a.loadCaller(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	nowUTC := a.now()
	dateLocal := localDate(nowUTC, comp)

	att, err := a.AttendanceRepository.GetOpenSession(ctx, identity.UserID, dateLocal, identity.CompanyID)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	// Lenient: ending a break on a record that is not OnBreak just resets the
	// status to Present.
	closeOpenBreak(&att, nowUTC)
	att.Status = attendance.StatusPresent

	if err := a.AttendanceRepository.Update(ctx, att); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	return a.toResponse(ctx, att), nil
}

func closeOpenBreak(att *attendance.Attendance, now time.Time) {
	if att.BreakStartAt == nil {
		return
	}
	minutes := int(now.Sub(*att.BreakStartAt).Minutes())
	if minutes > 0 {
		att.TotalBreakMinutes += minutes
	}
	att.BreakStartAt = nil
}

// PunchOut implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) PunchOut(ctx context.Context, req attendance.PunchOutRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	identity, comp, err := a.loadCaller(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	report := strings.TrimSpace(req.DailyReport)
	if len(report) < MinDailyReportLength {
		metrics.ObservePunch("punch_out", "report_required")
		return attendance.AttendanceResponse{}, attendance.ErrReportRequired
	}

	nowUTC := a.now()
	dateLocal := localDate(nowUTC, comp)

	att, err := a.AttendanceRepository.GetOpenSession(ctx, identity.UserID, dateLocal, identity.CompanyID)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	// Face verification at punch-out only runs when a descriptor is supplied.
	if len(req.Descriptor) > 0 {
		usr, err := a.UserRepository.GetByID(ctx, identity.UserID, identity.CompanyID)
		if err != nil {
			return attendance.AttendanceResponse{}, err
		}
		if !a.matcher.Verify(identity.UserID, descriptorValue(usr.FaceDescriptor), req.Descriptor) {
			a.logger.Warn("face mismatch at punch-out",
				slog.String("user_id", identity.UserID),
				slog.Bool("has_stored_descriptor", usr.FaceDescriptor != nil),
			)
			metrics.ObservePunch("punch_out", "face_mismatch")
			return attendance.AttendanceResponse{}, attendance.ErrFaceMismatch
		}
	}

	closeOpenBreak(&att, nowUTC)

	att.PunchOutTime = &nowUTC
	net := 0.0
	if att.PunchInTime != nil {
		net = nowUTC.Sub(*att.PunchInTime).Hours()
	}
	if net < 0 {
		net = 0
	}
	att.NetWorkHours = round2(net)

	if att.NetWorkHours >= HalfDayThresholdHours {
		att.Status = attendance.StatusCompleted
	} else {
		att.Status = attendance.StatusHalfDay
	}

	att.Remarks = &report

	if req.Photo != nil && req.PhotoHeader != nil {
		key := a.fileService.UploadPunchPhotoAsync(identity.UserID, dateLocal, "out", req.Photo, req.PhotoHeader.Filename)
		att.OutImage = &key
	}

	if err := a.AttendanceRepository.Update(ctx, att); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	metrics.ObservePunch("punch_out", "success")
	return a.toResponse(ctx, att), nil
}

// ManualEntry implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ManualEntry(ctx context.Context, req attendance.ManualEntryRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	identity, comp, err := a.loadCaller(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	if !identity.Role.IsHRLevel() {
		return attendance.AttendanceResponse{}, user.ErrHRAccessRequired
	}

	if _, err := a.UserRepository.GetByID(ctx, req.UserID, identity.CompanyID); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	status := attendance.Status(req.Status)
	mode := attendance.ModeManual
	if req.Mode != nil && *req.Mode != "" {
		mode = attendance.Mode(*req.Mode)
	}

	data := attendance.Attendance{
		UserID:        req.UserID,
		CompanyID:     identity.CompanyID,
		Date:          req.Date,
		Status:        status,
		Mode:          mode,
		Source:        attendance.SourceManual,
		IsManualEntry: true,
		AddedBy:       &identity.UserID,
		Remarks:       req.Remarks,
	}

	switch status {
	case attendance.StatusPresent, attendance.StatusCompleted:
		in, out := syntheticWindow(req.Date, comp.Location())
		data.PunchInTime = &in
		data.PunchOutTime = &out
		data.NetWorkHours = 8
	case attendance.StatusHalfDay:
		in, out := syntheticWindow(req.Date, comp.Location())
		data.PunchInTime = &in
		data.PunchOutTime = &out
		data.NetWorkHours = 4
	case attendance.StatusOnLeave:
		data.NetWorkHours = 8
	}

	existing, err := a.AttendanceRepository.GetByUserAndDate(ctx, req.UserID, req.Date, identity.CompanyID)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	if existing != nil {
		// HR overwrite of an existing day keeps the record identity and marks
		// the edit.
		data.ID = existing.ID
		data.CreatedAt = existing.CreatedAt
		data.InImage = existing.InImage
		data.OutImage = existing.OutImage
		data.IsEdited = true
		data.EditedBy = &identity.UserID
		if err := a.AttendanceRepository.Update(ctx, data); err != nil {
			return attendance.AttendanceResponse{}, err
		}
		return a.toResponse(ctx, data), nil
	}

	created, err := a.AttendanceRepository.Create(ctx, data)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	return a.toResponse(ctx, created), nil
}

// syntheticWindow returns the fixed 09:00-18:00 punch pair for a manually
// entered or reconciled day, anchored in the tenant's time zone.
func syntheticWindow(date string, loc *time.Location) (time.Time, time.Time) {
	day, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		day = time.Now().In(loc)
	}
	in := time.Date(day.Year(), day.Month(), day.Day(), 9, 0, 0, 0, loc)
	out := time.Date(day.Year(), day.Month(), day.Day(), 18, 0, 0, 0, loc)
	return in.UTC(), out.UTC()
}

// GetMyAttendance implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetMyAttendance(ctx context.Context, filter attendance.MyFilter) (attendance.ListAttendanceResponse, error) {
	identity, err := jwt.IdentityFromContext(ctx)
	if err != nil {
		return attendance.ListAttendanceResponse{}, err
	}

	records, total, err := a.AttendanceRepository.ListMine(ctx, identity.UserID, filter, identity.CompanyID)
	if err != nil {
		return attendance.ListAttendanceResponse{}, err
	}

	return a.buildListResponse(ctx, records, total, filter.Page, filter.Limit), nil
}

// ListAttendance implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ListAttendance(ctx context.Context, filter attendance.Filter) (attendance.ListAttendanceResponse, error) {
	identity, err := jwt.IdentityFromContext(ctx)
	if err != nil {
		return attendance.ListAttendanceResponse{}, err
	}
	if !identity.Role.IsHRLevel() {
		return attendance.ListAttendanceResponse{}, user.ErrHRAccessRequired
	}

	records, total, err := a.AttendanceRepository.List(ctx, filter, identity.CompanyID)
	if err != nil {
		return attendance.ListAttendanceResponse{}, err
	}

	return a.buildListResponse(ctx, records, total, filter.Page, filter.Limit), nil
}

func (a *AttendanceServiceImpl) buildListResponse(ctx context.Context, records []attendance.Attendance, total int64, page, limit int) attendance.ListAttendanceResponse {
	if limit <= 0 {
		limit = 20
	}
	if page < 1 {
		page = 1
	}
	totalPages := int((total + int64(limit) - 1) / int64(limit))

	responses := make([]attendance.AttendanceResponse, 0, len(records))
	for _, att := range records {
		responses = append(responses, a.toResponse(ctx, att))
	}

	return attendance.ListAttendanceResponse{
		TotalCount:  total,
		Page:        page,
		Limit:       limit,
		TotalPages:  totalPages,
		Attendances: responses,
	}
}
