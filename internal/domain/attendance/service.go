package attendance

import "context"

// AttendanceService owns the per-user-per-day punch state machine.
type AttendanceService interface {
	// PunchIn creates today's record after face and geofence validation.
	PunchIn(ctx context.Context, req PunchInRequest) (AttendanceResponse, error)

	// StartBreak transitions today's open record from Present to OnBreak.
	StartBreak(ctx context.Context) (AttendanceResponse, error)

	// EndBreak resets today's record to Present. Lenient: tolerated even when
	// the record is not currently OnBreak.
	EndBreak(ctx context.Context) (AttendanceResponse, error)

	// PunchOut closes today's open record, deriving net hours and final status.
	PunchOut(ctx context.Context, req PunchOutRequest) (AttendanceResponse, error)

	// ManualEntry lets HR create or overwrite a record for an arbitrary
	// (user, date), bypassing face and geofence checks.
	ManualEntry(ctx context.Context, req ManualEntryRequest) (AttendanceResponse, error)

	// GetMyAttendance retrieves records for the authenticated user.
	GetMyAttendance(ctx context.Context, filter MyFilter) (ListAttendanceResponse, error)

	// ListAttendance retrieves company records with filters (HR view).
	ListAttendance(ctx context.Context, filter Filter) (ListAttendanceResponse, error)
}
