package attendance

import "context"

// AttendanceRepository defines data access for attendance records. All methods
// take companyID to prevent cross-company access. Date parameters are tenant-local
// "YYYY-MM-DD" strings.
type AttendanceRepository interface {
	// Create inserts a new record. The unique index on (user_id, date) is the
	// sole source of truth for duplicates: a unique violation is returned as
	// ErrAlreadyMarked, any prior existence check is advisory only.
	Create(ctx context.Context, att Attendance) (Attendance, error)

	// GetByUserAndDate returns the record for (user, date), or (nil, nil) when
	// none exists.
	GetByUserAndDate(ctx context.Context, userID, date, companyID string) (*Attendance, error)

	// GetOpenSession returns today's record with punch_out still null.
	// Returns ErrNoActiveSession when there is none.
	GetOpenSession(ctx context.Context, userID, date, companyID string) (Attendance, error)

	// Update writes the mutable fields of an existing record.
	Update(ctx context.Context, att Attendance) error

	// ListRange returns all records for a user with startDate <= date <= endDate,
	// ordered by date. Used by the payroll accrual engine.
	ListRange(ctx context.Context, userID, companyID, startDate, endDate string) ([]Attendance, error)

	// List retrieves company records with filters and pagination (HR view).
	List(ctx context.Context, filter Filter, companyID string) ([]Attendance, int64, error)

	// ListMine retrieves records for one user with filters and pagination.
	ListMine(ctx context.Context, userID string, filter MyFilter, companyID string) ([]Attendance, int64, error)
}
