package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/attendly-hr/attendly-backend-go/internal/domain/leave"
	"github.com/attendly-hr/attendly-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type leaveRequestRepository struct {
	db *database.DB
}

func NewLeaveRequestRepository(db *database.DB) leave.LeaveRequestRepository {
	return &leaveRequestRepository{db: db}
}

const leaveColumns = `
	lr.id, lr.user_id, lr.company_id, lr.leave_type, lr.day_type,
	lr.start_date, lr.end_date, lr.days_count, lr.reason,
	lr.status, lr.action_by, lr.action_at, lr.created_at, lr.updated_at`

func scanLeaveRequest(row pgx.Row) (leave.LeaveRequest, error) {
	var req leave.LeaveRequest
	err := row.Scan(
		&req.ID, &req.UserID, &req.CompanyID, &req.LeaveType, &req.DayType,
		&req.StartDate, &req.EndDate, &req.DaysCount, &req.Reason,
		&req.Status, &req.ActionBy, &req.ActionAt, &req.CreatedAt, &req.UpdatedAt,
	)
	return req, err
}

// Create implements leave.LeaveRequestRepository.
func (l *leaveRequestRepository) Create(ctx context.Context, req leave.LeaveRequest) (leave.LeaveRequest, error) {
	q := GetQuerier(ctx, l.db)

	query := `
		INSERT INTO leave_requests (
			id, user_id, company_id, leave_type, day_type,
			start_date, end_date, days_count, reason, status
		) VALUES (
			gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, $8, $9
		) RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		req.UserID,
		req.CompanyID,
		req.LeaveType,
		req.DayType,
		req.StartDate,
		req.EndDate,
		req.DaysCount,
		req.Reason,
		req.Status,
	).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt)

	if err != nil {
		return leave.LeaveRequest{}, fmt.Errorf("failed to create leave request: %w", err)
	}

	return req, nil
}

// GetByID implements leave.LeaveRequestRepository.
func (l *leaveRequestRepository) GetByID(ctx context.Context, id, companyID string) (leave.LeaveRequest, error) {
	q := GetQuerier(ctx, l.db)

	query := `
		SELECT ` + leaveColumns + `
		FROM leave_requests lr
		WHERE lr.id = $1 AND lr.company_id = $2
	`

	req, err := scanLeaveRequest(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.LeaveRequest{}, leave.ErrLeaveNotFound
		}
		return leave.LeaveRequest{}, fmt.Errorf("failed to get leave request: %w", err)
	}

	return req, nil
}

// UpdateStatus implements leave.LeaveRequestRepository.
func (l *leaveRequestRepository) UpdateStatus(ctx context.Context, id string, status leave.RequestStatus, actionBy string, actionAt time.Time) error {
	q := GetQuerier(ctx, l.db)

	query := `
		UPDATE leave_requests
		SET status = $1, action_by = $2, action_at = $3, updated_at = $3
		WHERE id = $4
		RETURNING id
	`

	var updatedID string
	err := q.QueryRow(ctx, query, status, actionBy, actionAt, id).Scan(&updatedID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.ErrLeaveNotFound
		}
		return fmt.Errorf("failed to update leave request status: %w", err)
	}

	return nil
}

// HasOverlapping implements leave.LeaveRequestRepository.
func (l *leaveRequestRepository) HasOverlapping(ctx context.Context, userID string, start, end time.Time) (bool, error) {
	q := GetQuerier(ctx, l.db)

	query := `
		SELECT EXISTS (
			SELECT 1
			FROM leave_requests lr
			WHERE lr.user_id = $1
			  AND lr.status IN ('pending', 'approved')
			  AND lr.start_date <= $3
			  AND lr.end_date >= $2
		)
	`

	var exists bool
	if err := q.QueryRow(ctx, query, userID, start, end).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check overlapping leave: %w", err)
	}

	return exists, nil
}

// ListByUser implements leave.LeaveRequestRepository.
func (l *leaveRequestRepository) ListByUser(ctx context.Context, userID, companyID string) ([]leave.LeaveRequest, error) {
	q := GetQuerier(ctx, l.db)

	query := `
		SELECT ` + leaveColumns + `
		FROM leave_requests lr
		WHERE lr.user_id = $1 AND lr.company_id = $2
		ORDER BY lr.created_at DESC
	`

	rows, err := q.Query(ctx, query, userID, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query leave requests: %w", err)
	}
	defer rows.Close()

	var requests []leave.LeaveRequest
	for rows.Next() {
		req, err := scanLeaveRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leave request: %w", err)
		}
		requests = append(requests, req)
	}

	return requests, rows.Err()
}

// ListPending implements leave.LeaveRequestRepository.
func (l *leaveRequestRepository) ListPending(ctx context.Context, companyID string) ([]leave.LeaveRequest, error) {
	q := GetQuerier(ctx, l.db)

	query := `
		SELECT ` + leaveColumns + `,
			u.full_name AS user_name
		FROM leave_requests lr
		LEFT JOIN users u ON u.id = lr.user_id
		WHERE lr.company_id = $1 AND lr.status = 'pending'
		ORDER BY lr.created_at ASC
	`

	rows, err := q.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending leave requests: %w", err)
	}
	defer rows.Close()

	var requests []leave.LeaveRequest
	for rows.Next() {
		var req leave.LeaveRequest
		err := rows.Scan(
			&req.ID, &req.UserID, &req.CompanyID, &req.LeaveType, &req.DayType,
			&req.StartDate, &req.EndDate, &req.DaysCount, &req.Reason,
			&req.Status, &req.ActionBy, &req.ActionAt, &req.CreatedAt, &req.UpdatedAt,
			&req.UserName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leave request: %w", err)
		}
		requests = append(requests, req)
	}

	return requests, rows.Err()
}

// ListApprovedFrom implements leave.LeaveRequestRepository.
func (l *leaveRequestRepository) ListApprovedFrom(ctx context.Context, userID string, windowStart, windowEnd time.Time) ([]leave.LeaveRequest, error) {
	q := GetQuerier(ctx, l.db)

	query := `
		SELECT ` + leaveColumns + `
		FROM leave_requests lr
		WHERE lr.user_id = $1
		  AND lr.status = 'approved'
		  AND lr.start_date >= $2
		  AND lr.start_date <= $3
		ORDER BY lr.start_date ASC
	`

	rows, err := q.Query(ctx, query, userID, windowStart, windowEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to query approved leave requests: %w", err)
	}
	defer rows.Close()

	var requests []leave.LeaveRequest
	for rows.Next() {
		req, err := scanLeaveRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leave request: %w", err)
		}
		requests = append(requests, req)
	}

	return requests, rows.Err()
}
