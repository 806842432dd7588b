package postgresql

import (
	"context"
	"fmt"

	"github.com/attendly-hr/attendly-backend-go/internal/domain/holiday"
	"github.com/attendly-hr/attendly-backend-go/internal/pkg/database"
)

type holidayRepository struct {
	db *database.DB
}

func NewHolidayRepository(db *database.DB) holiday.HolidayRepository {
	return &holidayRepository{db: db}
}

// ListRange implements holiday.HolidayRepository.
func (r *holidayRepository) ListRange(ctx context.Context, companyID, startDate, endDate string) ([]holiday.Holiday, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT h.id, h.company_id, h.date, h.name, h.created_at
		FROM holidays h
		WHERE h.company_id = $1
		  AND h.date >= $2
		  AND h.date <= $3
		ORDER BY h.date ASC
	`

	rows, err := q.Query(ctx, query, companyID, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query holidays: %w", err)
	}
	defer rows.Close()

	var holidays []holiday.Holiday
	for rows.Next() {
		var h holiday.Holiday
		if err := rows.Scan(&h.ID, &h.CompanyID, &h.Date, &h.Name, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan holiday: %w", err)
		}
		holidays = append(holidays, h)
	}

	return holidays, rows.Err()
}
