package holiday

import "context"

type HolidayRepository interface {
	// ListRange returns holidays for a company with startDate <= date <= endDate.
	ListRange(ctx context.Context, companyID, startDate, endDate string) ([]Holiday, error)
}
