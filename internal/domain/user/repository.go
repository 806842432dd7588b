package user

import "context"

// UserRepository reads the user subset the attendance core needs. All methods
// take companyID to keep tenants isolated.
type UserRepository interface {
	// GetByID retrieves a user with company isolation.
	GetByID(ctx context.Context, id string, companyID string) (User, error)

	// ListActiveByCompany returns active users for a company, used by the
	// mark-absent background job.
	ListActiveByCompany(ctx context.Context, companyID string) ([]User, error)
}
