package company

import "context"

type CompanyRepository interface {
	GetByID(ctx context.Context, id string) (Company, error)

	// ListActiveIDs returns the IDs of all active tenants, used by background jobs.
	ListActiveIDs(ctx context.Context) ([]string, error)
}
