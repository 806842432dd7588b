package payroll

import "context"

type PayrollService interface {
	// GetAccrual computes payable days and estimated salary for a user over an
	// accrual window.
	GetAccrual(ctx context.Context, req AccrualRequest) (AccrualSummary, error)
}
