package payroll

import (
	"github.com/shopspring/decimal"
)

// AccrualSummary is the output of the payroll accrual engine for one user over
// one accrual window. Computing it is pure: identical inputs always produce an
// identical summary.
type AccrualSummary struct {
	UserID    string `json:"user_id"`
	CompanyID string `json:"company_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`

	PresentDays  int `json:"present_days"`
	HalfDays     int `json:"half_days"`
	WFHDays      int `json:"wfh_days"`
	HolidayCount int `json:"holiday_count"`

	PaidLeaveDays   float64 `json:"paid_leave_days"`
	UnpaidLeaveDays float64 `json:"unpaid_leave_days"`

	TotalPayableDays float64 `json:"total_payable_days"`

	BasicSalary     decimal.Decimal `json:"basic_salary"`
	PerDaySalary    decimal.Decimal `json:"per_day_salary"`
	EstimatedSalary decimal.Decimal `json:"estimated_salary"`
}
