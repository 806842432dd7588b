package user

import (
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleSuperAdmin   Role = "super_admin"
	RoleCompanyAdmin Role = "company_admin"
	RoleHR           Role = "hr"
	RoleEmployee     Role = "employee"
)

// IsHRLevel reports whether the role may manage other employees' attendance
// and leave within its company.
func (r Role) IsHRLevel() bool {
	return r == RoleHR || r == RoleCompanyAdmin || r == RoleSuperAdmin
}

type User struct {
	ID        string
	CompanyID string
	FullName  string
	Email     string
	Role      Role

	// FaceDescriptor is the stored reference face encoding, set at registration.
	// Kept as the raw persisted representation (JSON array or CSV string); the
	// facematch package owns parsing.
	FaceDescriptor *string

	BasicSalary decimal.Decimal
	JoiningDate *time.Time

	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
