package domain

import (
	"time"
)

// User is an admin console account. Email and mobile are stored encrypted,
// with deterministic hashes for lookup.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	EmailHash    string    `json:"-"`
	Mobile       string    `json:"mobile,omitempty"`
	MobileHash   string    `json:"-"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name,omitempty"`
	IsVerified   bool      `json:"isVerified"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserCompany grants a user a role inside a company
type UserCompany struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	CompanyID string    `json:"companyId"`
	RoleID    string    `json:"roleId"`
	IsPrimary bool      `json:"isPrimary"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Populated by membership queries
	Company *Company `json:"company,omitempty"`
	Role    *Role    `json:"role,omitempty"`
}

// IsSuperAdmin reports whether the membership carries the super admin role
func (uc *UserCompany) IsSuperAdmin() bool {
	return uc.Role != nil && uc.Role.Slug == RoleSlugSuperAdmin
}
