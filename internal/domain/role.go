package domain

import (
	"time"
)

// System role slugs
const (
	RoleSlugSuperAdmin   = "super_admin"
	RoleSlugCompanyAdmin = "company_admin"
	RoleSlugStaff        = "staff"
	RoleSlugOperator     = "operator"
)

// Role is a named permission set with a privilege level
type Role struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Slug        string        `json:"slug"`
	Description string        `json:"description,omitempty"`
	IsSystem    bool          `json:"isSystem"`
	Level       int           `json:"level"`
	Permissions []*Permission `json:"permissions"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// PermissionSlugs returns the slugs of the role's permissions
func (r *Role) PermissionSlugs() []string {
	slugs := make([]string, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		slugs = append(slugs, p.Slug)
	}
	return slugs
}

// Permission grants one action on one resource, slug "resource:action"
type Permission struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Resource    string    `json:"resource"`
	Action      string    `json:"action"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}
