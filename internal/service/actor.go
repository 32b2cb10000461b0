package service

import (
	"github.com/google/uuid"
)

// Actor is the admin user on whose behalf a service call runs
type Actor struct {
	UserID       string
	UserName     string
	CompanyID    string
	IsSuperAdmin bool
	RoleLevel    int
	Permissions  []string
}

// CanAccessCompany reports whether the actor may act on companyID
func (a *Actor) CanAccessCompany(companyID string) bool {
	return a.IsSuperAdmin || (a.CompanyID != "" && a.CompanyID == companyID)
}

// HasExactPermission reports whether the actor holds exactly perm. The resource:manage
// shorthand does not apply.
func (a *Actor) HasExactPermission(perm string) bool {
	for _, p := range a.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// ScopeCompany returns the company a listing is restricted to. Super admins may pick
// any company or none; everyone else is pinned to their current company.
func (a *Actor) ScopeCompany(requested string) (string, error) {
	if a.IsSuperAdmin {
		if requested != "" {
			if _, err := uuid.Parse(requested); err != nil {
				return "", invalid("companyId must be a valid UUID")
			}
		}
		return requested, nil
	}
	if a.CompanyID == "" {
		return "", denied("No company selected")
	}
	if requested != "" && requested != a.CompanyID {
		return "", denied("You do not have access to this company")
	}
	return a.CompanyID, nil
}
