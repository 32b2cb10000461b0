package dto

// LoginRequest represents an admin login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// SwitchCompanyRequest changes the company context; "ALL" selects the global view
type SwitchCompanyRequest struct {
	CompanyID string `json:"companyId" binding:"required"`
}

// CompanyAccess describes one membership in a login response
type CompanyAccess struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	RoleID      string   `json:"roleId"`
	RoleName    string   `json:"roleName"`
	RoleLevel   int      `json:"roleLevel"`
	IsPrimary   bool     `json:"isPrimary"`
	Permissions []string `json:"permissions"`
}

// CurrentCompany is the company the token acts on
type CurrentCompany struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	RoleID    string `json:"roleId"`
	RoleName  string `json:"roleName"`
	RoleLevel int    `json:"roleLevel"`
}

// LoginUser is the user block of a login response
type LoginUser struct {
	ID             string          `json:"id"`
	Email          string          `json:"email"`
	Companies      []CompanyAccess `json:"companies"`
	CurrentCompany *CurrentCompany `json:"currentCompany"`
}

// LoginResponse is returned by admin login
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	User        LoginUser `json:"user"`
}

// TokenResponse carries only a token
type TokenResponse struct {
	AccessToken string `json:"access_token"`
}
