package dto

import (
	"time"

	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/domain"
)

// CreateCompanyRequest represents request to create a company
type CreateCompanyRequest struct {
	Name      string                 `json:"name" binding:"required,min=2,max=255"`
	Slug      string                 `json:"slug" binding:"omitempty,max=100"`
	Settings  map[string]interface{} `json:"settings"`
	APISecret string                 `json:"apiSecret" binding:"omitempty,min=16"`
}

// UpdateCompanyRequest represents request to update a company
type UpdateCompanyRequest struct {
	Name     *string                 `json:"name" binding:"omitempty,min=2,max=255"`
	Slug     *string                 `json:"slug" binding:"omitempty,max=100"`
	Settings *map[string]interface{} `json:"settings"`
	IsActive *bool                   `json:"isActive"`
}

// Validate validates that at least one field is provided for update
func (r *UpdateCompanyRequest) Validate() (bool, string) {
	if r.Name == nil && r.Slug == nil && r.Settings == nil && r.IsActive == nil {
		return false, "At least one field must be provided for update"
	}
	return true, ""
}

// ListCompaniesQuery represents query parameters for listing companies
type ListCompaniesQuery struct {
	PageQuery
	IsActive *bool  `form:"isActive"`
	Search   string `form:"search" binding:"omitempty,max=255"`
}

// CompanyResponse represents company data in responses. The API secret is never included.
type CompanyResponse struct {
	ID         string                 `json:"id"`
	Name       string                 `json:"name"`
	Slug       string                 `json:"slug"`
	Settings   map[string]interface{} `json:"settings,omitempty"`
	IsActive   bool                   `json:"isActive"`
	InactiveAt *string                `json:"inactiveAt,omitempty"`
	CreatedAt  string                 `json:"createdAt"`
	UpdatedAt  string                 `json:"updatedAt"`
	// APISecret is set only right after creation or rotation
	APISecret string `json:"apiSecret,omitempty"`
}

// NewCompanyResponse converts a domain company
func NewCompanyResponse(c *domain.Company) *CompanyResponse {
	resp := &CompanyResponse{
		ID:        c.ID,
		Name:      c.Name,
		Slug:      c.Slug,
		Settings:  c.Settings,
		IsActive:  c.IsActive,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
		UpdatedAt: c.UpdatedAt.Format(time.RFC3339),
	}
	if c.InactiveAt != nil {
		s := c.InactiveAt.Format(time.RFC3339)
		resp.InactiveAt = &s
	}
	return resp
}
