package dto

import (
	"regexp"

	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/domain"
)

var prizeSlugRegex = regexp.MustCompile(`^[a-z0-9_-]+$`)

// CreatePrizeTypeRequest represents request to create a prize type
type CreatePrizeTypeRequest struct {
	Name        string                 `json:"name" binding:"required,max=255"`
	Slug        string                 `json:"slug" binding:"required,max=100"`
	Strategy    domain.PrizeStrategy   `json:"strategy" binding:"required"`
	Icon        string                 `json:"icon" binding:"omitempty,max=50"`
	Description string                 `json:"description"`
	Config      map[string]interface{} `json:"config"`
	ShowValue   *bool                  `json:"showValue"`
	IsPoints    *bool                  `json:"isPoints"`
	IsActive    *bool                  `json:"isActive"`
	CompanyID   *string                `json:"companyId"`
}

// Validate checks the strategy and slug format
func (r *CreatePrizeTypeRequest) Validate() (bool, string) {
	if !r.Strategy.IsValid() {
		return false, "strategy must be one of balance_credit, manual_fulfill, virtual_code, external_hook"
	}
	if !prizeSlugRegex.MatchString(r.Slug) {
		return false, "Slug must contain only lowercase letters, numbers, hyphens and underscores"
	}
	return true, ""
}

// UpdatePrizeTypeRequest represents request to update a prize type
type UpdatePrizeTypeRequest struct {
	Name        *string                 `json:"name" binding:"omitempty,max=255"`
	Slug        *string                 `json:"slug" binding:"omitempty,max=100"`
	Strategy    *domain.PrizeStrategy   `json:"strategy"`
	Icon        *string                 `json:"icon" binding:"omitempty,max=50"`
	Description *string                 `json:"description"`
	Config      *map[string]interface{} `json:"config"`
	ShowValue   *bool                   `json:"showValue"`
	IsPoints    *bool                   `json:"isPoints"`
	IsActive    *bool                   `json:"isActive"`
	CompanyID   *string                 `json:"companyId"`
}

// Validate validates that at least one field is provided and the values are well formed
func (r *UpdatePrizeTypeRequest) Validate() (bool, string) {
	if r.Name == nil && r.Slug == nil && r.Strategy == nil && r.Icon == nil && r.Description == nil &&
		r.Config == nil && r.ShowValue == nil && r.IsPoints == nil && r.IsActive == nil && r.CompanyID == nil {
		return false, "At least one field must be provided for update"
	}
	if r.Strategy != nil && !r.Strategy.IsValid() {
		return false, "strategy must be one of balance_credit, manual_fulfill, virtual_code, external_hook"
	}
	if r.Slug != nil && !prizeSlugRegex.MatchString(*r.Slug) {
		return false, "Slug must contain only lowercase letters, numbers, hyphens and underscores"
	}
	return true, ""
}
