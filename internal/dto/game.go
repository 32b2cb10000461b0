package dto

import (
	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/domain"
)

// CreateGameRequest adds a game to the catalogue
type CreateGameRequest struct {
	Name         string                 `json:"name" binding:"required,max=255"`
	Slug         string                 `json:"slug" binding:"required,max=255"`
	Description  string                 `json:"description"`
	ThumbnailURL string                 `json:"thumbnailUrl" binding:"omitempty,url"`
	Type         string                 `json:"type" binding:"omitempty,max=50"`
	BaseWidth    *int                   `json:"baseWidth" binding:"omitempty,min=1,max=10000"`
	BaseHeight   *int                   `json:"baseHeight" binding:"omitempty,min=1,max=10000"`
	IsPortrait   *bool                  `json:"isPortrait"`
	IsActive     *bool                  `json:"isActive"`
	Config       map[string]interface{} `json:"config"`
}

// Validate checks the slug format
func (r *CreateGameRequest) Validate() (bool, string) {
	if !prizeSlugRegex.MatchString(r.Slug) {
		return false, "Slug must contain only lowercase letters, numbers, hyphens and underscores"
	}
	return true, ""
}

// UpdateGameRequest changes catalogue fields; nil fields are left alone
type UpdateGameRequest struct {
	Name         *string                 `json:"name" binding:"omitempty,max=255"`
	Slug         *string                 `json:"slug" binding:"omitempty,max=255"`
	Description  *string                 `json:"description"`
	ThumbnailURL *string                 `json:"thumbnailUrl" binding:"omitempty,url"`
	Type         *string                 `json:"type" binding:"omitempty,max=50"`
	BaseWidth    *int                    `json:"baseWidth" binding:"omitempty,min=1,max=10000"`
	BaseHeight   *int                    `json:"baseHeight" binding:"omitempty,min=1,max=10000"`
	IsPortrait   *bool                   `json:"isPortrait"`
	IsActive     *bool                   `json:"isActive"`
	Config       *map[string]interface{} `json:"config"`
}

// Validate checks the slug format when present
func (r *UpdateGameRequest) Validate() (bool, string) {
	if r.Slug != nil && !prizeSlugRegex.MatchString(*r.Slug) {
		return false, "Slug must contain only lowercase letters, numbers, hyphens and underscores"
	}
	return true, ""
}

// GameStatsResponse counts catalogue games per type
type GameStatsResponse struct {
	Total  int            `json:"total"`
	ByType map[string]int `json:"byType"`
}

// CreateGameInstanceRequest configures a catalogue game for a company.
// CompanyID is honoured for super admins only.
type CreateGameInstanceRequest struct {
	GameID    string                 `json:"gameId" binding:"required,uuid"`
	CompanyID string                 `json:"companyId" binding:"omitempty,uuid"`
	Name      string                 `json:"name" binding:"required,max=255"`
	Slug      string                 `json:"slug" binding:"required,max=255"`
	Config    map[string]interface{} `json:"config"`
	IsActive  *bool                  `json:"isActive"`
}

// Validate checks the slug format
func (r *CreateGameInstanceRequest) Validate() (bool, string) {
	if !prizeSlugRegex.MatchString(r.Slug) {
		return false, "Slug must contain only lowercase letters, numbers, hyphens and underscores"
	}
	return true, ""
}

// UpdateGameInstanceRequest changes an instance; nil fields are left alone
type UpdateGameInstanceRequest struct {
	Name     *string                 `json:"name" binding:"omitempty,max=255"`
	Slug     *string                 `json:"slug" binding:"omitempty,max=255"`
	Config   *map[string]interface{} `json:"config"`
	IsActive *bool                   `json:"isActive"`
}

// Validate checks the slug format when present
func (r *UpdateGameInstanceRequest) Validate() (bool, string) {
	if r.Slug != nil && !prizeSlugRegex.MatchString(*r.Slug) {
		return false, "Slug must contain only lowercase letters, numbers, hyphens and underscores"
	}
	return true, ""
}

// ListGameInstancesQuery represents query parameters for the admin instance list
type ListGameInstancesQuery struct {
	PageQuery
	CompanyID string `form:"companyId"`
}

// SubmitScoreRequest is a member's play result.
// metadata.prizeIndex selects the won entry of the instance's prizeList;
// metadata.isLose marks a losing play.
type SubmitScoreRequest struct {
	InstanceSlug string                 `json:"instanceSlug" binding:"required,max=255"`
	Score        int64                  `json:"score" binding:"min=0,max=1000000000000"`
	Metadata     map[string]interface{} `json:"metadata"`
}

// SubmitScoreResponse is the recorded score plus the prize it won, if any
type SubmitScoreResponse struct {
	Score *domain.Score       `json:"score"`
	Prize *domain.MemberPrize `json:"prize,omitempty"`
}
