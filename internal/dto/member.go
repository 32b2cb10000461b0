package dto

import (
	"time"

	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/domain"
)

// ListMembersQuery represents query parameters for listing members
type ListMembersQuery struct {
	PageQuery
	CompanyID  string `form:"companyId"`
	Username   string `form:"username"`
	ExternalID string `form:"externalId"`
}

// MemberResponse represents a member as shown to admins
type MemberResponse struct {
	ID            string                 `json:"id"`
	CompanyID     string                 `json:"companyId"`
	CompanyName   string                 `json:"companyName,omitempty"`
	ExternalID    *string                `json:"externalId"`
	Username      string                 `json:"username"`
	PointsBalance int64                  `json:"pointsBalance"`
	IsAnonymous   bool                   `json:"isAnonymous"`
	IsActive      bool                   `json:"isActive"`
	Email         string                 `json:"email,omitempty"`
	Phone         string                 `json:"phone,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt     string                 `json:"createdAt"`
	UpdatedAt     string                 `json:"updatedAt"`
}

// NewMemberResponse converts a domain member
func NewMemberResponse(m *domain.Member) *MemberResponse {
	return &MemberResponse{
		ID:            m.ID,
		CompanyID:     m.CompanyID,
		CompanyName:   m.CompanyName,
		ExternalID:    m.ExternalID,
		Username:      m.Username,
		PointsBalance: m.PointsBalance,
		IsAnonymous:   m.IsAnonymous,
		IsActive:      m.IsActive,
		Email:         m.Email,
		Phone:         m.Phone,
		Metadata:      m.Metadata,
		CreatedAt:     m.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     m.UpdatedAt.Format(time.RFC3339),
	}
}

// CreateMemberRequest represents an admin creating a member
type CreateMemberRequest struct {
	CompanyID  string                 `json:"companyId"`
	Username   string                 `json:"username" binding:"required,max=100"`
	Password   string                 `json:"password" binding:"omitempty,min=6"`
	ExternalID string                 `json:"externalId" binding:"omitempty,max=255"`
	Email      string                 `json:"email" binding:"omitempty,email"`
	Phone      string                 `json:"phone" binding:"omitempty,max=50"`
	Metadata   map[string]interface{} `json:"metadata"`
}

// UpdateMemberRequest represents an admin editing a member. The company cannot change.
type UpdateMemberRequest struct {
	Username   *string                 `json:"username" binding:"omitempty,max=100"`
	ExternalID *string                 `json:"externalId" binding:"omitempty,max=255"`
	Email      *string                 `json:"email" binding:"omitempty,email"`
	Phone      *string                 `json:"phone" binding:"omitempty,max=50"`
	Metadata   *map[string]interface{} `json:"metadata"`
	IsActive   *bool                   `json:"isActive"`
}

// ToggleStatusRequest sets is_active; an empty body flips it
type ToggleStatusRequest struct {
	IsActive *bool `json:"isActive"`
}

// ResetPasswordRequest sets a member password
type ResetPasswordRequest struct {
	Password string `json:"password"`
}

// AdjustCreditRequest changes a member balance by Amount (negative debits)
type AdjustCreditRequest struct {
	Amount int64  `json:"amount" binding:"required"`
	Reason string `json:"reason" binding:"omitempty,max=500"`
	Type   string `json:"type" binding:"omitempty,max=50"`
}

// AdjustCreditResponse returns the updated member and the ledger entry
type AdjustCreditResponse struct {
	Member      *MemberResponse           `json:"member"`
	Transaction *domain.CreditTransaction `json:"transaction"`
}

// CreditHistoryQuery represents query parameters for company-wide credit history
type CreditHistoryQuery struct {
	PageQuery
	CompanyID string `form:"companyId"`
	MemberID  string `form:"memberId"`
	Type      string `form:"type"`
}

// ImpersonateResponse carries a member token for the web app
type ImpersonateResponse struct {
	AccessToken string `json:"access_token"`
	RedirectURL string `json:"redirectUrl"`
}

// ExternalAuthRequest is a signed login from a company's own system
type ExternalAuthRequest struct {
	CompanySlug string `json:"companySlug" binding:"required"`
	ExternalID  string `json:"externalId" binding:"required"`
	Username    string `json:"username"`
	Timestamp   int64  `json:"timestamp" binding:"required"`
	Signature   string `json:"signature" binding:"required"`
}

// MemberSummary is the member block of a member login response
type MemberSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Points   int64  `json:"points"`
}

// MemberTokenResponse is returned by member logins
type MemberTokenResponse struct {
	AccessToken string        `json:"access_token"`
	Member      MemberSummary `json:"member"`
}

// GuestLoginRequest creates an anonymous member
type GuestLoginRequest struct {
	CompanySlug string `json:"companySlug" binding:"required"`
}

// LinkAccountRequest upgrades the calling guest to a signed external account
type LinkAccountRequest struct {
	ExternalAuthRequest
}
