package dto

import (
	"time"

	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/domain"
)

// CreateUserRequest represents request to create an admin user
type CreateUserRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=8"`
	Name       string `json:"name" binding:"omitempty,max=255"`
	Mobile     string `json:"mobile" binding:"omitempty,max=50"`
	IsVerified bool   `json:"isVerified"`
}

// UpdateUserRequest represents request to update an admin user
type UpdateUserRequest struct {
	Email      *string `json:"email" binding:"omitempty,email"`
	Password   *string `json:"password" binding:"omitempty,min=8"`
	Name       *string `json:"name" binding:"omitempty,max=255"`
	Mobile     *string `json:"mobile" binding:"omitempty,max=50"`
	IsVerified *bool   `json:"isVerified"`
	IsActive   *bool   `json:"isActive"`
}

// ListUsersQuery represents query parameters for listing users
type ListUsersQuery struct {
	PageQuery
	CompanyID string `form:"companyId"`
}

// UserResponse represents user data in responses
type UserResponse struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Mobile     string `json:"mobile,omitempty"`
	Name       string `json:"name,omitempty"`
	IsVerified bool   `json:"isVerified"`
	IsActive   bool   `json:"isActive"`
	CreatedAt  string `json:"createdAt"`
	UpdatedAt  string `json:"updatedAt"`
}

// NewUserResponse converts a domain user whose contact fields are already decrypted
func NewUserResponse(u *domain.User) *UserResponse {
	return &UserResponse{
		ID:         u.ID,
		Email:      u.Email,
		Mobile:     u.Mobile,
		Name:       u.Name,
		IsVerified: u.IsVerified,
		IsActive:   u.IsActive,
		CreatedAt:  u.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  u.UpdatedAt.Format(time.RFC3339),
	}
}

// AddUserCompanyRequest grants a user access to a company
type AddUserCompanyRequest struct {
	CompanyID string `json:"companyId" binding:"required"`
	RoleID    string `json:"roleId" binding:"required"`
	IsPrimary bool   `json:"isPrimary"`
}

// UpdateUserCompanyRoleRequest changes the role of a membership
type UpdateUserCompanyRoleRequest struct {
	RoleID string `json:"roleId" binding:"required"`
}
