package repository

import (
	"context"

	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/domain"
)

// UserRepository defines data access for admin users. Email and mobile are passed encrypted.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmailHash(ctx context.Context, emailHash string) (*domain.User, error)
	// List returns users; companyID restricts to members of that company when set
	List(ctx context.Context, companyID string, page, limit int) ([]*domain.User, int, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
}

// UserCompanyRepository defines data access for user memberships in companies
type UserCompanyRepository interface {
	Create(ctx context.Context, uc *domain.UserCompany) error
	Get(ctx context.Context, userID, companyID string) (*domain.UserCompany, error)
	// ListByUser returns active memberships with company and role (with permissions), primary first
	ListByUser(ctx context.Context, userID string) ([]*domain.UserCompany, error)
	Delete(ctx context.Context, userID, companyID string) error
	UpdateRole(ctx context.Context, userID, companyID, roleID string) error
	// SetPrimary marks one membership primary and clears the flag on the others
	SetPrimary(ctx context.Context, userID, companyID string) error
}
