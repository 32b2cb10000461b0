package repository

import (
	"context"

	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/domain"
)

// RoleRepository defines data access for roles and their permission sets
type RoleRepository interface {
	Create(ctx context.Context, role *domain.Role) error
	GetByID(ctx context.Context, id string) (*domain.Role, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Role, error)
	List(ctx context.Context) ([]*domain.Role, error)
	Update(ctx context.Context, role *domain.Role) error
	Delete(ctx context.Context, id string) error
	// SetPermissions replaces the role's permission set
	SetPermissions(ctx context.Context, roleID string, permissionIDs []string) error
}

// PermissionRepository defines data access for permission definitions
type PermissionRepository interface {
	Create(ctx context.Context, permission *domain.Permission) error
	GetByID(ctx context.Context, id string) (*domain.Permission, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Permission, error)
	GetByIDs(ctx context.Context, ids []string) ([]*domain.Permission, error)
	List(ctx context.Context) ([]*domain.Permission, error)
	Update(ctx context.Context, permission *domain.Permission) error
	Delete(ctx context.Context, id string) error
}
