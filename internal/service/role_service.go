package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/domain"
	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/dto"
	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/repository"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/database"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/logger"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrRoleNotFound         = errors.New("role not found")
	ErrRoleAlreadyExists    = errors.New("role with this slug already exists")
	ErrSystemRoleProtected  = errors.New("system roles cannot be deleted")
	ErrPermissionNotFound   = errors.New("permission not found")
	ErrPermissionExists     = errors.New("permission with this slug already exists")
	ErrUnknownPermissionIDs = errors.New("one or more permissions do not exist")
)

// seedResources get a read and a manage permission each
var seedResources = []string{"games", "members", "companies", "users", "roles", "audit", "settings", "prizes"}

// seedExtraPermissions are fine-grained permissions outside the read/manage pairs
var seedExtraPermissions = []struct{ Resource, Action, Description string }{
	{"members", "view_sensitive", "View unmasked member contact details"},
	{"members", "credit", "Adjust member balances"},
}

type systemRole struct {
	Slug, Name, Description string
	Level                   int
	// Grants lists permission slugs; nil grants everything
	Grants []string
}

var seedRoles = []systemRole{
	{Slug: domain.RoleSlugSuperAdmin, Name: "Super Admin", Description: "Full platform access", Level: middleware.RoleLevelSuperAdmin},
	{Slug: domain.RoleSlugCompanyAdmin, Name: "Company Admin", Description: "Manages one company", Level: middleware.RoleLevelCompanyAdmin, Grants: []string{
		"games:manage", "members:manage", "members:view_sensitive", "members:credit", "prizes:manage",
		"users:manage", "roles:read", "audit:read", "companies:read", "settings:read",
	}},
	{Slug: domain.RoleSlugStaff, Name: "Staff", Description: "Day to day member and prize operations", Level: middleware.RoleLevelStaff, Grants: []string{
		"games:read", "members:read", "members:credit", "prizes:manage", "audit:read", "companies:read",
	}},
	{Slug: domain.RoleSlugOperator, Name: "Operator", Description: "Read-only access", Level: middleware.RoleLevelOperator, Grants: []string{
		"games:read", "members:read", "prizes:read",
	}},
}

// RoleService manages roles, permissions and their seed data
type RoleService interface {
	Create(ctx context.Context, req *dto.CreateRoleRequest) (*domain.Role, error)
	GetByID(ctx context.Context, id string) (*domain.Role, error)
	List(ctx context.Context) ([]*domain.Role, error)
	Update(ctx context.Context, id string, req *dto.UpdateRoleRequest) (*domain.Role, error)
	Delete(ctx context.Context, id string) error
	// AssignPermissions replaces the role's permission set
	AssignPermissions(ctx context.Context, id string, permissionIDs []string) (*domain.Role, error)

	CreatePermission(ctx context.Context, req *dto.CreatePermissionRequest) (*domain.Permission, error)
	GetPermission(ctx context.Context, id string) (*domain.Permission, error)
	ListPermissions(ctx context.Context) ([]*domain.Permission, error)
	UpdatePermission(ctx context.Context, id string, req *dto.UpdatePermissionRequest) (*domain.Permission, error)
	DeletePermission(ctx context.Context, id string) error

	// Seed installs the default permissions and system roles, keeping existing rows
	Seed(ctx context.Context) error
}

type roleService struct {
	roles       repository.RoleRepository
	permissions repository.PermissionRepository
}

// NewRoleService creates a new RoleService
func NewRoleService(roles repository.RoleRepository, permissions repository.PermissionRepository) RoleService {
	return &roleService{roles: roles, permissions: permissions}
}

func (s *roleService) Create(ctx context.Context, req *dto.CreateRoleRequest) (*domain.Role, error) {
	slug := req.Slug
	if slug == "" {
		slug = Slugify(req.Name, "_")
	}
	if slug == "" {
		return nil, invalid("Slug must contain letters or numbers")
	}

	existing, err := s.roles.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrRoleAlreadyExists
	}

	level := req.Level
	if level == 0 {
		level = 1
	}

	now := time.Now()
	role := &domain.Role{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Slug:        slug,
		Description: req.Description,
		Level:       level,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.roles.Create(ctx, role); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrRoleAlreadyExists
		}
		return nil, err
	}

	if len(req.PermissionIDs) > 0 {
		return s.AssignPermissions(ctx, role.ID, req.PermissionIDs)
	}
	role.Permissions = []*domain.Permission{}
	return role, nil
}

func (s *roleService) GetByID(ctx context.Context, id string) (*domain.Role, error) {
	role, err := s.roles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, ErrRoleNotFound
	}
	return role, nil
}

func (s *roleService) List(ctx context.Context) ([]*domain.Role, error) {
	return s.roles.List(ctx)
}

func (s *roleService) Update(ctx context.Context, id string, req *dto.UpdateRoleRequest) (*domain.Role, error) {
	role, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		role.Name = *req.Name
	}
	if req.Description != nil {
		role.Description = *req.Description
	}
	if req.Level != nil {
		role.Level = *req.Level
	}
	role.UpdatedAt = time.Now()

	if err := s.roles.Update(ctx, role); err != nil {
		return nil, err
	}

	if req.PermissionIDs != nil {
		return s.AssignPermissions(ctx, id, req.PermissionIDs)
	}
	return role, nil
}

func (s *roleService) Delete(ctx context.Context, id string) error {
	role, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if role.IsSystem {
		return ErrSystemRoleProtected
	}
	return s.roles.Delete(ctx, id)
}

func (s *roleService) AssignPermissions(ctx context.Context, id string, permissionIDs []string) (*domain.Role, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}

	ids := uniqueStrings(permissionIDs)
	if len(ids) > 0 {
		found, err := s.permissions.GetByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		if len(found) != len(ids) {
			return nil, ErrUnknownPermissionIDs
		}
	}

	if err := s.roles.SetPermissions(ctx, id, ids); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

func (s *roleService) CreatePermission(ctx context.Context, req *dto.CreatePermissionRequest) (*domain.Permission, error) {
	slug := fmt.Sprintf("%s:%s", req.Resource, req.Action)

	existing, err := s.permissions.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrPermissionExists
	}

	name := req.Name
	if name == "" {
		name = fmt.Sprintf("%s %s", req.Resource, req.Action)
	}

	p := &domain.Permission{
		ID:          uuid.New().String(),
		Name:        name,
		Slug:        slug,
		Resource:    req.Resource,
		Action:      req.Action,
		Description: req.Description,
		CreatedAt:   time.Now(),
	}
	if err := s.permissions.Create(ctx, p); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrPermissionExists
		}
		return nil, err
	}
	return p, nil
}

func (s *roleService) GetPermission(ctx context.Context, id string) (*domain.Permission, error) {
	p, err := s.permissions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPermissionNotFound
	}
	return p, nil
}

func (s *roleService) ListPermissions(ctx context.Context) ([]*domain.Permission, error) {
	return s.permissions.List(ctx)
}

func (s *roleService) UpdatePermission(ctx context.Context, id string, req *dto.UpdatePermissionRequest) (*domain.Permission, error) {
	p, err := s.GetPermission(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Resource != nil {
		p.Resource = *req.Resource
	}
	if req.Action != nil {
		p.Action = *req.Action
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	p.Slug = fmt.Sprintf("%s:%s", p.Resource, p.Action)

	if err := s.permissions.Update(ctx, p); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrPermissionExists
		}
		return nil, err
	}
	return p, nil
}

func (s *roleService) DeletePermission(ctx context.Context, id string) error {
	if _, err := s.GetPermission(ctx, id); err != nil {
		return err
	}
	return s.permissions.Delete(ctx, id)
}

func (s *roleService) Seed(ctx context.Context) error {
	bySlug := make(map[string]*domain.Permission)

	ensure := func(resource, action, description string) error {
		slug := resource + ":" + action
		p, err := s.permissions.GetBySlug(ctx, slug)
		if err != nil {
			return err
		}
		if p == nil {
			p = &domain.Permission{
				ID:          uuid.New().String(),
				Name:        resource + " " + action,
				Slug:        slug,
				Resource:    resource,
				Action:      action,
				Description: description,
				CreatedAt:   time.Now(),
			}
			if err := s.permissions.Create(ctx, p); err != nil {
				return err
			}
		}
		bySlug[slug] = p
		return nil
	}

	for _, resource := range seedResources {
		if err := ensure(resource, "read", "View "+resource); err != nil {
			return err
		}
		if err := ensure(resource, "manage", "Manage "+resource); err != nil {
			return err
		}
	}
	for _, extra := range seedExtraPermissions {
		if err := ensure(extra.Resource, extra.Action, extra.Description); err != nil {
			return err
		}
	}

	for _, def := range seedRoles {
		role, err := s.roles.GetBySlug(ctx, def.Slug)
		if err != nil {
			return err
		}
		if role == nil {
			now := time.Now()
			role = &domain.Role{
				ID:          uuid.New().String(),
				Name:        def.Name,
				Slug:        def.Slug,
				Description: def.Description,
				IsSystem:    true,
				Level:       def.Level,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := s.roles.Create(ctx, role); err != nil {
				return err
			}
		} else if len(role.Permissions) > 0 {
			continue
		}

		ids := make([]string, 0, len(bySlug))
		if def.Grants == nil {
			for _, p := range bySlug {
				ids = append(ids, p.ID)
			}
		} else {
			for _, slug := range def.Grants {
				if p, ok := bySlug[slug]; ok {
					ids = append(ids, p.ID)
				}
			}
		}
		if err := s.roles.SetPermissions(ctx, role.ID, ids); err != nil {
			return err
		}
	}

	logger.Get().InfoContext(ctx, "roles and permissions seeded",
		zap.Int("permissions", len(bySlug)), zap.Int("roles", len(seedRoles)))
	return nil
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
