package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/domain"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRoleRepository implements RoleRepository using PostgreSQL
type PostgresRoleRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRoleRepository creates a new PostgresRoleRepository
func NewPostgresRoleRepository(pool *pgxpool.Pool) *PostgresRoleRepository {
	return &PostgresRoleRepository{pool: pool}
}

const roleColumns = `id, name, slug, COALESCE(description, ''), is_system, level, created_at, updated_at`

func scanRole(row pgx.Row) (*domain.Role, error) {
	role := &domain.Role{}
	err := row.Scan(
		&role.ID,
		&role.Name,
		&role.Slug,
		&role.Description,
		&role.IsSystem,
		&role.Level,
		&role.CreatedAt,
		&role.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return role, nil
}

func (r *PostgresRoleRepository) queryOne(ctx context.Context, where string, arg interface{}) (*domain.Role, error) {
	role, err := scanRole(r.pool.QueryRow(ctx, fmt.Sprintf("SELECT %s FROM roles %s", roleColumns, where), arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := r.loadPermissions(ctx, []*domain.Role{role}); err != nil {
		return nil, err
	}
	return role, nil
}

// loadPermissions fills Permissions for every role in one query
func (r *PostgresRoleRepository) loadPermissions(ctx context.Context, roles []*domain.Role) error {
	if len(roles) == 0 {
		return nil
	}
	byID := make(map[string]*domain.Role, len(roles))
	ids := make([]string, 0, len(roles))
	for _, role := range roles {
		role.Permissions = make([]*domain.Permission, 0)
		byID[role.ID] = role
		ids = append(ids, role.ID)
	}

	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT rp.role_id, %s
		FROM role_permissions rp JOIN permissions p ON p.id = rp.permission_id
		WHERE rp.role_id = ANY($1)
		ORDER BY p.slug
	`, permissionColumns), ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var roleID string
		p := &domain.Permission{}
		if err := rows.Scan(&roleID, &p.ID, &p.Name, &p.Slug, &p.Resource, &p.Action, &p.Description, &p.CreatedAt); err != nil {
			return err
		}
		if role, ok := byID[roleID]; ok {
			role.Permissions = append(role.Permissions, p)
		}
	}
	return rows.Err()
}

// Create creates a new role
func (r *PostgresRoleRepository) Create(ctx context.Context, role *domain.Role) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO roles (id, name, slug, description, is_system, level, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, role.ID, role.Name, role.Slug, nullIfEmpty(role.Description), role.IsSystem, role.Level, role.CreatedAt, role.UpdatedAt)
	return err
}

// GetByID retrieves a role with permissions
func (r *PostgresRoleRepository) GetByID(ctx context.Context, id string) (*domain.Role, error) {
	return r.queryOne(ctx, "WHERE id = $1", id)
}

// GetBySlug retrieves a role with permissions
func (r *PostgresRoleRepository) GetBySlug(ctx context.Context, slug string) (*domain.Role, error) {
	return r.queryOne(ctx, "WHERE slug = $1", slug)
}

// List retrieves all roles, most privileged first
func (r *PostgresRoleRepository) List(ctx context.Context) ([]*domain.Role, error) {
	rows, err := r.pool.Query(ctx, fmt.Sprintf("SELECT %s FROM roles ORDER BY level DESC, name ASC", roleColumns))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	roles := make([]*domain.Role, 0)
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	if err := r.loadPermissions(ctx, roles); err != nil {
		return nil, err
	}
	return roles, nil
}

// Update updates a role's attributes
func (r *PostgresRoleRepository) Update(ctx context.Context, role *domain.Role) error {
	role.UpdatedAt = time.Now()
	result, err := r.pool.Exec(ctx, `
		UPDATE roles SET name = $2, slug = $3, description = $4, level = $5, updated_at = $6 WHERE id = $1
	`, role.ID, role.Name, role.Slug, nullIfEmpty(role.Description), role.Level, role.UpdatedAt)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("role %s not found", role.ID)
	}
	return nil
}

// Delete removes a role
func (r *PostgresRoleRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	return err
}

// SetPermissions replaces the permission set in one transaction
func (r *PostgresRoleRepository) SetPermissions(ctx context.Context, roleID string, permissionIDs []string) error {
	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, roleID); err != nil {
			return err
		}
		if len(permissionIDs) == 0 {
			return nil
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO role_permissions (role_id, permission_id)
			SELECT $1, unnest($2::uuid[])
			ON CONFLICT DO NOTHING
		`, roleID, permissionIDs)
		return err
	})
}

// PostgresPermissionRepository implements PermissionRepository using PostgreSQL
type PostgresPermissionRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresPermissionRepository creates a new PostgresPermissionRepository
func NewPostgresPermissionRepository(pool *pgxpool.Pool) *PostgresPermissionRepository {
	return &PostgresPermissionRepository{pool: pool}
}

const permissionColumns = `p.id, p.name, p.slug, p.resource, p.action, COALESCE(p.description, ''), p.created_at`

func scanPermission(row pgx.Row) (*domain.Permission, error) {
	p := &domain.Permission{}
	if err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.Resource, &p.Action, &p.Description, &p.CreatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PostgresPermissionRepository) queryMany(ctx context.Context, query string, args ...interface{}) ([]*domain.Permission, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	permissions := make([]*domain.Permission, 0)
	for rows.Next() {
		p, err := scanPermission(rows)
		if err != nil {
			return nil, err
		}
		permissions = append(permissions, p)
	}
	return permissions, rows.Err()
}

func (r *PostgresPermissionRepository) queryOne(ctx context.Context, where string, arg interface{}) (*domain.Permission, error) {
	p, err := scanPermission(r.pool.QueryRow(ctx, fmt.Sprintf("SELECT %s FROM permissions p %s", permissionColumns, where), arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// Create creates a new permission
func (r *PostgresPermissionRepository) Create(ctx context.Context, p *domain.Permission) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO permissions (id, name, slug, resource, action, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, p.ID, p.Name, p.Slug, p.Resource, p.Action, nullIfEmpty(p.Description), p.CreatedAt)
	return err
}

// GetByID retrieves a permission by ID
func (r *PostgresPermissionRepository) GetByID(ctx context.Context, id string) (*domain.Permission, error) {
	return r.queryOne(ctx, "WHERE p.id = $1", id)
}

// GetBySlug retrieves a permission by slug
func (r *PostgresPermissionRepository) GetBySlug(ctx context.Context, slug string) (*domain.Permission, error) {
	return r.queryOne(ctx, "WHERE p.slug = $1", slug)
}

// GetByIDs retrieves the permissions that exist among ids
func (r *PostgresPermissionRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.Permission, error) {
	return r.queryMany(ctx, fmt.Sprintf("SELECT %s FROM permissions p WHERE p.id = ANY($1) ORDER BY p.slug", permissionColumns), ids)
}

// List retrieves every permission ordered by resource and action
func (r *PostgresPermissionRepository) List(ctx context.Context) ([]*domain.Permission, error) {
	return r.queryMany(ctx, fmt.Sprintf("SELECT %s FROM permissions p ORDER BY p.resource, p.action", permissionColumns))
}

// Update updates a permission
func (r *PostgresPermissionRepository) Update(ctx context.Context, p *domain.Permission) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE permissions SET name = $2, slug = $3, resource = $4, action = $5, description = $6 WHERE id = $1
	`, p.ID, p.Name, p.Slug, p.Resource, p.Action, nullIfEmpty(p.Description))
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("permission %s not found", p.ID)
	}
	return nil
}

// Delete removes a permission
func (r *PostgresPermissionRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM permissions WHERE id = $1`, id)
	return err
}
