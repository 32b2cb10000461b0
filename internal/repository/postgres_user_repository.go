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

// ErrMembershipNotFound is returned when a user has no access to the company
var ErrMembershipNotFound = errors.New("user company membership not found")

const userColumns = `u.id, u.email, u.email_hash, COALESCE(u.mobile, ''), COALESCE(u.mobile_hash, ''),
	u.password_hash, COALESCE(u.name, ''), u.is_verified, u.is_active, u.created_at, u.updated_at`

// PostgresUserRepository implements UserRepository using PostgreSQL
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresUserRepository creates a new PostgresUserRepository
func NewPostgresUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*domain.User, error) {
	u := &domain.User{}
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.EmailHash,
		&u.Mobile,
		&u.MobileHash,
		&u.PasswordHash,
		&u.Name,
		&u.IsVerified,
		&u.IsActive,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *PostgresUserRepository) queryOne(ctx context.Context, where string, arg interface{}) (*domain.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, fmt.Sprintf("SELECT %s FROM users u %s", userColumns, where), arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

// Create creates a new user
func (r *PostgresUserRepository) Create(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (id, email, email_hash, mobile, mobile_hash, password_hash, name,
		                   is_verified, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.pool.Exec(ctx, query,
		u.ID,
		u.Email,
		u.EmailHash,
		nullIfEmpty(u.Mobile),
		nullIfEmpty(u.MobileHash),
		u.PasswordHash,
		nullIfEmpty(u.Name),
		u.IsVerified,
		u.IsActive,
		u.CreatedAt,
		u.UpdatedAt,
	)
	return err
}

// GetByID retrieves a user by ID
func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.queryOne(ctx, "WHERE u.id = $1", id)
}

// GetByEmailHash retrieves a user by the deterministic email hash
func (r *PostgresUserRepository) GetByEmailHash(ctx context.Context, emailHash string) (*domain.User, error) {
	return r.queryOne(ctx, "WHERE u.email_hash = $1", emailHash)
}

// List retrieves users with pagination
func (r *PostgresUserRepository) List(ctx context.Context, companyID string, page, limit int) ([]*domain.User, int, error) {
	w := &whereBuilder{}
	if companyID != "" {
		w.add("EXISTS (SELECT 1 FROM user_companies uc WHERE uc.user_id = u.id AND uc.company_id = ? AND uc.is_active)", companyID)
	}

	var totalCount int
	if err := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM users u %s", w.clause()), w.args...).Scan(&totalCount); err != nil {
		return nil, 0, err
	}

	argIndex := w.next()
	query := fmt.Sprintf(`
		SELECT %s FROM users u
		%s
		ORDER BY u.created_at DESC
		LIMIT $%d OFFSET $%d
	`, userColumns, w.clause(), argIndex, argIndex+1)

	rows, err := r.pool.Query(ctx, query, append(w.args, limit, (page-1)*limit)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := make([]*domain.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	return users, totalCount, rows.Err()
}

// Update updates a user
func (r *PostgresUserRepository) Update(ctx context.Context, u *domain.User) error {
	query := `
		UPDATE users
		SET email = $2, email_hash = $3, mobile = $4, mobile_hash = $5, password_hash = $6, name = $7,
		    is_verified = $8, is_active = $9, updated_at = $10
		WHERE id = $1
	`
	u.UpdatedAt = time.Now()
	result, err := r.pool.Exec(ctx, query,
		u.ID,
		u.Email,
		u.EmailHash,
		nullIfEmpty(u.Mobile),
		nullIfEmpty(u.MobileHash),
		u.PasswordHash,
		nullIfEmpty(u.Name),
		u.IsVerified,
		u.IsActive,
		u.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %s not found", u.ID)
	}
	return nil
}

// Delete removes a user and their memberships
func (r *PostgresUserRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	return err
}

// PostgresUserCompanyRepository implements UserCompanyRepository using PostgreSQL
type PostgresUserCompanyRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresUserCompanyRepository creates a new PostgresUserCompanyRepository
func NewPostgresUserCompanyRepository(pool *pgxpool.Pool) *PostgresUserCompanyRepository {
	return &PostgresUserCompanyRepository{pool: pool}
}

// Create adds a membership. A primary membership clears the flag on the user's others.
func (r *PostgresUserCompanyRepository) Create(ctx context.Context, uc *domain.UserCompany) error {
	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if uc.IsPrimary {
			if _, err := tx.Exec(ctx, `UPDATE user_companies SET is_primary = false WHERE user_id = $1`, uc.UserID); err != nil {
				return err
			}
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO user_companies (id, user_id, company_id, role_id, is_primary, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, uc.ID, uc.UserID, uc.CompanyID, uc.RoleID, uc.IsPrimary, uc.IsActive, uc.CreatedAt, uc.UpdatedAt)
		return err
	})
}

// Get retrieves a single membership without joins
func (r *PostgresUserCompanyRepository) Get(ctx context.Context, userID, companyID string) (*domain.UserCompany, error) {
	uc := &domain.UserCompany{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, company_id, role_id, is_primary, is_active, created_at, updated_at
		FROM user_companies WHERE user_id = $1 AND company_id = $2
	`, userID, companyID).Scan(
		&uc.ID, &uc.UserID, &uc.CompanyID, &uc.RoleID, &uc.IsPrimary, &uc.IsActive, &uc.CreatedAt, &uc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return uc, nil
}

// ListByUser returns active memberships with company and role, primary first
func (r *PostgresUserCompanyRepository) ListByUser(ctx context.Context, userID string) ([]*domain.UserCompany, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT uc.id, uc.user_id, uc.company_id, uc.role_id, uc.is_primary, uc.is_active, uc.created_at, uc.updated_at,
		       c.name, c.slug, c.is_active,
		       r.name, r.slug, r.level, r.is_system,
		       COALESCE(array_agg(p.slug ORDER BY p.slug) FILTER (WHERE p.slug IS NOT NULL), '{}')
		FROM user_companies uc
		JOIN companies c ON c.id = uc.company_id
		JOIN roles r ON r.id = uc.role_id
		LEFT JOIN role_permissions rp ON rp.role_id = r.id
		LEFT JOIN permissions p ON p.id = rp.permission_id
		WHERE uc.user_id = $1 AND uc.is_active = true
		GROUP BY uc.id, c.id, r.id
		ORDER BY uc.is_primary DESC, uc.created_at ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	memberships := make([]*domain.UserCompany, 0)
	for rows.Next() {
		uc := &domain.UserCompany{Company: &domain.Company{}, Role: &domain.Role{}}
		var slugs []string
		err := rows.Scan(
			&uc.ID, &uc.UserID, &uc.CompanyID, &uc.RoleID, &uc.IsPrimary, &uc.IsActive, &uc.CreatedAt, &uc.UpdatedAt,
			&uc.Company.Name, &uc.Company.Slug, &uc.Company.IsActive,
			&uc.Role.Name, &uc.Role.Slug, &uc.Role.Level, &uc.Role.IsSystem,
			&slugs,
		)
		if err != nil {
			return nil, err
		}
		uc.Company.ID = uc.CompanyID
		uc.Role.ID = uc.RoleID
		uc.Role.Permissions = make([]*domain.Permission, 0, len(slugs))
		for _, s := range slugs {
			uc.Role.Permissions = append(uc.Role.Permissions, &domain.Permission{Slug: s})
		}
		memberships = append(memberships, uc)
	}
	return memberships, rows.Err()
}

// Delete removes a membership
func (r *PostgresUserCompanyRepository) Delete(ctx context.Context, userID, companyID string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM user_companies WHERE user_id = $1 AND company_id = $2`, userID, companyID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrMembershipNotFound
	}
	return nil
}

// UpdateRole changes the role of a membership
func (r *PostgresUserCompanyRepository) UpdateRole(ctx context.Context, userID, companyID, roleID string) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE user_companies SET role_id = $3, updated_at = NOW() WHERE user_id = $1 AND company_id = $2
	`, userID, companyID, roleID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrMembershipNotFound
	}
	return nil
}

// SetPrimary marks the membership primary and unsets the others
func (r *PostgresUserCompanyRepository) SetPrimary(ctx context.Context, userID, companyID string) error {
	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `UPDATE user_companies SET is_primary = false WHERE user_id = $1`, userID); err != nil {
			return err
		}
		result, err := tx.Exec(ctx, `
			UPDATE user_companies SET is_primary = true, updated_at = NOW() WHERE user_id = $1 AND company_id = $2
		`, userID, companyID)
		if err != nil {
			return err
		}
		if result.RowsAffected() == 0 {
			return ErrMembershipNotFound
		}
		return nil
	})
}
