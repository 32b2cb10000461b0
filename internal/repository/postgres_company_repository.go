package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const companyColumns = `id, name, slug, COALESCE(settings, '{}'::jsonb), COALESCE(api_secret, ''),
	is_active, inactive_at, created_at, updated_at`

// PostgresCompanyRepository implements CompanyRepository using PostgreSQL
type PostgresCompanyRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresCompanyRepository creates a new PostgresCompanyRepository
func NewPostgresCompanyRepository(pool *pgxpool.Pool) *PostgresCompanyRepository {
	return &PostgresCompanyRepository{pool: pool}
}

func scanCompany(row pgx.Row) (*domain.Company, error) {
	c := &domain.Company{}
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Slug,
		&c.Settings,
		&c.APISecret,
		&c.IsActive,
		&c.InactiveAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *PostgresCompanyRepository) queryOne(ctx context.Context, where string, arg interface{}) (*domain.Company, error) {
	c, err := scanCompany(r.pool.QueryRow(ctx, fmt.Sprintf("SELECT %s FROM companies %s", companyColumns, where), arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

// Create creates a new company
func (r *PostgresCompanyRepository) Create(ctx context.Context, c *domain.Company) error {
	query := `
		INSERT INTO companies (id, name, slug, settings, api_secret, is_active, inactive_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.pool.Exec(ctx, query,
		c.ID,
		c.Name,
		c.Slug,
		c.Settings,
		nullIfEmpty(c.APISecret),
		c.IsActive,
		c.InactiveAt,
		c.CreatedAt,
		c.UpdatedAt,
	)
	return err
}

// GetByID retrieves a company by ID
func (r *PostgresCompanyRepository) GetByID(ctx context.Context, id string) (*domain.Company, error) {
	return r.queryOne(ctx, "WHERE id = $1", id)
}

// GetBySlug retrieves a company by slug
func (r *PostgresCompanyRepository) GetBySlug(ctx context.Context, slug string) (*domain.Company, error) {
	return r.queryOne(ctx, "WHERE slug = $1", slug)
}

// List retrieves companies with pagination and filters
func (r *PostgresCompanyRepository) List(ctx context.Context, filter CompanyFilter) ([]*domain.Company, int, error) {
	w := &whereBuilder{}
	if filter.IDs != nil {
		w.add("id = ANY(?)", filter.IDs)
	}
	if filter.IsActive != nil {
		w.add("is_active = ?", *filter.IsActive)
	}
	if filter.Search != "" {
		w.add("(name ILIKE ? OR slug ILIKE ?)", "%"+filter.Search+"%")
	}

	var totalCount int
	if err := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM companies %s", w.clause()), w.args...).Scan(&totalCount); err != nil {
		return nil, 0, err
	}

	argIndex := w.next()
	query := fmt.Sprintf(`
		SELECT %s FROM companies
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, companyColumns, w.clause(), argIndex, argIndex+1)

	rows, err := r.pool.Query(ctx, query, append(w.args, filter.Limit, (filter.Page-1)*filter.Limit)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	companies := make([]*domain.Company, 0)
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, 0, err
		}
		companies = append(companies, c)
	}
	return companies, totalCount, rows.Err()
}

// Update updates a company
func (r *PostgresCompanyRepository) Update(ctx context.Context, c *domain.Company) error {
	query := `
		UPDATE companies
		SET name = $2, slug = $3, settings = $4, api_secret = $5, is_active = $6, inactive_at = $7, updated_at = $8
		WHERE id = $1
	`
	c.UpdatedAt = time.Now()
	result, err := r.pool.Exec(ctx, query,
		c.ID,
		c.Name,
		c.Slug,
		c.Settings,
		nullIfEmpty(c.APISecret),
		c.IsActive,
		c.InactiveAt,
		c.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("company %s not found", c.ID)
	}
	return nil
}

// Delete removes a company
func (r *PostgresCompanyRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM companies WHERE id = $1`, id)
	return err
}

// ExistsBySlug checks if a company exists with the given slug
func (r *PostgresCompanyRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM companies WHERE slug = $1)`, slug).Scan(&exists)
	return exists, err
}
