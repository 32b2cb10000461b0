package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const prizeTypeColumns = `id, company_id, name, slug, strategy, COALESCE(icon, ''), COALESCE(description, ''),
	COALESCE(config, '{}'::jsonb), show_value, is_points, is_active, created_at, updated_at`

// PostgresPrizeTypeRepository implements PrizeTypeRepository using PostgreSQL
type PostgresPrizeTypeRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresPrizeTypeRepository creates a new PostgresPrizeTypeRepository
func NewPostgresPrizeTypeRepository(pool *pgxpool.Pool) *PostgresPrizeTypeRepository {
	return &PostgresPrizeTypeRepository{pool: pool}
}

func scanPrizeType(row pgx.Row) (*domain.PrizeType, error) {
	p := &domain.PrizeType{}
	var strategy string
	err := row.Scan(
		&p.ID,
		&p.CompanyID,
		&p.Name,
		&p.Slug,
		&strategy,
		&p.Icon,
		&p.Description,
		&p.Config,
		&p.ShowValue,
		&p.IsPoints,
		&p.IsActive,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Strategy = domain.PrizeStrategy(strategy)
	return p, nil
}

func (r *PostgresPrizeTypeRepository) queryOne(ctx context.Context, query string, args ...interface{}) (*domain.PrizeType, error) {
	p, err := scanPrizeType(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// tenantScope restricts to global rows, plus the company's rows when companyID is not blank
func tenantScope(w *whereBuilder, companyID string) {
	if strings.TrimSpace(companyID) == "" {
		w.addRaw("company_id IS NULL")
		return
	}
	w.add("(company_id = ? OR company_id IS NULL)", companyID)
}

// FindActive returns active company and global types ordered by name
func (r *PostgresPrizeTypeRepository) FindActive(ctx context.Context, companyID string) ([]*domain.PrizeType, error) {
	w := &whereBuilder{}
	w.addRaw("is_active = true")
	tenantScope(w, companyID)

	query := fmt.Sprintf(`SELECT %s FROM prize_types %s ORDER BY name ASC`, prizeTypeColumns, w.clause())

	rows, err := r.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	types := make([]*domain.PrizeType, 0)
	for rows.Next() {
		p, err := scanPrizeType(rows)
		if err != nil {
			return nil, err
		}
		types = append(types, p)
	}
	return types, rows.Err()
}

// FindActiveBySlug prefers the tenant-specific row over the global one
func (r *PostgresPrizeTypeRepository) FindActiveBySlug(ctx context.Context, slug, companyID string) (*domain.PrizeType, error) {
	w := &whereBuilder{}
	w.add("slug = ?", slug)
	w.addRaw("is_active = true")
	tenantScope(w, companyID)

	query := fmt.Sprintf(`SELECT %s FROM prize_types %s ORDER BY company_id DESC NULLS LAST LIMIT 1`,
		prizeTypeColumns, w.clause())
	return r.queryOne(ctx, query, w.args...)
}

// GetByID retrieves a prize type by ID
func (r *PostgresPrizeTypeRepository) GetByID(ctx context.Context, id string) (*domain.PrizeType, error) {
	query := fmt.Sprintf(`SELECT %s FROM prize_types WHERE id = $1`, prizeTypeColumns)
	return r.queryOne(ctx, query, id)
}

// GetGlobalBySlug retrieves the global prize type with slug
func (r *PostgresPrizeTypeRepository) GetGlobalBySlug(ctx context.Context, slug string) (*domain.PrizeType, error) {
	query := fmt.Sprintf(`SELECT %s FROM prize_types WHERE slug = $1 AND company_id IS NULL`, prizeTypeColumns)
	return r.queryOne(ctx, query, slug)
}

// Create creates a new prize type
func (r *PostgresPrizeTypeRepository) Create(ctx context.Context, p *domain.PrizeType) error {
	query := `
		INSERT INTO prize_types (id, company_id, name, slug, strategy, icon, description, config,
		                         show_value, is_points, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.pool.Exec(ctx, query,
		p.ID,
		p.CompanyID,
		p.Name,
		p.Slug,
		string(p.Strategy),
		nullIfEmpty(p.Icon),
		nullIfEmpty(p.Description),
		p.Config,
		p.ShowValue,
		p.IsPoints,
		p.IsActive,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return err
}

// Update updates a prize type
func (r *PostgresPrizeTypeRepository) Update(ctx context.Context, p *domain.PrizeType) error {
	query := `
		UPDATE prize_types
		SET company_id = $2, name = $3, slug = $4, strategy = $5, icon = $6, description = $7,
		    config = $8, show_value = $9, is_points = $10, is_active = $11, updated_at = $12
		WHERE id = $1
	`
	p.UpdatedAt = time.Now()
	result, err := r.pool.Exec(ctx, query,
		p.ID,
		p.CompanyID,
		p.Name,
		p.Slug,
		string(p.Strategy),
		nullIfEmpty(p.Icon),
		nullIfEmpty(p.Description),
		p.Config,
		p.ShowValue,
		p.IsPoints,
		p.IsActive,
		p.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("prize type %s not found", p.ID)
	}
	return nil
}

// Delete removes a prize type
func (r *PostgresPrizeTypeRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM prize_types WHERE id = $1`, id)
	return err
}
