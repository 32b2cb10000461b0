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

const gameInstanceColumns = `i.id, i.game_id, i.company_id, i.name, i.slug, COALESCE(i.config, '{}'::jsonb),
	i.is_active, i.created_at, i.updated_at,
	g.id, g.name, g.slug, g.type, g.is_active, COALESCE(g.config, '{}'::jsonb)`

const gameInstanceFrom = `game_instances i JOIN games g ON g.id = i.game_id`

// PostgresGameInstanceRepository implements GameInstanceRepository using PostgreSQL
type PostgresGameInstanceRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresGameInstanceRepository creates a new PostgresGameInstanceRepository
func NewPostgresGameInstanceRepository(pool *pgxpool.Pool) *PostgresGameInstanceRepository {
	return &PostgresGameInstanceRepository{pool: pool}
}

func scanGameInstance(row pgx.Row) (*domain.GameInstance, error) {
	i := &domain.GameInstance{Game: &domain.Game{}}
	err := row.Scan(
		&i.ID,
		&i.GameID,
		&i.CompanyID,
		&i.Name,
		&i.Slug,
		&i.Config,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.Game.ID,
		&i.Game.Name,
		&i.Game.Slug,
		&i.Game.Type,
		&i.Game.IsActive,
		&i.Game.Config,
	)
	if err != nil {
		return nil, err
	}
	return i, nil
}

func (r *PostgresGameInstanceRepository) queryOne(ctx context.Context, query string, args ...interface{}) (*domain.GameInstance, error) {
	i, err := scanGameInstance(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return i, nil
}

// Create adds a game instance
func (r *PostgresGameInstanceRepository) Create(ctx context.Context, i *domain.GameInstance) error {
	query := `
		INSERT INTO game_instances (id, game_id, company_id, name, slug, config, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.pool.Exec(ctx, query,
		i.ID,
		i.GameID,
		i.CompanyID,
		i.Name,
		i.Slug,
		i.Config,
		i.IsActive,
		i.CreatedAt,
		i.UpdatedAt,
	)
	return err
}

// GetByID retrieves an instance with its catalogue game
func (r *PostgresGameInstanceRepository) GetByID(ctx context.Context, id string) (*domain.GameInstance, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE i.id = $1`, gameInstanceColumns, gameInstanceFrom)
	return r.queryOne(ctx, query, id)
}

// GetBySlug retrieves a company's instance by slug
func (r *PostgresGameInstanceRepository) GetBySlug(ctx context.Context, companyID, slug string) (*domain.GameInstance, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE i.company_id = $1 AND i.slug = $2`, gameInstanceColumns, gameInstanceFrom)
	return r.queryOne(ctx, query, companyID, slug)
}

// List returns instances matching filter, newest first
func (r *PostgresGameInstanceRepository) List(ctx context.Context, filter GameInstanceFilter) ([]*domain.GameInstance, int, error) {
	w := &whereBuilder{}
	if filter.CompanyID != "" {
		w.add("i.company_id = ?", filter.CompanyID)
	}

	var totalCount int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s %s`, gameInstanceFrom, w.clause())
	if err := r.pool.QueryRow(ctx, countQuery, w.args...).Scan(&totalCount); err != nil {
		return nil, 0, err
	}

	argIndex := w.next()
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		%s
		ORDER BY i.created_at DESC
		LIMIT $%d OFFSET $%d
	`, gameInstanceColumns, gameInstanceFrom, w.clause(), argIndex, argIndex+1)

	rows, err := r.pool.Query(ctx, query, append(w.args, filter.Limit, (filter.Page-1)*filter.Limit)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	instances := make([]*domain.GameInstance, 0)
	for rows.Next() {
		i, err := scanGameInstance(rows)
		if err != nil {
			return nil, 0, err
		}
		instances = append(instances, i)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return instances, totalCount, nil
}

// Update stores name, slug, config and active state
func (r *PostgresGameInstanceRepository) Update(ctx context.Context, i *domain.GameInstance) error {
	query := `
		UPDATE game_instances
		SET name = $2, slug = $3, config = $4, is_active = $5, updated_at = $6
		WHERE id = $1
	`
	i.UpdatedAt = time.Now()
	result, err := r.pool.Exec(ctx, query, i.ID, i.Name, i.Slug, i.Config, i.IsActive, i.UpdatedAt)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("game instance %s not found", i.ID)
	}
	return nil
}

// Delete removes an instance and, by cascade, its scores
func (r *PostgresGameInstanceRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM game_instances WHERE id = $1`, id)
	return err
}
