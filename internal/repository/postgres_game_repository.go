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

const gameColumns = `id, name, slug, COALESCE(description, ''), COALESCE(thumbnail_url, ''), type,
	base_width, base_height, is_portrait, is_active, COALESCE(config, '{}'::jsonb), created_at, updated_at`

// PostgresGameRepository implements GameRepository using PostgreSQL
type PostgresGameRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresGameRepository creates a new PostgresGameRepository
func NewPostgresGameRepository(pool *pgxpool.Pool) *PostgresGameRepository {
	return &PostgresGameRepository{pool: pool}
}

func scanGame(row pgx.Row) (*domain.Game, error) {
	g := &domain.Game{}
	err := row.Scan(
		&g.ID,
		&g.Name,
		&g.Slug,
		&g.Description,
		&g.ThumbnailURL,
		&g.Type,
		&g.BaseWidth,
		&g.BaseHeight,
		&g.IsPortrait,
		&g.IsActive,
		&g.Config,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (r *PostgresGameRepository) queryOne(ctx context.Context, query string, args ...interface{}) (*domain.Game, error) {
	g, err := scanGame(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return g, nil
}

// Create adds a catalogue game
func (r *PostgresGameRepository) Create(ctx context.Context, g *domain.Game) error {
	query := `
		INSERT INTO games (id, name, slug, description, thumbnail_url, type, base_width, base_height,
		                   is_portrait, is_active, config, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.pool.Exec(ctx, query,
		g.ID,
		g.Name,
		g.Slug,
		nullIfEmpty(g.Description),
		nullIfEmpty(g.ThumbnailURL),
		g.Type,
		g.BaseWidth,
		g.BaseHeight,
		g.IsPortrait,
		g.IsActive,
		g.Config,
		g.CreatedAt,
		g.UpdatedAt,
	)
	return err
}

// GetByID retrieves a game by ID
func (r *PostgresGameRepository) GetByID(ctx context.Context, id string) (*domain.Game, error) {
	return r.queryOne(ctx, fmt.Sprintf(`SELECT %s FROM games WHERE id = $1`, gameColumns), id)
}

// GetBySlug retrieves a game by slug
func (r *PostgresGameRepository) GetBySlug(ctx context.Context, slug string) (*domain.Game, error) {
	return r.queryOne(ctx, fmt.Sprintf(`SELECT %s FROM games WHERE slug = $1`, gameColumns), slug)
}

// List returns catalogue games, newest first
func (r *PostgresGameRepository) List(ctx context.Context, activeOnly bool) ([]*domain.Game, error) {
	w := &whereBuilder{}
	if activeOnly {
		w.addRaw("is_active = true")
	}
	query := fmt.Sprintf(`SELECT %s FROM games %s ORDER BY created_at DESC`, gameColumns, w.clause())

	rows, err := r.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	games := make([]*domain.Game, 0)
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

// Update stores every mutable field of a game
func (r *PostgresGameRepository) Update(ctx context.Context, g *domain.Game) error {
	query := `
		UPDATE games
		SET name = $2, slug = $3, description = $4, thumbnail_url = $5, type = $6, base_width = $7,
		    base_height = $8, is_portrait = $9, is_active = $10, config = $11, updated_at = $12
		WHERE id = $1
	`
	g.UpdatedAt = time.Now()
	result, err := r.pool.Exec(ctx, query,
		g.ID,
		g.Name,
		g.Slug,
		nullIfEmpty(g.Description),
		nullIfEmpty(g.ThumbnailURL),
		g.Type,
		g.BaseWidth,
		g.BaseHeight,
		g.IsPortrait,
		g.IsActive,
		g.Config,
		g.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("game %s not found", g.ID)
	}
	return nil
}

// Delete removes a game
func (r *PostgresGameRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM games WHERE id = $1`, id)
	return err
}

// CountInstances counts the instances built on a game
func (r *PostgresGameRepository) CountInstances(ctx context.Context, id string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM game_instances WHERE game_id = $1`, id).Scan(&count)
	return count, err
}
