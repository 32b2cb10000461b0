package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSettingRepository implements SettingRepository using PostgreSQL
type PostgresSettingRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresSettingRepository creates a new PostgresSettingRepository
func NewPostgresSettingRepository(pool *pgxpool.Pool) *PostgresSettingRepository {
	return &PostgresSettingRepository{pool: pool}
}

// Get retrieves a setting by key
func (r *PostgresSettingRepository) Get(ctx context.Context, key string) (*domain.SystemSetting, error) {
	s := &domain.SystemSetting{}
	err := r.pool.QueryRow(ctx, `
		SELECT key, value, COALESCE(description, ''), updated_at FROM system_settings WHERE key = $1
	`, key).Scan(&s.Key, &s.Value, &s.Description, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

// Set inserts or replaces a setting
func (r *PostgresSettingRepository) Set(ctx context.Context, s *domain.SystemSetting) error {
	// string values would otherwise be sent to jsonb unquoted
	value, err := json.Marshal(s.Value)
	if err != nil {
		return err
	}

	s.UpdatedAt = time.Now()
	_, err = r.pool.Exec(ctx, `
		INSERT INTO system_settings (key, value, description, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value,
		    description = COALESCE(EXCLUDED.description, system_settings.description),
		    updated_at = EXCLUDED.updated_at
	`, s.Key, value, nullIfEmpty(s.Description), s.UpdatedAt)
	return err
}

// List retrieves every setting ordered by key
func (r *PostgresSettingRepository) List(ctx context.Context) ([]*domain.SystemSetting, error) {
	rows, err := r.pool.Query(ctx, `SELECT key, value, COALESCE(description, ''), updated_at FROM system_settings ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settings := make([]*domain.SystemSetting, 0)
	for rows.Next() {
		s := &domain.SystemSetting{}
		if err := rows.Scan(&s.Key, &s.Value, &s.Description, &s.UpdatedAt); err != nil {
			return nil, err
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}
