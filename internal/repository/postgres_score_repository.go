package repository

import (
	"context"

	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresScoreRepository implements ScoreRepository using PostgreSQL
type PostgresScoreRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresScoreRepository creates a new PostgresScoreRepository
func NewPostgresScoreRepository(pool *pgxpool.Pool) *PostgresScoreRepository {
	return &PostgresScoreRepository{pool: pool}
}

// Create records a submitted score
func (r *PostgresScoreRepository) Create(ctx context.Context, s *domain.Score) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO scores (id, member_id, instance_id, score, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, s.ID, s.MemberID, s.InstanceID, s.Score, s.Metadata, s.CreatedAt)
	return err
}

// ListByMember returns a member's latest scores
func (r *PostgresScoreRepository) ListByMember(ctx context.Context, memberID string, limit int) ([]*domain.Score, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, member_id, instance_id, score, COALESCE(metadata, '{}'::jsonb), created_at
		FROM scores
		WHERE member_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, memberID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	scores := make([]*domain.Score, 0)
	for rows.Next() {
		s := &domain.Score{}
		if err := rows.Scan(&s.ID, &s.MemberID, &s.InstanceID, &s.Score, &s.Metadata, &s.CreatedAt); err != nil {
			return nil, err
		}
		scores = append(scores, s)
	}
	return scores, rows.Err()
}
