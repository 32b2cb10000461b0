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

// ErrStaleStatus is returned when a prize changed status concurrently
var ErrStaleStatus = errors.New("prize status changed concurrently")

const memberPrizeColumns = `p.id, p.member_id, p.instance_id, p.play_attempt_id, p.prize_id, p.prize_name, p.prize_type,
	p.prize_value::float8, p.status, COALESCE(p.metadata, '{}'::jsonb), p.created_at, p.updated_at,
	COALESCE(m.username, ''), COALESCE(m.company_id::text, '')`

// PostgresMemberPrizeRepository implements MemberPrizeRepository using PostgreSQL
type PostgresMemberPrizeRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresMemberPrizeRepository creates a new PostgresMemberPrizeRepository
func NewPostgresMemberPrizeRepository(pool *pgxpool.Pool) *PostgresMemberPrizeRepository {
	return &PostgresMemberPrizeRepository{pool: pool}
}

func scanMemberPrize(row pgx.Row) (*domain.MemberPrize, error) {
	p := &domain.MemberPrize{}
	var status string
	err := row.Scan(
		&p.ID,
		&p.MemberID,
		&p.InstanceID,
		&p.PlayAttemptID,
		&p.PrizeID,
		&p.PrizeName,
		&p.PrizeType,
		&p.PrizeValue,
		&status,
		&p.Metadata,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.MemberUsername,
		&p.CompanyID,
	)
	if err != nil {
		return nil, err
	}
	p.Status = domain.PrizeStatus(status)
	return p, nil
}

func collectMemberPrizes(rows pgx.Rows) ([]*domain.MemberPrize, error) {
	defer rows.Close()
	prizes := make([]*domain.MemberPrize, 0)
	for rows.Next() {
		p, err := scanMemberPrize(rows)
		if err != nil {
			return nil, err
		}
		prizes = append(prizes, p)
	}
	return prizes, rows.Err()
}

// Create records a won prize
func (r *PostgresMemberPrizeRepository) Create(ctx context.Context, p *domain.MemberPrize) error {
	query := `
		INSERT INTO member_prizes (id, member_id, instance_id, play_attempt_id, prize_id, prize_name,
		                           prize_type, prize_value, status, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.pool.Exec(ctx, query,
		p.ID,
		p.MemberID,
		p.InstanceID,
		p.PlayAttemptID,
		p.PrizeID,
		p.PrizeName,
		p.PrizeType,
		p.PrizeValue,
		string(p.Status),
		p.Metadata,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return err
}

// GetByID retrieves a prize by ID
func (r *PostgresMemberPrizeRepository) GetByID(ctx context.Context, id string) (*domain.MemberPrize, error) {
	query := fmt.Sprintf(`SELECT %s FROM member_prizes p LEFT JOIN members m ON m.id = p.member_id WHERE p.id = $1`,
		memberPrizeColumns)
	p, err := scanMemberPrize(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// UpdateStatus applies a status change guarded by the expected current status
func (r *PostgresMemberPrizeRepository) UpdateStatus(ctx context.Context, p *domain.MemberPrize, from domain.PrizeStatus) error {
	p.UpdatedAt = time.Now()
	result, err := r.pool.Exec(ctx, `
		UPDATE member_prizes SET status = $2, metadata = $3, updated_at = $4
		WHERE id = $1 AND status = $5
	`, p.ID, string(p.Status), p.Metadata, p.UpdatedAt, string(from))
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrStaleStatus
	}
	return nil
}

// BeginFulfilment locks a prize for its strategy by moving it to processing
func (r *PostgresMemberPrizeRepository) BeginFulfilment(ctx context.Context, p *domain.MemberPrize, staleBefore time.Time) error {
	now := time.Now()
	result, err := r.pool.Exec(ctx, `
		UPDATE member_prizes SET status = $2, updated_at = $3
		WHERE id = $1 AND (status = $4 OR (status = $2 AND updated_at < $5))
	`, p.ID, string(domain.PrizeStatusProcessing), now, string(domain.PrizeStatusPending), staleBefore)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrStaleStatus
	}
	p.Status = domain.PrizeStatusProcessing
	p.UpdatedAt = now
	return nil
}

// ListByMember returns a member's prizes, newest first
func (r *PostgresMemberPrizeRepository) ListByMember(ctx context.Context, memberID string) ([]*domain.MemberPrize, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM member_prizes p LEFT JOIN members m ON m.id = p.member_id
		WHERE p.member_id = $1
		ORDER BY p.created_at DESC
	`, memberPrizeColumns)

	rows, err := r.pool.Query(ctx, query, memberID)
	if err != nil {
		return nil, err
	}
	return collectMemberPrizes(rows)
}

// List returns prizes matching filter, newest first
func (r *PostgresMemberPrizeRepository) List(ctx context.Context, filter MemberPrizeFilter) ([]*domain.MemberPrize, int, error) {
	w := &whereBuilder{}
	if filter.CompanyID != "" {
		w.add("m.company_id = ?", filter.CompanyID)
	}
	if filter.MemberID != "" {
		w.add("p.member_id = ?", filter.MemberID)
	}
	if filter.InstanceID != "" {
		w.add("p.instance_id = ?", filter.InstanceID)
	}
	if filter.Status != "" {
		w.add("p.status = ?", string(filter.Status))
	}

	var totalCount int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM member_prizes p LEFT JOIN members m ON m.id = p.member_id %s`, w.clause())
	if err := r.pool.QueryRow(ctx, countQuery, w.args...).Scan(&totalCount); err != nil {
		return nil, 0, err
	}

	argIndex := w.next()
	query := fmt.Sprintf(`
		SELECT %s FROM member_prizes p LEFT JOIN members m ON m.id = p.member_id
		%s
		ORDER BY p.created_at DESC
		LIMIT $%d OFFSET $%d
	`, memberPrizeColumns, w.clause(), argIndex, argIndex+1)

	rows, err := r.pool.Query(ctx, query, append(w.args, filter.Limit, (filter.Page-1)*filter.Limit)...)
	if err != nil {
		return nil, 0, err
	}
	prizes, err := collectMemberPrizes(rows)
	if err != nil {
		return nil, 0, err
	}
	return prizes, totalCount, nil
}

// CountByStatus summarises prizes per status, for one company when companyID is set
func (r *PostgresMemberPrizeRepository) CountByStatus(ctx context.Context, companyID string) ([]domain.PrizeStatusCount, error) {
	w := &whereBuilder{}
	if companyID != "" {
		w.add("m.company_id = ?", companyID)
	}
	query := fmt.Sprintf(`
		SELECT p.status, COUNT(*) FROM member_prizes p LEFT JOIN members m ON m.id = p.member_id
		%s
		GROUP BY p.status
		ORDER BY p.status
	`, w.clause())

	rows, err := r.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make([]domain.PrizeStatusCount, 0)
	for rows.Next() {
		var (
			status string
			count  int64
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts = append(counts, domain.PrizeStatusCount{Status: domain.PrizeStatus(status), Count: count})
	}
	return counts, rows.Err()
}
