package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/domain"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrMemberNotFound is returned by balance operations on a missing member
var ErrMemberNotFound = errors.New("member not found")

const memberColumns = `m.id, m.company_id, m.external_id, COALESCE(m.username, ''), COALESCE(m.password_hash, ''),
	m.points_balance, m.is_anonymous, m.is_active, COALESCE(m.email, ''), COALESCE(m.phone, ''),
	COALESCE(m.metadata, '{}'::jsonb), m.created_at, m.updated_at, COALESCE(c.name, '')`

// PostgresMemberRepository implements MemberRepository using PostgreSQL
type PostgresMemberRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresMemberRepository creates a new PostgresMemberRepository
func NewPostgresMemberRepository(pool *pgxpool.Pool) *PostgresMemberRepository {
	return &PostgresMemberRepository{pool: pool}
}

func scanMember(row pgx.Row) (*domain.Member, error) {
	m := &domain.Member{}
	err := row.Scan(
		&m.ID,
		&m.CompanyID,
		&m.ExternalID,
		&m.Username,
		&m.PasswordHash,
		&m.PointsBalance,
		&m.IsAnonymous,
		&m.IsActive,
		&m.Email,
		&m.Phone,
		&m.Metadata,
		&m.CreatedAt,
		&m.UpdatedAt,
		&m.CompanyName,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *PostgresMemberRepository) queryOne(ctx context.Context, where string, args ...interface{}) (*domain.Member, error) {
	query := fmt.Sprintf(`SELECT %s FROM members m LEFT JOIN companies c ON c.id = m.company_id %s`, memberColumns, where)
	m, err := scanMember(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}

// Create creates a new member
func (r *PostgresMemberRepository) Create(ctx context.Context, m *domain.Member) error {
	query := `
		INSERT INTO members (id, company_id, external_id, username, password_hash, points_balance,
		                     is_anonymous, is_active, email, phone, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.pool.Exec(ctx, query,
		m.ID,
		m.CompanyID,
		m.ExternalID,
		nullIfEmpty(m.Username),
		nullIfEmpty(m.PasswordHash),
		m.PointsBalance,
		m.IsAnonymous,
		m.IsActive,
		nullIfEmpty(m.Email),
		nullIfEmpty(m.Phone),
		m.Metadata,
		m.CreatedAt,
		m.UpdatedAt,
	)
	return err
}

// GetByID retrieves a member by ID
func (r *PostgresMemberRepository) GetByID(ctx context.Context, id string) (*domain.Member, error) {
	return r.queryOne(ctx, "WHERE m.id = $1", id)
}

// GetByExternalID retrieves a member by the company's own player ID
func (r *PostgresMemberRepository) GetByExternalID(ctx context.Context, companyID, externalID string) (*domain.Member, error) {
	return r.queryOne(ctx, "WHERE m.company_id = $1 AND m.external_id = $2", companyID, externalID)
}

// List retrieves members of a company ordered by balance
func (r *PostgresMemberRepository) List(ctx context.Context, filter MemberFilter) ([]*domain.Member, int, error) {
	w := &whereBuilder{}
	if filter.CompanyID != "" {
		w.add("m.company_id = ?", filter.CompanyID)
	}
	if filter.Username != "" {
		w.add("m.username ILIKE ?", "%"+filter.Username+"%")
	}
	if filter.ExternalID != "" {
		w.add("m.external_id ILIKE ?", "%"+filter.ExternalID+"%")
	}

	var totalCount int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM members m %s", w.clause())
	if err := r.pool.QueryRow(ctx, countQuery, w.args...).Scan(&totalCount); err != nil {
		return nil, 0, err
	}

	argIndex := w.next()
	query := fmt.Sprintf(`
		SELECT %s
		FROM members m LEFT JOIN companies c ON c.id = m.company_id
		%s
		ORDER BY m.points_balance DESC, m.created_at DESC
		LIMIT $%d OFFSET $%d
	`, memberColumns, w.clause(), argIndex, argIndex+1)

	args := append(w.args, filter.Limit, (filter.Page-1)*filter.Limit)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	members := make([]*domain.Member, 0)
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, 0, err
		}
		members = append(members, m)
	}
	return members, totalCount, rows.Err()
}

// Update updates the mutable member fields. The balance only changes through AddPoints and AdjustBalance.
func (r *PostgresMemberRepository) Update(ctx context.Context, m *domain.Member) error {
	query := `
		UPDATE members
		SET external_id = $2, username = $3, password_hash = $4, is_anonymous = $5, is_active = $6,
		    email = $7, phone = $8, metadata = $9, updated_at = $10
		WHERE id = $1
	`
	m.UpdatedAt = time.Now()
	result, err := r.pool.Exec(ctx, query,
		m.ID,
		m.ExternalID,
		nullIfEmpty(m.Username),
		nullIfEmpty(m.PasswordHash),
		m.IsAnonymous,
		m.IsActive,
		nullIfEmpty(m.Email),
		nullIfEmpty(m.Phone),
		m.Metadata,
		m.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrMemberNotFound
	}
	return nil
}

// Delete removes a member
func (r *PostgresMemberRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM members WHERE id = $1`, id)
	return err
}

// AddPoints adds delta to the balance in a single statement
func (r *PostgresMemberRepository) AddPoints(ctx context.Context, id string, delta int64) (int64, error) {
	var balance int64
	err := r.pool.QueryRow(ctx, `
		UPDATE members SET points_balance = points_balance + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING points_balance
	`, id, delta).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrMemberNotFound
		}
		return 0, err
	}
	return balance, nil
}

// AdjustBalance applies tx.Amount under a row lock and stores the ledger entry
func (r *PostgresMemberRepository) AdjustBalance(ctx context.Context, ct *domain.CreditTransaction) (*domain.Member, error) {
	var member *domain.Member

	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var before int64
		err := tx.QueryRow(ctx, `SELECT points_balance FROM members WHERE id = $1 FOR UPDATE`, ct.MemberID).Scan(&before)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrMemberNotFound
			}
			return err
		}

		ct.BalanceBefore = before
		ct.BalanceAfter = before + ct.Amount
		if ct.ID == "" {
			ct.ID = uuid.New().String()
		}
		if ct.CreatedAt.IsZero() {
			ct.CreatedAt = time.Now()
		}

		if _, err := tx.Exec(ctx, `UPDATE members SET points_balance = $2, updated_at = NOW() WHERE id = $1`,
			ct.MemberID, ct.BalanceAfter); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO credit_transactions (id, member_id, amount, balance_before, balance_after, type,
			                                 reason, admin_user_id, metadata, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, ct.ID, ct.MemberID, ct.Amount, ct.BalanceBefore, ct.BalanceAfter, ct.Type,
			nullIfEmpty(ct.Reason), ct.AdminUserID, ct.Metadata, ct.CreatedAt); err != nil {
			return err
		}

		query := fmt.Sprintf(`SELECT %s FROM members m LEFT JOIN companies c ON c.id = m.company_id WHERE m.id = $1`, memberColumns)
		member, err = scanMember(tx.QueryRow(ctx, query, ct.MemberID))
		return err
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}

// MergeGuest transfers the guest balance and deletes the guest in one transaction
func (r *PostgresMemberRepository) MergeGuest(ctx context.Context, guestID, targetID string) (*domain.Member, error) {
	var member *domain.Member

	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var guestBalance int64
		err := tx.QueryRow(ctx, `SELECT points_balance FROM members WHERE id = $1 FOR UPDATE`, guestID).Scan(&guestBalance)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrMemberNotFound
			}
			return err
		}

		result, err := tx.Exec(ctx, `UPDATE members SET points_balance = points_balance + $2, updated_at = NOW() WHERE id = $1`,
			targetID, guestBalance)
		if err != nil {
			return err
		}
		if result.RowsAffected() == 0 {
			return ErrMemberNotFound
		}

		if _, err := tx.Exec(ctx, `DELETE FROM members WHERE id = $1`, guestID); err != nil {
			return err
		}

		query := fmt.Sprintf(`SELECT %s FROM members m LEFT JOIN companies c ON c.id = m.company_id WHERE m.id = $1`, memberColumns)
		member, err = scanMember(tx.QueryRow(ctx, query, targetID))
		return err
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}

// PostgresCreditTransactionRepository implements CreditTransactionRepository using PostgreSQL
type PostgresCreditTransactionRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresCreditTransactionRepository creates a new PostgresCreditTransactionRepository
func NewPostgresCreditTransactionRepository(pool *pgxpool.Pool) *PostgresCreditTransactionRepository {
	return &PostgresCreditTransactionRepository{pool: pool}
}

const creditTransactionColumns = `t.id, t.member_id, t.amount, t.balance_before, t.balance_after, t.type,
	COALESCE(t.reason, ''), t.admin_user_id, COALESCE(t.metadata, '{}'::jsonb), t.created_at, COALESCE(m.username, '')`

func scanCreditTransaction(row pgx.Row) (*domain.CreditTransaction, error) {
	t := &domain.CreditTransaction{}
	err := row.Scan(
		&t.ID,
		&t.MemberID,
		&t.Amount,
		&t.BalanceBefore,
		&t.BalanceAfter,
		&t.Type,
		&t.Reason,
		&t.AdminUserID,
		&t.Metadata,
		&t.CreatedAt,
		&t.MemberUsername,
	)
	return t, err
}

func collectCreditTransactions(rows pgx.Rows) ([]*domain.CreditTransaction, error) {
	defer rows.Close()
	txs := make([]*domain.CreditTransaction, 0)
	for rows.Next() {
		t, err := scanCreditTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// ListByMember returns the latest transactions of a member
func (r *PostgresCreditTransactionRepository) ListByMember(ctx context.Context, memberID string, limit int) ([]*domain.CreditTransaction, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM credit_transactions t JOIN members m ON m.id = t.member_id
		WHERE t.member_id = $1
		ORDER BY t.created_at DESC
		LIMIT $2
	`, creditTransactionColumns)

	rows, err := r.pool.Query(ctx, query, memberID, limit)
	if err != nil {
		return nil, err
	}
	return collectCreditTransactions(rows)
}

// List returns company-wide credit history, newest first
func (r *PostgresCreditTransactionRepository) List(ctx context.Context, filter CreditTransactionFilter) ([]*domain.CreditTransaction, int, error) {
	w := &whereBuilder{}
	if filter.CompanyID != "" {
		w.add("m.company_id = ?", filter.CompanyID)
	}
	if filter.MemberID != "" {
		w.add("t.member_id = ?", filter.MemberID)
	}
	if filter.Type != "" {
		w.add("t.type = ?", filter.Type)
	}

	var totalCount int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM credit_transactions t JOIN members m ON m.id = t.member_id %s`, w.clause())
	if err := r.pool.QueryRow(ctx, countQuery, w.args...).Scan(&totalCount); err != nil {
		return nil, 0, err
	}

	argIndex := w.next()
	query := fmt.Sprintf(`
		SELECT %s
		FROM credit_transactions t JOIN members m ON m.id = t.member_id
		%s
		ORDER BY t.created_at DESC
		LIMIT $%d OFFSET $%d
	`, creditTransactionColumns, w.clause(), argIndex, argIndex+1)

	rows, err := r.pool.Query(ctx, query, append(w.args, filter.Limit, (filter.Page-1)*filter.Limit)...)
	if err != nil {
		return nil, 0, err
	}
	txs, err := collectCreditTransactions(rows)
	if err != nil {
		return nil, 0, err
	}
	return txs, totalCount, nil
}
