package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const auditLogColumns = `id, user_id, user_name, company_id, module, action, COALESCE(method, ''), COALESCE(path, ''),
	COALESCE(ip, ''), COALESCE(user_agent, ''), payload, params, result, COALESCE(status, 0),
	COALESCE(duration, 0), created_at`

// PostgresAuditLogRepository implements AuditLogRepository using PostgreSQL
type PostgresAuditLogRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresAuditLogRepository creates a new PostgresAuditLogRepository
func NewPostgresAuditLogRepository(pool *pgxpool.Pool) *PostgresAuditLogRepository {
	return &PostgresAuditLogRepository{pool: pool}
}

func applyAuditScope(w *whereBuilder, scope AuditLogScope) {
	switch {
	case scope.CompanyID != "" && scope.OwnUserID != "":
		company := w.next()
		w.args = append(w.args, scope.CompanyID, scope.OwnUserID)
		w.addRaw(fmt.Sprintf("(company_id = $%d OR user_id = $%d)", company, company+1))
	case scope.CompanyID != "":
		w.add("company_id = ?", scope.CompanyID)
	case scope.OwnUserID != "":
		w.add("user_id = ?", scope.OwnUserID)
	}
}

// Create stores one entry synchronously
func (r *PostgresAuditLogRepository) Create(ctx context.Context, l *domain.AuditLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO audit_logs (id, user_id, user_name, company_id, module, action, method, path,
		                        ip, user_agent, payload, params, result, status, duration, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`, l.ID, l.UserID, l.UserName, l.CompanyID, l.Module, l.Action, nullIfEmpty(l.Method), nullIfEmpty(l.Path),
		nullIfEmpty(l.IP), nullIfEmpty(l.UserAgent), l.Payload, l.Params, l.Result, l.Status, l.Duration, l.CreatedAt)
	return err
}

// List returns entries newest first
func (r *PostgresAuditLogRepository) List(ctx context.Context, filter AuditLogFilter) ([]*domain.AuditLog, int, error) {
	w := &whereBuilder{}
	applyAuditScope(w, filter.Scope)
	if filter.Module != "" {
		w.add("module = ?", filter.Module)
	}
	if filter.Action != "" {
		w.add("action ILIKE ?", "%"+filter.Action+"%")
	}
	if filter.UserID != "" {
		w.add("user_id = ?", filter.UserID)
	}
	if filter.UserName != "" {
		w.add("user_name ILIKE ?", "%"+filter.UserName+"%")
	}

	var totalCount int
	if err := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM audit_logs %s", w.clause()), w.args...).Scan(&totalCount); err != nil {
		return nil, 0, err
	}

	argIndex := w.next()
	query := fmt.Sprintf(`
		SELECT %s
		FROM audit_logs
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, auditLogColumns, w.clause(), argIndex, argIndex+1)

	rows, err := r.pool.Query(ctx, query, append(w.args, filter.Limit, (filter.Page-1)*filter.Limit)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	logs := make([]*domain.AuditLog, 0)
	for rows.Next() {
		l, err := scanAuditLog(rows)
		if err != nil {
			return nil, 0, err
		}
		logs = append(logs, l)
	}
	return logs, totalCount, rows.Err()
}

// GetByID retrieves one entry
func (r *PostgresAuditLogRepository) GetByID(ctx context.Context, id string) (*domain.AuditLog, error) {
	l, err := scanAuditLog(r.pool.QueryRow(ctx, fmt.Sprintf("SELECT %s FROM audit_logs WHERE id = $1", auditLogColumns), id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return l, nil
}

func scanAuditLog(row pgx.Row) (*domain.AuditLog, error) {
	l := &domain.AuditLog{}
	err := row.Scan(
		&l.ID, &l.UserID, &l.UserName, &l.CompanyID, &l.Module, &l.Action, &l.Method, &l.Path,
		&l.IP, &l.UserAgent, &l.Payload, &l.Params, &l.Result, &l.Status, &l.Duration, &l.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// Options returns the distinct modules and actions visible within scope
func (r *PostgresAuditLogRepository) Options(ctx context.Context, scope AuditLogScope) ([]string, []string, error) {
	modules, err := r.distinct(ctx, "module", scope)
	if err != nil {
		return nil, nil, err
	}
	actions, err := r.distinct(ctx, "action", scope)
	if err != nil {
		return nil, nil, err
	}
	return modules, actions, nil
}

func (r *PostgresAuditLogRepository) distinct(ctx context.Context, column string, scope AuditLogScope) ([]string, error) {
	w := &whereBuilder{}
	w.addRaw(column + " IS NOT NULL")
	applyAuditScope(w, scope)

	rows, err := r.pool.Query(ctx, fmt.Sprintf("SELECT DISTINCT %s FROM audit_logs %s ORDER BY %s", column, w.clause(), column), w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := make([]string, 0)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}
