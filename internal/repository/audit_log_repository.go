package repository

import (
	"context"

	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/domain"
)

// AuditLogScope limits what a caller may read. With both fields set, rows of the company OR
// the caller's own rows are visible. Empty scope means unrestricted.
type AuditLogScope struct {
	CompanyID string
	OwnUserID string
}

// AuditLogFilter narrows audit log listings
type AuditLogFilter struct {
	Scope    AuditLogScope
	Module   string
	Action   string
	UserID   string
	UserName string
	Page     int
	Limit    int
}

// AuditLogRepository defines data access for the audit trail
type AuditLogRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
	List(ctx context.Context, filter AuditLogFilter) ([]*domain.AuditLog, int, error)
	GetByID(ctx context.Context, id string) (*domain.AuditLog, error)
	// Options returns distinct non-null modules and actions within scope
	Options(ctx context.Context, scope AuditLogScope) (modules []string, actions []string, err error)
}

// SettingRepository defines data access for global settings
type SettingRepository interface {
	Get(ctx context.Context, key string) (*domain.SystemSetting, error)
	Set(ctx context.Context, setting *domain.SystemSetting) error
	List(ctx context.Context) ([]*domain.SystemSetting, error)
}

// LoginHistoryRepository stores login attempts
type LoginHistoryRepository interface {
	Record(ctx context.Context, entry *domain.LoginHistory) error
	ListBySubject(ctx context.Context, subjectType, subjectID string, limit int) ([]*domain.LoginHistory, error)
}
