package service

import (
	"context"
	"errors"
	"time"

	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/domain"
	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/dto"
	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/repository"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrAuditLogNotFound = errors.New("audit log not found")

// AuditRecorder stores explicit audit entries written by services
type AuditRecorder interface {
	Record(ctx context.Context, entry *domain.AuditLog)
}

// AuditLogService queries and records the audit trail
type AuditLogService interface {
	AuditRecorder
	List(ctx context.Context, actor *Actor, query *dto.ListAuditLogsQuery) (*dto.PageResponse[*domain.AuditLog], error)
	Options(ctx context.Context, actor *Actor) (*dto.AuditLogOptionsResponse, error)
	Get(ctx context.Context, actor *Actor, id string) (*domain.AuditLog, error)
}

type auditLogService struct {
	repo repository.AuditLogRepository
}

// NewAuditLogService creates a new AuditLogService
func NewAuditLogService(repo repository.AuditLogRepository) AuditLogService {
	return &auditLogService{repo: repo}
}

// Record stores entry synchronously. Failures are logged and never reach the caller.
func (s *auditLogService) Record(ctx context.Context, entry *domain.AuditLog) {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		logger.Get().ErrorContext(ctx, "failed to write audit log",
			zap.String("module", entry.Module), zap.String("action", entry.Action), zap.Error(err))
	}
}

func (s *auditLogService) List(ctx context.Context, actor *Actor, query *dto.ListAuditLogsQuery) (*dto.PageResponse[*domain.AuditLog], error) {
	query.SetDefaults()

	scope, err := s.scope(actor)
	if err != nil {
		return nil, err
	}
	if actor.IsSuperAdmin {
		scope.CompanyID = query.CompanyID
	}

	logs, total, err := s.repo.List(ctx, repository.AuditLogFilter{
		Scope:    scope,
		Module:   query.Module,
		Action:   query.Action,
		UserID:   query.UserID,
		UserName: query.UserName,
		Page:     query.Page,
		Limit:    query.Limit,
	})
	if err != nil {
		return nil, err
	}
	return dto.NewPageResponse(logs, total, query.Page, query.Limit), nil
}

func (s *auditLogService) Options(ctx context.Context, actor *Actor) (*dto.AuditLogOptionsResponse, error) {
	var scope repository.AuditLogScope
	if !actor.IsSuperAdmin {
		scope = repository.AuditLogScope{CompanyID: actor.CompanyID, OwnUserID: actor.UserID}
	}

	modules, actions, err := s.repo.Options(ctx, scope)
	if err != nil {
		return nil, err
	}
	return &dto.AuditLogOptionsResponse{Modules: modules, Actions: actions}, nil
}

func (s *auditLogService) Get(ctx context.Context, actor *Actor, id string) (*domain.AuditLog, error) {
	log, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if log == nil {
		return nil, ErrAuditLogNotFound
	}
	if !actor.IsSuperAdmin && (log.CompanyID == nil || *log.CompanyID != actor.CompanyID) {
		return nil, denied("You do not have access to this log")
	}
	return log, nil
}

// scope restricts non super admins to their current company plus their own entries
func (s *auditLogService) scope(actor *Actor) (repository.AuditLogScope, error) {
	if actor.IsSuperAdmin {
		return repository.AuditLogScope{}, nil
	}
	if actor.CompanyID == "" && actor.UserID == "" {
		return repository.AuditLogScope{}, denied("You must belong to a company to view audit logs")
	}
	return repository.AuditLogScope{CompanyID: actor.CompanyID, OwnUserID: actor.UserID}, nil
}
