package service

import (
	"context"
	"errors"
	"time"

	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/domain"
	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/repository"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/logger"
	"go.uber.org/zap"
)

var ErrSettingNotFound = errors.New("setting not found")

// SettingsService manages global key/value settings
type SettingsService interface {
	Get(ctx context.Context, key string) (*domain.SystemSetting, error)
	Set(ctx context.Context, key string, value interface{}, description string) (*domain.SystemSetting, error)
	// SetMany stores every key of values
	SetMany(ctx context.Context, values map[string]interface{}) error
	GetAll(ctx context.Context) (map[string]interface{}, error)
	// Public returns the settings readable without authentication
	Public(ctx context.Context) (map[string]interface{}, error)
	// IsTrue reports whether key holds true or "true"
	IsTrue(ctx context.Context, key string) bool
	// AuditModuleEnabled consults AUDIT_LOG_CONFIG {"enabled": bool, "modules": {name: bool}}
	AuditModuleEnabled(ctx context.Context, module string) bool
}

type settingsService struct {
	repo repository.SettingRepository
}

// NewSettingsService creates a new SettingsService
func NewSettingsService(repo repository.SettingRepository) SettingsService {
	return &settingsService{repo: repo}
}

func (s *settingsService) Get(ctx context.Context, key string) (*domain.SystemSetting, error) {
	setting, err := s.repo.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if setting == nil {
		return nil, detail(ErrSettingNotFound, "Setting %s not found", key)
	}
	return setting, nil
}

func (s *settingsService) Set(ctx context.Context, key string, value interface{}, description string) (*domain.SystemSetting, error) {
	if key == "" {
		return nil, invalid("key is required")
	}
	setting := &domain.SystemSetting{
		Key:         key,
		Value:       value,
		Description: description,
		UpdatedAt:   time.Now(),
	}
	if err := s.repo.Set(ctx, setting); err != nil {
		return nil, err
	}
	logger.Get().InfoContext(ctx, "system setting updated", zap.String("key", key))
	return setting, nil
}

func (s *settingsService) SetMany(ctx context.Context, values map[string]interface{}) error {
	for key, value := range values {
		if _, err := s.Set(ctx, key, value, ""); err != nil {
			return err
		}
	}
	return nil
}

func (s *settingsService) GetAll(ctx context.Context) (map[string]interface{}, error) {
	settings, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	result := make(map[string]interface{}, len(settings))
	for _, setting := range settings {
		result[setting.Key] = setting.Value
	}
	return result, nil
}

func (s *settingsService) Public(ctx context.Context) (map[string]interface{}, error) {
	result := make(map[string]interface{}, len(domain.PublicSettingKeys))
	for _, key := range domain.PublicSettingKeys {
		setting, err := s.repo.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if setting != nil {
			result[key] = setting.Value
		} else {
			result[key] = nil
		}
	}
	return result, nil
}

func (s *settingsService) IsTrue(ctx context.Context, key string) bool {
	setting, err := s.repo.Get(ctx, key)
	if err != nil {
		logger.Get().WarnContext(ctx, "failed to read setting", zap.String("key", key), zap.Error(err))
		return false
	}
	if setting == nil {
		return false
	}
	switch v := setting.Value.(type) {
	case bool:
		return v
	case string:
		return v == "true"
	}
	return false
}

func (s *settingsService) AuditModuleEnabled(ctx context.Context, module string) bool {
	setting, err := s.repo.Get(ctx, domain.SettingAuditLogConfig)
	if err != nil || setting == nil {
		return true
	}
	cfg, ok := setting.Value.(map[string]interface{})
	if !ok {
		return true
	}
	if enabled, ok := cfg["enabled"].(bool); ok && !enabled {
		return false
	}
	if modules, ok := cfg["modules"].(map[string]interface{}); ok {
		if enabled, ok := modules[module].(bool); ok && !enabled {
			return false
		}
	}
	return true
}
