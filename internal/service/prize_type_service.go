package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/domain"
	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/dto"
	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/repository"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/database"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/logger"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrPrizeTypeNotFound = errors.New("prize type not found")
	ErrPrizeTypeExists   = errors.New("prize type with this slug already exists")
)

// defaultPrizeTypes are the global catalogue entries installed by SeedDefaults
var defaultPrizeTypes = []domain.PrizeType{
	{Name: "Item", Slug: "item", Strategy: domain.PrizeStrategyManualFulfill, Icon: "🎁", Description: "Physical items requiring manual fulfillment"},
	{Name: "E-Gift", Slug: "egift", Strategy: domain.PrizeStrategyVirtualCode, ShowValue: true, Icon: "📧", Description: "Digital codes/coupons"},
	{Name: "Cash", Slug: "cash", Strategy: domain.PrizeStrategyManualFulfill, ShowValue: true, Icon: "💰", Description: "Cash payout (requires approval)"},
	{Name: "Points", Slug: "points", Strategy: domain.PrizeStrategyBalanceCredit, ShowValue: true, IsPoints: true, Icon: "⚪", Description: "Loyalty points credit"},
}

// PrizeTypeService manages the tenant-scoped prize type catalogue
type PrizeTypeService interface {
	// FindAll lists active types visible to companyID, global ones included
	FindAll(ctx context.Context, companyID string) ([]*domain.PrizeType, error)
	// FindBySlug returns the active type with slug, preferring the tenant's own row. Nil when absent.
	FindBySlug(ctx context.Context, slug, companyID string) (*domain.PrizeType, error)
	// ResolveType looks up by ID when idOrSlug is a UUID, falling back to FindBySlug
	ResolveType(ctx context.Context, idOrSlug, companyID string) (*domain.PrizeType, error)
	// FindOne looks up by ID only
	FindOne(ctx context.Context, id string) (*domain.PrizeType, error)
	Create(ctx context.Context, req *dto.CreatePrizeTypeRequest) (*domain.PrizeType, error)
	Update(ctx context.Context, idOrSlug string, req *dto.UpdatePrizeTypeRequest, companyID string) (*domain.PrizeType, error)
	Remove(ctx context.Context, idOrSlug, companyID string) error
	// SeedDefaults upserts the global default types
	SeedDefaults(ctx context.Context) ([]*domain.PrizeType, error)
}

type prizeTypeService struct {
	repo repository.PrizeTypeRepository
}

// NewPrizeTypeService creates a new PrizeTypeService
func NewPrizeTypeService(repo repository.PrizeTypeRepository) PrizeTypeService {
	return &prizeTypeService{repo: repo}
}

func (s *prizeTypeService) FindAll(ctx context.Context, companyID string) ([]*domain.PrizeType, error) {
	ctx, span := telemetry.StartSpan(ctx, "prize_type.find_all")
	defer span.End()

	types, err := s.repo.FindActive(ctx, strings.TrimSpace(companyID))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return types, nil
}

func (s *prizeTypeService) FindBySlug(ctx context.Context, slug, companyID string) (*domain.PrizeType, error) {
	return s.repo.FindActiveBySlug(ctx, slug, strings.TrimSpace(companyID))
}

func (s *prizeTypeService) ResolveType(ctx context.Context, idOrSlug, companyID string) (*domain.PrizeType, error) {
	ctx, span := telemetry.StartSpan(ctx, "prize_type.resolve")
	defer span.End()

	if isUUID(idOrSlug) {
		p, err := s.repo.GetByID(ctx, idOrSlug)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		if p != nil {
			return p, nil
		}
	}

	p, err := s.FindBySlug(ctx, idOrSlug, companyID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if p == nil {
		return nil, detail(ErrPrizeTypeNotFound, "Prize type %s not found", idOrSlug)
	}
	return p, nil
}

func (s *prizeTypeService) FindOne(ctx context.Context, id string) (*domain.PrizeType, error) {
	if !isUUID(id) {
		return nil, detail(ErrPrizeTypeNotFound, "Invalid prize type ID")
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, detail(ErrPrizeTypeNotFound, "Prize type %s not found", id)
	}
	return p, nil
}

func (s *prizeTypeService) Create(ctx context.Context, req *dto.CreatePrizeTypeRequest) (*domain.PrizeType, error) {
	if valid, msg := req.Validate(); !valid {
		return nil, invalid("%s", msg)
	}

	now := time.Now()
	p := &domain.PrizeType{
		ID:          uuid.New().String(),
		CompanyID:   normalizeCompanyID(req.CompanyID),
		Name:        req.Name,
		Slug:        req.Slug,
		Strategy:    req.Strategy,
		Icon:        req.Icon,
		Description: req.Description,
		Config:      req.Config,
		ShowValue:   boolOr(req.ShowValue, true),
		IsPoints:    boolOr(req.IsPoints, false),
		IsActive:    boolOr(req.IsActive, true),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if p.Config == nil {
		p.Config = make(map[string]interface{})
	}

	if err := s.repo.Create(ctx, p); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrPrizeTypeExists
		}
		return nil, err
	}

	logger.Get().InfoContext(ctx, "prize type created", zap.String("prize_type_id", p.ID), zap.String("slug", p.Slug))
	return p, nil
}

func (s *prizeTypeService) Update(ctx context.Context, idOrSlug string, req *dto.UpdatePrizeTypeRequest, companyID string) (*domain.PrizeType, error) {
	if valid, msg := req.Validate(); !valid {
		return nil, invalid("%s", msg)
	}

	p, err := s.ResolveType(ctx, idOrSlug, companyID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Slug != nil {
		p.Slug = *req.Slug
	}
	if req.Strategy != nil {
		p.Strategy = *req.Strategy
	}
	if req.Icon != nil {
		p.Icon = *req.Icon
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Config != nil {
		p.Config = *req.Config
	}
	if req.ShowValue != nil {
		p.ShowValue = *req.ShowValue
	}
	if req.IsPoints != nil {
		p.IsPoints = *req.IsPoints
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	if req.CompanyID != nil {
		p.CompanyID = normalizeCompanyID(req.CompanyID)
	}
	p.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, p); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrPrizeTypeExists
		}
		return nil, err
	}

	return s.FindOne(ctx, p.ID)
}

func (s *prizeTypeService) Remove(ctx context.Context, idOrSlug, companyID string) error {
	p, err := s.ResolveType(ctx, idOrSlug, companyID)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, p.ID)
}

func (s *prizeTypeService) SeedDefaults(ctx context.Context) ([]*domain.PrizeType, error) {
	seeded := make([]*domain.PrizeType, 0, len(defaultPrizeTypes))
	now := time.Now()

	for _, def := range defaultPrizeTypes {
		existing, err := s.repo.GetGlobalBySlug(ctx, def.Slug)
		if err != nil {
			return nil, err
		}

		if existing == nil {
			p := def
			p.ID = uuid.New().String()
			p.Config = make(map[string]interface{})
			p.IsActive = true
			p.CreatedAt = now
			p.UpdatedAt = now
			if err := s.repo.Create(ctx, &p); err != nil {
				return nil, err
			}
			seeded = append(seeded, &p)
			continue
		}

		existing.Name = def.Name
		existing.Strategy = def.Strategy
		existing.ShowValue = def.ShowValue
		existing.IsPoints = def.IsPoints
		existing.Icon = def.Icon
		existing.Description = def.Description
		existing.UpdatedAt = now
		if err := s.repo.Update(ctx, existing); err != nil {
			return nil, err
		}
		seeded = append(seeded, existing)
	}

	logger.Get().InfoContext(ctx, "default prize types seeded", zap.Int("count", len(seeded)))
	return seeded, nil
}

func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil && len(s) == 36
}

// normalizeCompanyID maps a missing or blank company to nil, meaning global
func normalizeCompanyID(companyID *string) *string {
	if companyID == nil || strings.TrimSpace(*companyID) == "" {
		return nil
	}
	id := strings.TrimSpace(*companyID)
	return &id
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
