package service

import (
	"context"
	"errors"
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
	ErrGameInstanceNotFound = errors.New("game instance not found")
	ErrGameInstanceExists   = errors.New("game instance with this slug already exists")
)

// GameInstanceService manages companies' configured games
type GameInstanceService interface {
	List(ctx context.Context, actor *Actor, query *dto.ListGameInstancesQuery) (*dto.PageResponse[*domain.GameInstance], error)
	Get(ctx context.Context, actor *Actor, id string) (*domain.GameInstance, error)
	// Create pins the instance to the actor's company; super admins may name another
	Create(ctx context.Context, actor *Actor, req *dto.CreateGameInstanceRequest) (*domain.GameInstance, error)
	Update(ctx context.Context, actor *Actor, id string, req *dto.UpdateGameInstanceRequest) (*domain.GameInstance, error)
	Delete(ctx context.Context, actor *Actor, id string) error
	// FindPlayable returns the company's active instance of an active game
	FindPlayable(ctx context.Context, companyID, slug string) (*domain.GameInstance, error)
}

type gameInstanceService struct {
	instances repository.GameInstanceRepository
	games     repository.GameRepository
	companies repository.CompanyRepository
}

// NewGameInstanceService creates a new GameInstanceService
func NewGameInstanceService(
	instances repository.GameInstanceRepository,
	games repository.GameRepository,
	companies repository.CompanyRepository,
) GameInstanceService {
	return &gameInstanceService{instances: instances, games: games, companies: companies}
}

func (s *gameInstanceService) List(ctx context.Context, actor *Actor, query *dto.ListGameInstancesQuery) (*dto.PageResponse[*domain.GameInstance], error) {
	ctx, span := telemetry.StartSpan(ctx, "game_instance.list")
	defer span.End()

	query.SetDefaults()
	companyID, err := actor.ScopeCompany(query.CompanyID)
	if err != nil {
		return nil, err
	}

	items, total, err := s.instances.List(ctx, repository.GameInstanceFilter{
		CompanyID: companyID,
		Page:      query.Page,
		Limit:     query.Limit,
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return dto.NewPageResponse(items, total, query.Page, query.Limit), nil
}

func (s *gameInstanceService) Get(ctx context.Context, actor *Actor, id string) (*domain.GameInstance, error) {
	return s.accessibleInstance(ctx, actor, id)
}

func (s *gameInstanceService) Create(ctx context.Context, actor *Actor, req *dto.CreateGameInstanceRequest) (*domain.GameInstance, error) {
	if valid, msg := req.Validate(); !valid {
		return nil, invalid("%s", msg)
	}

	companyID := actor.CompanyID
	if actor.IsSuperAdmin && req.CompanyID != "" {
		companyID = req.CompanyID
	}
	if companyID == "" {
		return nil, invalid("companyId is required")
	}
	if companyID != actor.CompanyID {
		company, err := s.companies.GetByID(ctx, companyID)
		if err != nil {
			return nil, err
		}
		if company == nil {
			return nil, detail(ErrCompanyNotFound, "Company %s not found", companyID)
		}
	}

	game, err := s.games.GetByID(ctx, req.GameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, detail(ErrGameNotFound, "Game %s not found", req.GameID)
	}

	now := time.Now()
	inst := &domain.GameInstance{
		ID:        uuid.New().String(),
		GameID:    game.ID,
		CompanyID: companyID,
		Name:      req.Name,
		Slug:      req.Slug,
		Config:    req.Config,
		IsActive:  boolOr(req.IsActive, true),
		CreatedAt: now,
		UpdatedAt: now,
		Game:      game,
	}
	if inst.Config == nil {
		inst.Config = make(map[string]interface{})
	}

	if err := s.instances.Create(ctx, inst); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrGameInstanceExists
		}
		return nil, err
	}

	logger.Get().InfoContext(ctx, "game instance created",
		zap.String("instance_id", inst.ID),
		zap.String("company_id", companyID),
		zap.String("game", game.Slug),
		zap.String("actor_id", actor.UserID))
	return inst, nil
}

func (s *gameInstanceService) Update(ctx context.Context, actor *Actor, id string, req *dto.UpdateGameInstanceRequest) (*domain.GameInstance, error) {
	if valid, msg := req.Validate(); !valid {
		return nil, invalid("%s", msg)
	}

	inst, err := s.accessibleInstance(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		inst.Name = *req.Name
	}
	if req.Slug != nil {
		inst.Slug = *req.Slug
	}
	if req.Config != nil {
		inst.Config = *req.Config
	}
	if req.IsActive != nil {
		inst.IsActive = *req.IsActive
	}

	if err := s.instances.Update(ctx, inst); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrGameInstanceExists
		}
		return nil, err
	}
	return inst, nil
}

func (s *gameInstanceService) Delete(ctx context.Context, actor *Actor, id string) error {
	inst, err := s.accessibleInstance(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.instances.Delete(ctx, inst.ID); err != nil {
		return err
	}

	logger.Get().InfoContext(ctx, "game instance deleted",
		zap.String("instance_id", inst.ID), zap.String("actor_id", actor.UserID))
	return nil
}

func (s *gameInstanceService) FindPlayable(ctx context.Context, companyID, slug string) (*domain.GameInstance, error) {
	inst, err := s.instances.GetBySlug(ctx, companyID, slug)
	if err != nil {
		return nil, err
	}
	if inst == nil || !inst.IsActive || inst.Game == nil || !inst.Game.IsActive {
		return nil, detail(ErrGameInstanceNotFound, "Game %s not found", slug)
	}
	return inst, nil
}

func (s *gameInstanceService) accessibleInstance(ctx context.Context, actor *Actor, id string) (*domain.GameInstance, error) {
	if !isUUID(id) {
		return nil, detail(ErrGameInstanceNotFound, "Invalid game instance ID")
	}
	inst, err := s.instances.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inst == nil {
		return nil, ErrGameInstanceNotFound
	}
	if !actor.CanAccessCompany(inst.CompanyID) {
		return nil, denied("You do not have access to this game instance")
	}
	return inst, nil
}
