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
	ErrGameNotFound = errors.New("game not found")
	ErrGameExists   = errors.New("game with this slug already exists")
	ErrGameInUse    = errors.New("game is used by game instances")
)

const (
	defaultGameType   = "arcade"
	defaultBaseWidth  = 360
	defaultBaseHeight = 640
)

// GameService manages the global game catalogue. Reads are open to any admin
// holding games:read; changes are reserved to super admins.
type GameService interface {
	// List returns the catalogue, active games only unless all is set
	List(ctx context.Context, all bool) ([]*domain.Game, error)
	// Get looks up by ID when idOrSlug is a UUID, by slug otherwise
	Get(ctx context.Context, idOrSlug string) (*domain.Game, error)
	Stats(ctx context.Context) (*dto.GameStatsResponse, error)
	Create(ctx context.Context, actor *Actor, req *dto.CreateGameRequest) (*domain.Game, error)
	Update(ctx context.Context, actor *Actor, idOrSlug string, req *dto.UpdateGameRequest) (*domain.Game, error)
	// Delete refuses while any company instance still uses the game
	Delete(ctx context.Context, actor *Actor, idOrSlug string) error
}

type gameService struct {
	repo repository.GameRepository
}

// NewGameService creates a new GameService
func NewGameService(repo repository.GameRepository) GameService {
	return &gameService{repo: repo}
}

func (s *gameService) List(ctx context.Context, all bool) ([]*domain.Game, error) {
	ctx, span := telemetry.StartSpan(ctx, "game.list")
	defer span.End()

	games, err := s.repo.List(ctx, !all)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return games, nil
}

func (s *gameService) Get(ctx context.Context, idOrSlug string) (*domain.Game, error) {
	var (
		g   *domain.Game
		err error
	)
	if isUUID(idOrSlug) {
		g, err = s.repo.GetByID(ctx, idOrSlug)
	} else {
		g, err = s.repo.GetBySlug(ctx, idOrSlug)
	}
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, detail(ErrGameNotFound, "Game %s not found", idOrSlug)
	}
	return g, nil
}

func (s *gameService) Stats(ctx context.Context) (*dto.GameStatsResponse, error) {
	games, err := s.repo.List(ctx, false)
	if err != nil {
		return nil, err
	}

	stats := &dto.GameStatsResponse{Total: len(games), ByType: make(map[string]int)}
	for _, g := range games {
		stats.ByType[g.Type]++
	}
	return stats, nil
}

func (s *gameService) Create(ctx context.Context, actor *Actor, req *dto.CreateGameRequest) (*domain.Game, error) {
	if !actor.IsSuperAdmin {
		return nil, denied("Only super admins can change the game catalogue")
	}
	if valid, msg := req.Validate(); !valid {
		return nil, invalid("%s", msg)
	}

	now := time.Now()
	g := &domain.Game{
		ID:           uuid.New().String(),
		Name:         req.Name,
		Slug:         req.Slug,
		Description:  req.Description,
		ThumbnailURL: req.ThumbnailURL,
		Type:         req.Type,
		BaseWidth:    intOr(req.BaseWidth, defaultBaseWidth),
		BaseHeight:   intOr(req.BaseHeight, defaultBaseHeight),
		IsPortrait:   boolOr(req.IsPortrait, true),
		IsActive:     boolOr(req.IsActive, true),
		Config:       req.Config,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if g.Type == "" {
		g.Type = defaultGameType
	}
	if g.Config == nil {
		g.Config = make(map[string]interface{})
	}

	if err := s.repo.Create(ctx, g); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrGameExists
		}
		return nil, err
	}

	logger.Get().InfoContext(ctx, "game created",
		zap.String("game_id", g.ID), zap.String("slug", g.Slug), zap.String("actor_id", actor.UserID))
	return g, nil
}

func (s *gameService) Update(ctx context.Context, actor *Actor, idOrSlug string, req *dto.UpdateGameRequest) (*domain.Game, error) {
	if !actor.IsSuperAdmin {
		return nil, denied("Only super admins can change the game catalogue")
	}
	if valid, msg := req.Validate(); !valid {
		return nil, invalid("%s", msg)
	}

	g, err := s.Get(ctx, idOrSlug)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		g.Name = *req.Name
	}
	if req.Slug != nil {
		g.Slug = *req.Slug
	}
	if req.Description != nil {
		g.Description = *req.Description
	}
	if req.ThumbnailURL != nil {
		g.ThumbnailURL = *req.ThumbnailURL
	}
	if req.Type != nil && *req.Type != "" {
		g.Type = *req.Type
	}
	if req.BaseWidth != nil {
		g.BaseWidth = *req.BaseWidth
	}
	if req.BaseHeight != nil {
		g.BaseHeight = *req.BaseHeight
	}
	if req.IsPortrait != nil {
		g.IsPortrait = *req.IsPortrait
	}
	if req.IsActive != nil {
		g.IsActive = *req.IsActive
	}
	if req.Config != nil {
		g.Config = *req.Config
	}
	g.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, g); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrGameExists
		}
		return nil, err
	}
	return g, nil
}

func (s *gameService) Delete(ctx context.Context, actor *Actor, idOrSlug string) error {
	if !actor.IsSuperAdmin {
		return denied("Only super admins can change the game catalogue")
	}

	g, err := s.Get(ctx, idOrSlug)
	if err != nil {
		return err
	}

	n, err := s.repo.CountInstances(ctx, g.ID)
	if err != nil {
		return err
	}
	if n > 0 {
		return detail(ErrGameInUse, "Game %s is used by %d game instances", g.Slug, n)
	}

	if err := s.repo.Delete(ctx, g.ID); err != nil {
		return err
	}

	logger.Get().InfoContext(ctx, "game deleted", zap.String("game_id", g.ID), zap.String("actor_id", actor.UserID))
	return nil
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}
