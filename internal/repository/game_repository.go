package repository

import (
	"context"

	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/domain"
)

// GameRepository defines data access for the global game catalogue
type GameRepository interface {
	Create(ctx context.Context, game *domain.Game) error
	GetByID(ctx context.Context, id string) (*domain.Game, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Game, error)
	// List returns games newest first, only active ones when activeOnly
	List(ctx context.Context, activeOnly bool) ([]*domain.Game, error)
	Update(ctx context.Context, game *domain.Game) error
	Delete(ctx context.Context, id string) error
	// CountInstances returns how many instances use the game
	CountInstances(ctx context.Context, id string) (int, error)
}

// GameInstanceFilter narrows instance listings. A blank CompanyID lists every tenant.
type GameInstanceFilter struct {
	CompanyID string
	Page      int
	Limit     int
}

// GameInstanceRepository defines data access for company game instances.
// Reads join the catalogue entry into GameInstance.Game.
type GameInstanceRepository interface {
	Create(ctx context.Context, instance *domain.GameInstance) error
	GetByID(ctx context.Context, id string) (*domain.GameInstance, error)
	GetBySlug(ctx context.Context, companyID, slug string) (*domain.GameInstance, error)
	List(ctx context.Context, filter GameInstanceFilter) ([]*domain.GameInstance, int, error)
	Update(ctx context.Context, instance *domain.GameInstance) error
	Delete(ctx context.Context, id string) error
}

// ScoreRepository defines data access for submitted scores
type ScoreRepository interface {
	Create(ctx context.Context, score *domain.Score) error
	// ListByMember returns a member's scores, newest first, at most limit
	ListByMember(ctx context.Context, memberID string, limit int) ([]*domain.Score, error)
}
