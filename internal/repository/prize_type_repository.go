package repository

import (
	"context"

	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/domain"
)

// PrizeTypeRepository defines data access for the prize type catalogue.
// companyID "" means no tenant: only global rows are visible.
type PrizeTypeRepository interface {
	// FindActive returns active types of the company plus active global types, ordered by name
	FindActive(ctx context.Context, companyID string) ([]*domain.PrizeType, error)
	// FindActiveBySlug returns the tenant-specific row when present, else the global one
	FindActiveBySlug(ctx context.Context, slug, companyID string) (*domain.PrizeType, error)
	// GetByID returns a type regardless of tenant or active state
	GetByID(ctx context.Context, id string) (*domain.PrizeType, error)
	// GetGlobalBySlug returns the global row with slug regardless of active state
	GetGlobalBySlug(ctx context.Context, slug string) (*domain.PrizeType, error)
	Create(ctx context.Context, prizeType *domain.PrizeType) error
	Update(ctx context.Context, prizeType *domain.PrizeType) error
	Delete(ctx context.Context, id string) error
}
