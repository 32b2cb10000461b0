package repository

import (
	"context"

	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/domain"
)

// CompanyFilter narrows company listings
type CompanyFilter struct {
	IDs      []string // restricts to these companies when non-nil
	IsActive *bool
	Search   string
	Page     int
	Limit    int
}

// CompanyRepository defines data access for tenants
type CompanyRepository interface {
	Create(ctx context.Context, company *domain.Company) error
	GetByID(ctx context.Context, id string) (*domain.Company, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Company, error)
	List(ctx context.Context, filter CompanyFilter) ([]*domain.Company, int, error)
	Update(ctx context.Context, company *domain.Company) error
	Delete(ctx context.Context, id string) error
	ExistsBySlug(ctx context.Context, slug string) (bool, error)
}
