package repository

import (
	"context"
	"time"

	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/domain"
)

// MemberPrizeFilter narrows prize listings
type MemberPrizeFilter struct {
	CompanyID  string
	MemberID   string
	InstanceID string
	Status     domain.PrizeStatus
	Page       int
	Limit      int
}

// MemberPrizeRepository defines data access for won prizes
type MemberPrizeRepository interface {
	Create(ctx context.Context, prize *domain.MemberPrize) error
	GetByID(ctx context.Context, id string) (*domain.MemberPrize, error)
	// UpdateStatus stores status and metadata, failing when the stored status no longer equals from
	UpdateStatus(ctx context.Context, prize *domain.MemberPrize, from domain.PrizeStatus) error
	// BeginFulfilment moves a pending prize, or one left processing since before
	// staleBefore, to processing. Exactly one concurrent caller succeeds; the
	// others get ErrStaleStatus.
	BeginFulfilment(ctx context.Context, prize *domain.MemberPrize, staleBefore time.Time) error
	ListByMember(ctx context.Context, memberID string) ([]*domain.MemberPrize, error)
	List(ctx context.Context, filter MemberPrizeFilter) ([]*domain.MemberPrize, int, error)
	CountByStatus(ctx context.Context, companyID string) ([]domain.PrizeStatusCount, error)
}
