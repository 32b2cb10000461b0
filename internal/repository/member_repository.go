package repository

import (
	"context"

	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/domain"
)

// MemberFilter narrows member listings
type MemberFilter struct {
	CompanyID  string
	Username   string
	ExternalID string
	Page       int
	Limit      int
}

// MemberRepository defines data access for members and their balances
type MemberRepository interface {
	Create(ctx context.Context, member *domain.Member) error
	GetByID(ctx context.Context, id string) (*domain.Member, error)
	GetByExternalID(ctx context.Context, companyID, externalID string) (*domain.Member, error)
	List(ctx context.Context, filter MemberFilter) ([]*domain.Member, int, error)
	Update(ctx context.Context, member *domain.Member) error
	Delete(ctx context.Context, id string) error
	// AddPoints atomically adds delta to the balance and returns the new balance
	AddPoints(ctx context.Context, id string, delta int64) (int64, error)
	// AdjustBalance locks the member, applies tx.Amount and records tx with before/after balances
	AdjustBalance(ctx context.Context, tx *domain.CreditTransaction) (*domain.Member, error)
	// MergeGuest moves the guest balance onto target and removes the guest
	MergeGuest(ctx context.Context, guestID, targetID string) (*domain.Member, error)
}

// CreditTransactionFilter narrows company-wide credit history
type CreditTransactionFilter struct {
	CompanyID string
	MemberID  string
	Type      string
	Page      int
	Limit     int
}

// CreditTransactionRepository defines read access to the balance ledger
type CreditTransactionRepository interface {
	ListByMember(ctx context.Context, memberID string, limit int) ([]*domain.CreditTransaction, error)
	List(ctx context.Context, filter CreditTransactionFilter) ([]*domain.CreditTransaction, int, error)
}
