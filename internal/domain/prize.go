package domain

import (
	"time"
)

// PrizeStrategy selects how a won prize is fulfilled
type PrizeStrategy string

const (
	PrizeStrategyBalanceCredit PrizeStrategy = "balance_credit"
	PrizeStrategyManualFulfill PrizeStrategy = "manual_fulfill"
	PrizeStrategyVirtualCode   PrizeStrategy = "virtual_code"
	PrizeStrategyExternalHook  PrizeStrategy = "external_hook"
)

// IsValid reports whether s is a known strategy
func (s PrizeStrategy) IsValid() bool {
	switch s {
	case PrizeStrategyBalanceCredit, PrizeStrategyManualFulfill, PrizeStrategyVirtualCode, PrizeStrategyExternalHook:
		return true
	}
	return false
}

// PrizeType is a catalogue entry describing a kind of prize.
// A nil CompanyID makes the type global, visible to every tenant.
type PrizeType struct {
	ID          string                 `json:"id"`
	CompanyID   *string                `json:"companyId"`
	Name        string                 `json:"name"`
	Slug        string                 `json:"slug"`
	Strategy    PrizeStrategy          `json:"strategy"`
	Icon        string                 `json:"icon,omitempty"`
	Description string                 `json:"description,omitempty"`
	Config      map[string]interface{} `json:"config,omitempty"`
	ShowValue   bool                   `json:"showValue"`
	IsPoints    bool                   `json:"isPoints"`
	IsActive    bool                   `json:"isActive"`
	CreatedAt   time.Time              `json:"createdAt"`
	UpdatedAt   time.Time              `json:"updatedAt"`
}

// IsGlobal reports whether the type belongs to no tenant
func (p *PrizeType) IsGlobal() bool {
	return p.CompanyID == nil
}

// WebhookURL returns config.webhookUrl when it is a non-empty string
func (p *PrizeType) WebhookURL() string {
	if p.Config == nil {
		return ""
	}
	url, _ := p.Config["webhookUrl"].(string)
	return url
}

// PrizeStatus is the fulfilment state of a member prize
type PrizeStatus string

const (
	PrizeStatusPending   PrizeStatus = "pending"
	PrizeStatusClaimed   PrizeStatus = "claimed"
	PrizeStatusFulfilled PrizeStatus = "fulfilled"
	PrizeStatusShipped   PrizeStatus = "shipped"
	PrizeStatusRejected  PrizeStatus = "rejected"

	// PrizeStatusProcessing marks a prize whose strategy is running. It is
	// entered and left only by the fulfilment flow, never by a status update.
	PrizeStatusProcessing PrizeStatus = "processing"
)

var prizeTransitions = map[PrizeStatus][]PrizeStatus{
	PrizeStatusPending: {PrizeStatusClaimed, PrizeStatusFulfilled, PrizeStatusRejected},
	PrizeStatusClaimed: {PrizeStatusFulfilled, PrizeStatusShipped, PrizeStatusRejected},
	PrizeStatusShipped: {PrizeStatusFulfilled},
}

// IsValid reports whether s is a known status
func (s PrizeStatus) IsValid() bool {
	switch s {
	case PrizeStatusPending, PrizeStatusClaimed, PrizeStatusFulfilled, PrizeStatusShipped, PrizeStatusRejected:
		return true
	}
	return false
}

// CanTransitionTo reports whether moving from s to next is allowed
func (s PrizeStatus) CanTransitionTo(next PrizeStatus) bool {
	for _, allowed := range prizeTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsFinal reports whether no further transition is possible
func (s PrizeStatus) IsFinal() bool {
	return s != PrizeStatusProcessing && len(prizeTransitions[s]) == 0
}

// DefaultPrizeType is used when a win does not name a type
const DefaultPrizeType = "points"

// MaxPrizeValue is the largest prize value that fits member_prizes.prize_value
// and converts to whole points without overflowing int64
const MaxPrizeValue = 1e15

// MemberPrize records a prize won by a member
type MemberPrize struct {
	ID            string                 `json:"id"`
	MemberID      string                 `json:"memberId"`
	InstanceID    string                 `json:"instanceId"`
	PlayAttemptID *string                `json:"playAttemptId,omitempty"`
	PrizeID       *string                `json:"prizeId,omitempty"`
	PrizeName     string                 `json:"prizeName"`
	PrizeType     string                 `json:"prizeType"`
	PrizeValue    float64                `json:"prizeValue"`
	Status        PrizeStatus            `json:"status"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt     time.Time              `json:"createdAt"`
	UpdatedAt     time.Time              `json:"updatedAt"`

	// Populated by list queries
	MemberUsername string `json:"memberUsername,omitempty"`
	CompanyID      string `json:"companyId,omitempty"`
}

// StrategyNote returns metadata.note if present
func (m *MemberPrize) StrategyNote() string {
	if m.Metadata == nil {
		return ""
	}
	note, _ := m.Metadata["note"].(string)
	return note
}

// PrizeStatusCount is one row of the per-status summary
type PrizeStatusCount struct {
	Status PrizeStatus `json:"status"`
	Count  int64       `json:"count"`
}
