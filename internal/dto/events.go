package dto

import (
	"time"
)

// Event topics
const (
	TopicPrizeAwarded       = "prize.awarded"
	TopicPointsCredited     = "member.points-credited"
	TopicPrizeStatusChanged = "member.prize-status-changed"
	TopicScoreSubmitted     = "game.score-submitted"
)

// PrizeAwardedEvent is published when a member prize is recorded
type PrizeAwardedEvent struct {
	PrizeID    string    `json:"prize_id"`
	MemberID   string    `json:"member_id"`
	CompanyID  string    `json:"company_id,omitempty"`
	InstanceID string    `json:"instance_id"`
	PrizeName  string    `json:"prize_name"`
	PrizeType  string    `json:"prize_type"`
	PrizeValue float64   `json:"prize_value"`
	Strategy   string    `json:"strategy,omitempty"`
	Status     string    `json:"status"`
	Note       string    `json:"note,omitempty"`
	AwardedAt  time.Time `json:"awarded_at"`
}

// Key partitions by member
func (e *PrizeAwardedEvent) Key() string {
	return e.MemberID
}

// PointsCreditedEvent is published when a member balance changes
type PointsCreditedEvent struct {
	MemberID     string    `json:"member_id"`
	CompanyID    string    `json:"company_id,omitempty"`
	Amount       int64     `json:"amount"`
	BalanceAfter int64     `json:"balance_after"`
	Source       string    `json:"source"`
	ActorID      string    `json:"actor_id,omitempty"`
	CreditedAt   time.Time `json:"credited_at"`
}

// Key partitions by member
func (e *PointsCreditedEvent) Key() string {
	return e.MemberID
}

// PrizeStatusChangedEvent is published on every fulfilment state change
type PrizeStatusChangedEvent struct {
	PrizeID   string    `json:"prize_id"`
	MemberID  string    `json:"member_id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	ActorID   string    `json:"actor_id,omitempty"`
	ChangedAt time.Time `json:"changed_at"`
}

// Key partitions by member
func (e *PrizeStatusChangedEvent) Key() string {
	return e.MemberID
}

// ScoreSubmittedEvent is published when a member's score is recorded
type ScoreSubmittedEvent struct {
	ScoreID     string    `json:"score_id"`
	MemberID    string    `json:"member_id"`
	CompanyID   string    `json:"company_id"`
	InstanceID  string    `json:"instance_id"`
	Score       int64     `json:"score"`
	PrizeID     string    `json:"prize_id,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Key partitions by member
func (e *ScoreSubmittedEvent) Key() string {
	return e.MemberID
}
