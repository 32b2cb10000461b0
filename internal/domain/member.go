package domain

import (
	"time"
)

// Member is a player belonging to one company
type Member struct {
	ID            string                 `json:"id"`
	CompanyID     string                 `json:"companyId"`
	ExternalID    *string                `json:"externalId"`
	Username      string                 `json:"username"`
	PasswordHash  string                 `json:"-"`
	PointsBalance int64                  `json:"pointsBalance"`
	IsAnonymous   bool                   `json:"isAnonymous"`
	IsActive      bool                   `json:"isActive"`
	Email         string                 `json:"email,omitempty"`
	Phone         string                 `json:"phone,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt     time.Time              `json:"createdAt"`
	UpdatedAt     time.Time              `json:"updatedAt"`

	CompanyName string `json:"companyName,omitempty"`
}

// Credit transaction types
const (
	CreditTypeManualAdjustment = "MANUAL_ADJUSTMENT"
	CreditTypeGameWin          = "GAME_WIN"
	CreditTypeGuestMerge       = "GUEST_MERGE"
)

// CreditTransaction is an immutable balance change
type CreditTransaction struct {
	ID            string                 `json:"id"`
	MemberID      string                 `json:"memberId"`
	Amount        int64                  `json:"amount"`
	BalanceBefore int64                  `json:"balanceBefore"`
	BalanceAfter  int64                  `json:"balanceAfter"`
	Type          string                 `json:"type"`
	Reason        string                 `json:"reason,omitempty"`
	AdminUserID   *string                `json:"adminUserId,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt     time.Time              `json:"createdAt"`

	MemberUsername string `json:"memberUsername,omitempty"`
}

// Login subjects
const (
	LoginSubjectMember = "member"
	LoginSubjectUser   = "user"
)

// LoginHistory is one login attempt by a member or admin user
type LoginHistory struct {
	ID            string                 `json:"id" bson:"_id"`
	SubjectType   string                 `json:"subjectType" bson:"subject_type"`
	SubjectID     string                 `json:"subjectId" bson:"subject_id"`
	CompanyID     string                 `json:"companyId,omitempty" bson:"company_id,omitempty"`
	IPAddress     string                 `json:"ipAddress,omitempty" bson:"ip_address,omitempty"`
	UserAgent     string                 `json:"userAgent,omitempty" bson:"user_agent,omitempty"`
	Success       bool                   `json:"success" bson:"success"`
	FailureReason string                 `json:"failureReason,omitempty" bson:"failure_reason,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty" bson:"metadata,omitempty"`
	CreatedAt     time.Time              `json:"createdAt" bson:"created_at"`
}
