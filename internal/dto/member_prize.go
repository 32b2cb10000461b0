package dto

import (
	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/domain"
)

// AwardPrizeRequest records a win and fulfils it through the prize type's strategy
type AwardPrizeRequest struct {
	MemberID      string                 `json:"memberId" binding:"required"`
	InstanceID    string                 `json:"instanceId" binding:"required"`
	PlayAttemptID string                 `json:"playAttemptId"`
	PrizeID       string                 `json:"prizeId"`
	PrizeName     string                 `json:"prizeName" binding:"required,max=255"`
	PrizeType     string                 `json:"prizeType"`
	PrizeValue    float64                `json:"prizeValue" binding:"min=0,max=1000000000000000"`
	Config        map[string]interface{} `json:"config"`
	Metadata      map[string]interface{} `json:"metadata"`
}

// UpdatePrizeStatusRequest moves a prize to another fulfilment state
type UpdatePrizeStatusRequest struct {
	Status   domain.PrizeStatus     `json:"status" binding:"required"`
	Metadata map[string]interface{} `json:"metadata"`
}

// Validate checks the target status
func (r *UpdatePrizeStatusRequest) Validate() (bool, string) {
	if !r.Status.IsValid() {
		return false, "status must be one of pending, claimed, fulfilled, shipped, rejected"
	}
	return true, ""
}

// ListMemberPrizesQuery represents query parameters for the admin prize list
type ListMemberPrizesQuery struct {
	PageQuery
	Status     string `form:"status"`
	MemberID   string `form:"memberId"`
	InstanceID string `form:"instanceId"`
	CompanyID  string `form:"companyId"`
}

// PrizeStatsResponse summarises prizes per status
type PrizeStatsResponse struct {
	Stats []domain.PrizeStatusCount `json:"stats"`
	Total int64                     `json:"total"`
}
