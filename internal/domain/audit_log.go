package domain

import (
	"time"
)

// AuditLog is a stored audit entry
type AuditLog struct {
	ID        string      `json:"id"`
	UserID    *string     `json:"userId"`
	UserName  *string     `json:"userName"`
	CompanyID *string     `json:"companyId"`
	Module    string      `json:"module"`
	Action    string      `json:"action"`
	Method    string      `json:"method,omitempty"`
	Path      string      `json:"path,omitempty"`
	IP        string      `json:"ip,omitempty"`
	UserAgent string      `json:"userAgent,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
	Params    interface{} `json:"params,omitempty"`
	Result    interface{} `json:"result,omitempty"`
	Status    int         `json:"status"`
	Duration  int64       `json:"duration"`
	CreatedAt time.Time   `json:"createdAt"`
}
