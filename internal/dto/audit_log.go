package dto

// ListAuditLogsQuery represents query parameters for the audit trail
type ListAuditLogsQuery struct {
	PageQuery
	Module    string `form:"module"`
	Action    string `form:"action"`
	UserID    string `form:"userId"`
	UserName  string `form:"userName"`
	CompanyID string `form:"companyId"`
}

// AuditLogOptionsResponse lists filter values present in the trail
type AuditLogOptionsResponse struct {
	Modules []string `json:"modules"`
	Actions []string `json:"actions"`
}

// SetSettingRequest sets one system setting
type SetSettingRequest struct {
	Value       interface{} `json:"value"`
	Description string      `json:"description"`
}
