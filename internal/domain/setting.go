package domain

import (
	"time"
)

// Well-known setting keys
const (
	SettingEmailVerificationRequired = "EMAIL_VERIFICATION_REQUIRED"
	SettingAuditLogConfig            = "AUDIT_LOG_CONFIG"
	SettingWebAppURL                 = "WEB_APP_URL"
)

// PublicSettingKeys may be read without authentication
var PublicSettingKeys = []string{SettingEmailVerificationRequired}

// SystemSetting is a global key/value entry
type SystemSetting struct {
	Key         string      `json:"key"`
	Value       interface{} `json:"value"`
	Description string      `json:"description,omitempty"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}
