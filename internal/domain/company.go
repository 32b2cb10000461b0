package domain

import (
	"time"
)

// Company is a tenant
type Company struct {
	ID         string                 `json:"id"`
	Name       string                 `json:"name"`
	Slug       string                 `json:"slug"`
	Settings   map[string]interface{} `json:"settings,omitempty"`
	APISecret  string                 `json:"-"` // encrypted at rest
	IsActive   bool                   `json:"isActive"`
	InactiveAt *time.Time             `json:"inactiveAt,omitempty"`
	CreatedAt  time.Time              `json:"createdAt"`
	UpdatedAt  time.Time              `json:"updatedAt"`
}
