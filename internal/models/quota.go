package models

import (
	"time"

	"gorm.io/gorm"
)

// Quota is an attendance target evaluated over the workspace's current
// timeframe: minutes in game, sessions hosted or sessions attended.
type Quota struct {
	ID          string         `gorm:"primaryKey;size:36" json:"id"`
	WorkspaceID uint64         `gorm:"not null;index" json:"workspace_id"`
	Name        string         `gorm:"size:255;not null" json:"name"`
	Metric      string         `gorm:"size:32;not null" json:"metric"` // minutes | sessions_hosted | sessions_attended
	Target      int            `gorm:"not null" json:"target"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Roles []Role `gorm:"many2many:quota_roles" json:"roles"`
}

func (Quota) TableName() string {
	return "quotas"
}
