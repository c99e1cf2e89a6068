package models

import (
	"strings"
	"time"
)

// Workspace mirrors one external community group. ID is the external group
// id, so it is assigned, never auto-incremented.
type Workspace struct {
	ID     uint64 `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name   string `gorm:"size:255;not null" json:"name"`
	APIKey string `gorm:"uniqueIndex;size:64;not null" json:"-"` // authenticates the game client
	// MinRank gates activity heartbeats: a reporting user's group rank must
	// exceed it, otherwise the heartbeat is soft-accepted without a session.
	MinRank int `gorm:"default:0" json:"min_rank"`
	// TimeframeStart is the lower bound of the current quota window. Reset
	// advances it; activity history is never deleted.
	TimeframeStart time.Time `gorm:"not null" json:"timeframe_start"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (Workspace) TableName() string {
	return "workspaces"
}

// Role is a workspace role with a comma-separated permission list. Role and
// permission administration itself lives outside this service; claims only
// read these rows.
type Role struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	WorkspaceID uint64    `gorm:"not null;index" json:"workspace_id"`
	Name        string    `gorm:"size:64;not null" json:"name"`
	Permissions string    `gorm:"size:512" json:"permissions"`
	IsAdmin     bool      `gorm:"default:false" json:"is_admin"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Workspace Workspace `gorm:"foreignKey:WorkspaceID" json:"-"`
}

func (Role) TableName() string {
	return "roles"
}

func (r *Role) HasPermission(perm string) bool {
	if r.IsAdmin {
		return true
	}
	for _, p := range strings.Split(r.Permissions, ",") {
		if strings.TrimSpace(p) == perm {
			return true
		}
	}
	return false
}
