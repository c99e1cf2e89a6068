package models

import (
	"time"
)

// User is the identity cache for an external user id. Username and Picture
// are refreshed best-effort from the identity service whenever the user
// reports activity; they are display data, not a source of truth.
type User struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement:false" json:"userid"`
	WorkspaceID  uint64    `gorm:"not null;index" json:"workspace_id"`
	Username     string    `gorm:"size:64;index" json:"username"`
	Picture      string    `gorm:"size:512" json:"picture"`
	RoleID       *string   `gorm:"size:36;index" json:"role_id"`
	PasswordHash string    `gorm:"size:255" json:"-"` // set only for console accounts
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Role *Role `gorm:"foreignKey:RoleID" json:"role,omitempty"`
}

func (User) TableName() string {
	return "users"
}
