package models

import (
	"fmt"
	"time"
)

// ActivitySession is one presence session reported by the game client.
// While open, Active is true and ActiveKey holds "userID:workspaceID"; the
// unique index on ActiveKey is what enforces at most one open session per
// user per workspace under concurrent heartbeats. Closing a session clears
// ActiveKey and the row becomes immutable.
type ActivitySession struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	UserID       uint64     `gorm:"not null;index:idx_activity_user" json:"user_id"`
	WorkspaceID  uint64     `gorm:"not null;index:idx_activity_user" json:"workspace_id"`
	PlaceID      *uint64    `json:"place_id"`
	StartTime    time.Time  `gorm:"not null;index" json:"start_time"`
	EndTime      *time.Time `json:"end_time"`
	IdleMinutes  int        `gorm:"default:0" json:"idle_minutes"`
	MessageCount int        `gorm:"default:0" json:"message_count"`
	Active       bool       `gorm:"not null;default:false" json:"active"`
	ActiveKey    *string    `gorm:"uniqueIndex;size:64" json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (ActivitySession) TableName() string {
	return "activity_sessions"
}

// ActiveKeyFor builds the uniqueness key for an open session.
func ActiveKeyFor(userID, workspaceID uint64) string {
	return fmt.Sprintf("%d:%d", userID, workspaceID)
}

// Minutes returns the closed session's length in whole minutes, fractional
// seconds truncated. Zero for open sessions.
func (s *ActivitySession) Minutes() int64 {
	if s.EndTime == nil {
		return 0
	}
	return int64(s.EndTime.Sub(s.StartTime) / time.Minute)
}
