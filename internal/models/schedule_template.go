package models

import (
	"time"

	"gorm.io/gorm"
)

// ScheduleTemplate is a recurring session definition: which weekdays it runs
// on, at what UTC time, its slot layout and its status threshold table.
// Slots and status rules are explicit child rows validated when the template
// is written, never free-form JSON re-parsed per read.
type ScheduleTemplate struct {
	ID          string `gorm:"primaryKey;size:36" json:"id"`
	WorkspaceID uint64 `gorm:"not null;index" json:"workspace_id"`
	Name        string `gorm:"size:255;not null" json:"name"`
	// Days is a weekday bitmask, bit n set = runs on weekday n (0=Sunday).
	Days   int `gorm:"not null" json:"days"`
	Hour   int `gorm:"not null" json:"hour"`   // UTC
	Minute int `gorm:"not null" json:"minute"` // UTC

	AllowUnscheduled bool `gorm:"default:false" json:"allow_unscheduled"`

	WebhookEnabled bool   `gorm:"default:false" json:"webhook_enabled"`
	WebhookURL     string `gorm:"size:512" json:"webhook_url"`
	WebhookTitle   string `gorm:"size:255" json:"webhook_title"`
	WebhookBody    string `gorm:"size:1024" json:"webhook_body"`
	WebhookPing    string `gorm:"size:64" json:"webhook_ping"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Slots       []Slot       `gorm:"foreignKey:TemplateID" json:"slots"`
	StatusRules []StatusRule `gorm:"foreignKey:TemplateID" json:"status_rules"`
	HostRoles   []Role       `gorm:"many2many:template_host_roles" json:"host_roles"`
}

func (ScheduleTemplate) TableName() string {
	return "schedule_templates"
}

// OnDay reports whether the template runs on the given weekday.
func (t *ScheduleTemplate) OnDay(d time.Weekday) bool {
	return t.Days&(1<<int(d)) != 0
}

// StartOn derives the occurrence start timestamp for a calendar day.
func (t *ScheduleTemplate) StartOn(day time.Time) time.Time {
	day = day.UTC()
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour, t.Minute, 0, 0, time.UTC)
}

// Slot is one claimable role on an occurrence ("Co-Host", "Trainer", ...)
// with Capacity parallel seats, indexed 0..Capacity-1.
type Slot struct {
	ID         string `gorm:"primaryKey;size:36" json:"id"`
	TemplateID string `gorm:"size:36;not null;index" json:"template_id"`
	Label      string `gorm:"size:64;not null" json:"label"`
	Capacity   int    `gorm:"not null" json:"capacity"`
	Position   int    `gorm:"not null" json:"position"`
}

func (Slot) TableName() string {
	return "slots"
}

// StatusRule labels an occurrence once a number of minutes has elapsed
// after its start ("Late" after 15, "Very Late" after 60, ...).
type StatusRule struct {
	ID                string `gorm:"primaryKey;size:36" json:"id"`
	TemplateID        string `gorm:"size:36;not null;index" json:"template_id"`
	Label             string `gorm:"size:64;not null" json:"label"`
	MinutesAfterStart int    `gorm:"not null" json:"minutes_after_start"`
	Position          int    `gorm:"not null" json:"position"`
}

func (StatusRule) TableName() string {
	return "status_rules"
}
