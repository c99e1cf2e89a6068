package models

import (
	"time"
)

// Occurrence is one dated instance of a schedule template. The natural key
// is (template_id, date); the unique index makes lazy creation race-safe
// and is the arbiter for concurrent resolves.
type Occurrence struct {
	ID         string `gorm:"primaryKey;size:36" json:"id"`
	TemplateID string `gorm:"size:36;not null;index:idx_occurrence_key,unique" json:"template_id"`
	// WorkspaceID is denormalized from the template so ongoing and quota
	// queries stay single-join.
	WorkspaceID uint64 `gorm:"not null;index" json:"workspace_id"`
	// Date is the UTC calendar day, normalized to midnight.
	Date      time.Time  `gorm:"not null;index:idx_occurrence_key,unique" json:"date"`
	StartAt   time.Time  `gorm:"not null;index" json:"start_at"`
	OwnerID   *uint64    `gorm:"index" json:"owner_id"` // host claim, null while unclaimed
	EndedAt   *time.Time `json:"ended_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	Template    ScheduleTemplate `gorm:"foreignKey:TemplateID" json:"-"`
	Owner       *User            `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Assignments []SlotAssignment `gorm:"foreignKey:OccurrenceID" json:"assignments"`
}

func (Occurrence) TableName() string {
	return "occurrences"
}

func (o *Occurrence) Started(now time.Time) bool {
	return !o.StartAt.After(now)
}

// SlotAssignment binds a user to one seat of a slot on an occurrence.
// idx_assignment_seat guards the seat, idx_assignment_user guards the
// one-assignment-per-user-per-occurrence rule; both races resolve at the
// database, never in application code.
type SlotAssignment struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	OccurrenceID string    `gorm:"size:36;not null;index:idx_assignment_seat,unique;index:idx_assignment_user,unique" json:"occurrence_id"`
	SlotID       string    `gorm:"size:36;not null;index:idx_assignment_seat,unique" json:"slot_id"`
	SlotIndex    int       `gorm:"not null;index:idx_assignment_seat,unique" json:"slot_index"`
	UserID       uint64    `gorm:"not null;index:idx_assignment_user,unique" json:"user_id"`
	CreatedAt    time.Time `json:"created_at"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (SlotAssignment) TableName() string {
	return "slot_assignments"
}
