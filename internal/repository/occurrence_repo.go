package repository

import (
	"errors"
	"time"

	"rostra/internal/apperr"
	"rostra/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OccurrenceRepository materializes dated occurrences from templates and
// arbitrates host/slot claims. Every write here is a conditional write: the
// unique indexes and WHERE clauses decide who wins a race, never a prior
// in-process read. The service runs as multiple replicas, so in-memory
// locking is not an option.
type OccurrenceRepository struct {
	db *gorm.DB
}

func NewOccurrenceRepository(db *gorm.DB) *OccurrenceRepository {
	return &OccurrenceRepository{db: db}
}

// NormalizeDate truncates a timestamp to its UTC calendar day.
func NormalizeDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Resolve finds or lazily creates the occurrence for (template, date).
// Concurrent resolves converge on one row: the insert either wins or hits
// idx_occurrence_key, in which case the winner's row is returned.
func (r *OccurrenceRepository) Resolve(t *models.ScheduleTemplate, date time.Time) (*models.Occurrence, error) {
	day := NormalizeDate(date)
	occ, err := r.getByKey(t.ID, day)
	if err == nil {
		return occ, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	fresh := &models.Occurrence{
		ID:          uuid.NewString(),
		TemplateID:  t.ID,
		WorkspaceID: t.WorkspaceID,
		Date:        day,
		StartAt:     t.StartOn(day),
	}
	if err := r.db.Create(fresh).Error; err != nil {
		// Lost the creation race; the row now exists.
		if existing, lookupErr := r.getByKey(t.ID, day); lookupErr == nil {
			return existing, nil
		}
		return nil, err
	}
	return fresh, nil
}

func (r *OccurrenceRepository) getByKey(templateID string, day time.Time) (*models.Occurrence, error) {
	var occ models.Occurrence
	err := r.db.Preload("Owner").Preload("Assignments").Preload("Assignments.User").
		Where("template_id = ? AND date = ?", templateID, day).
		First(&occ).Error
	if err != nil {
		return nil, err
	}
	return &occ, nil
}

func (r *OccurrenceRepository) GetByID(id string) (*models.Occurrence, error) {
	var occ models.Occurrence
	err := r.db.Preload("Owner").Preload("Assignments").Preload("Assignments.User").
		First(&occ, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &occ, nil
}

// ClaimHost sets the owner if the occurrence is unclaimed and has not
// started. Re-claiming by the current owner is a no-op success so client
// timeout retries stay safe.
func (r *OccurrenceRepository) ClaimHost(occurrenceID string, userID uint64, now time.Time) error {
	res := r.db.Model(&models.Occurrence{}).
		Where("id = ? AND owner_id IS NULL AND start_at > ?", occurrenceID, now).
		Update("owner_id", userID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}
	occ, err := r.GetByID(occurrenceID)
	if err != nil {
		return err
	}
	if occ.OwnerID != nil {
		if *occ.OwnerID == userID {
			return nil
		}
		return apperr.ErrAlreadyClaimed
	}
	return apperr.ErrSessionStarted
}

func (r *OccurrenceRepository) UnclaimHost(occurrenceID string, userID uint64) error {
	res := r.db.Model(&models.Occurrence{}).
		Where("id = ? AND owner_id = ?", occurrenceID, userID).
		Update("owner_id", nil)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetByID(occurrenceID); err != nil {
			return err
		}
		return apperr.ErrNotOwner
	}
	return nil
}

// ClaimSlot inserts an assignment at (occurrence, slot, index). The two
// unique indexes arbitrate both the seat and the one-assignment-per-user
// rule; insert failures are classified after the fact.
func (r *OccurrenceRepository) ClaimSlot(occ *models.Occurrence, slot *models.Slot, slotIndex int, userID uint64, now time.Time) error {
	if slotIndex < 0 || slotIndex >= slot.Capacity {
		return apperr.ErrSlotOutOfRange
	}
	if occ.Started(now) {
		return apperr.ErrSessionStarted
	}
	assignment := &models.SlotAssignment{
		OccurrenceID: occ.ID,
		SlotID:       slot.ID,
		SlotIndex:    slotIndex,
		UserID:       userID,
	}
	createErr := r.db.Create(assignment).Error
	if createErr == nil {
		return nil
	}
	var existing models.SlotAssignment
	if err := r.db.
		Where("occurrence_id = ? AND slot_id = ? AND slot_index = ?", occ.ID, slot.ID, slotIndex).
		First(&existing).Error; err == nil {
		if existing.UserID == userID {
			return nil
		}
		return apperr.ErrSlotTaken
	}
	if err := r.db.
		Where("occurrence_id = ? AND user_id = ?", occ.ID, userID).
		First(&existing).Error; err == nil {
		return apperr.ErrAlreadyAssigned
	}
	return createErr
}

func (r *OccurrenceRepository) UnclaimSlot(occurrenceID, slotID string, slotIndex int, userID uint64) error {
	res := r.db.
		Where("occurrence_id = ? AND slot_id = ? AND slot_index = ? AND user_id = ?",
			occurrenceID, slotID, slotIndex, userID).
		Delete(&models.SlotAssignment{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotAssignee
	}
	return nil
}

// End closes a started occurrence. Only one caller can end it; the rest see
// the already-ended conflict.
func (r *OccurrenceRepository) End(occurrenceID string, now time.Time) error {
	res := r.db.Model(&models.Occurrence{}).
		Where("id = ? AND ended_at IS NULL", occurrenceID).
		Update("ended_at", now)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetByID(occurrenceID); err != nil {
			return err
		}
		return apperr.ErrSessionEnded
	}
	return nil
}

// ListOngoing returns started, not yet ended occurrences for a workspace.
func (r *OccurrenceRepository) ListOngoing(workspaceID uint64, now time.Time) ([]models.Occurrence, error) {
	var list []models.Occurrence
	err := r.db.Preload("Owner").Preload("Template").
		Preload("Template.StatusRules", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Where("workspace_id = ? AND start_at <= ? AND ended_at IS NULL AND owner_id IS NOT NULL", workspaceID, now).
		Order("start_at").
		Find(&list).Error
	return list, err
}

// CountHostedInRange counts ended occurrences the user hosted in [from, to).
func (r *OccurrenceRepository) CountHostedInRange(workspaceID, userID uint64, from, to time.Time) (int64, error) {
	var n int64
	err := r.db.Model(&models.Occurrence{}).
		Where("workspace_id = ? AND owner_id = ? AND ended_at IS NOT NULL AND ended_at >= ? AND ended_at < ?",
			workspaceID, userID, from, to).
		Count(&n).Error
	return n, err
}

// CountAttendedInRange counts slot assignments the user held on occurrences
// that ended in [from, to).
func (r *OccurrenceRepository) CountAttendedInRange(workspaceID, userID uint64, from, to time.Time) (int64, error) {
	var n int64
	err := r.db.Model(&models.SlotAssignment{}).
		Joins("JOIN occurrences ON occurrences.id = slot_assignments.occurrence_id").
		Where("occurrences.workspace_id = ? AND slot_assignments.user_id = ? AND occurrences.ended_at IS NOT NULL AND occurrences.ended_at >= ? AND occurrences.ended_at < ?",
			workspaceID, userID, from, to).
		Count(&n).Error
	return n, err
}
