package repository

import (
	"errors"
	"time"

	"rostra/internal/apperr"
	"rostra/internal/domain"
	"rostra/internal/models"

	"gorm.io/gorm"
)

type TemplateRepository struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// Create validates and persists a template with its slots, status rules and
// host roles in one transaction. Slot and status configuration is checked
// here, at write time, so reads never deal with malformed layouts.
func (r *TemplateRepository) Create(t *models.ScheduleTemplate) error {
	if err := validateTemplate(t); err != nil {
		return err
	}
	return r.db.Create(t).Error
}

func validateTemplate(t *models.ScheduleTemplate) error {
	if t.Name == "" {
		return apperr.New(apperr.KindValidation, "INVALID_TEMPLATE", "template name is required")
	}
	if t.Days == 0 || t.Days>>(domain.WeekdayMax+1) != 0 {
		return apperr.New(apperr.KindValidation, "INVALID_TEMPLATE", "weekday set must contain days 0-6")
	}
	if t.Hour < 0 || t.Hour > 23 || t.Minute < 0 || t.Minute > 59 {
		return apperr.New(apperr.KindValidation, "INVALID_TEMPLATE", "time of day out of range")
	}
	for _, s := range t.Slots {
		if s.Label == "" || s.Capacity < 1 {
			return apperr.New(apperr.KindValidation, "INVALID_TEMPLATE", "slot needs a label and capacity >= 1")
		}
	}
	for _, sr := range t.StatusRules {
		if sr.Label == "" || sr.MinutesAfterStart < 0 {
			return apperr.New(apperr.KindValidation, "INVALID_TEMPLATE", "status rule needs a label and non-negative threshold")
		}
	}
	return nil
}

func (r *TemplateRepository) GetByID(id string) (*models.ScheduleTemplate, error) {
	var t models.ScheduleTemplate
	err := r.db.
		Preload("Slots", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("StatusRules", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("HostRoles").
		First(&t, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TemplateRepository) ListByWorkspace(workspaceID uint64) ([]models.ScheduleTemplate, error) {
	var list []models.ScheduleTemplate
	err := r.db.
		Preload("Slots", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("StatusRules", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("HostRoles").
		Where("workspace_id = ?", workspaceID).
		Order("created_at").
		Find(&list).Error
	return list, err
}

// Delete soft-deletes the template and removes its future unclaimed
// occurrences. Past occurrences stay for history (hosted-session counts).
func (r *TemplateRepository) Delete(id string, now time.Time) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.ScheduleTemplate{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.ErrNotFound
		}
		return tx.
			Where("template_id = ? AND start_at > ? AND owner_id IS NULL", id, now).
			Delete(&models.Occurrence{}).Error
	})
}
