package repository

import (
	"errors"

	"rostra/internal/apperr"
	"rostra/internal/domain"
	"rostra/internal/models"

	"gorm.io/gorm"
)

type QuotaRepository struct {
	db *gorm.DB
}

func NewQuotaRepository(db *gorm.DB) *QuotaRepository {
	return &QuotaRepository{db: db}
}

func (r *QuotaRepository) Create(q *models.Quota) error {
	switch q.Metric {
	case domain.MetricMinutes, domain.MetricSessionsHosted, domain.MetricSessionsAttended:
	default:
		return apperr.New(apperr.KindValidation, "INVALID_QUOTA", "unknown quota metric")
	}
	if q.Name == "" {
		return apperr.New(apperr.KindValidation, "INVALID_QUOTA", "quota name is required")
	}
	if q.Target < 1 {
		return apperr.New(apperr.KindValidation, "INVALID_QUOTA", "quota target must be >= 1")
	}
	return r.db.Create(q).Error
}

func (r *QuotaRepository) GetByID(id string) (*models.Quota, error) {
	var q models.Quota
	err := r.db.Preload("Roles").First(&q, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *QuotaRepository) ListByWorkspace(workspaceID uint64) ([]models.Quota, error) {
	var list []models.Quota
	err := r.db.Preload("Roles").
		Where("workspace_id = ?", workspaceID).
		Order("created_at").
		Find(&list).Error
	return list, err
}

// ListForRole returns the quotas whose role set contains roleID.
func (r *QuotaRepository) ListForRole(workspaceID uint64, roleID string) ([]models.Quota, error) {
	var list []models.Quota
	err := r.db.Preload("Roles").
		Joins("JOIN quota_roles ON quota_roles.quota_id = quotas.id AND quota_roles.role_id = ?", roleID).
		Where("quotas.workspace_id = ?", workspaceID).
		Order("quotas.created_at").
		Find(&list).Error
	return list, err
}

func (r *QuotaRepository) Delete(id string) error {
	res := r.db.Delete(&models.Quota{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
