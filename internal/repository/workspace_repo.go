package repository

import (
	"time"

	"rostra/internal/models"

	"gorm.io/gorm"
)

type WorkspaceRepository struct {
	db *gorm.DB
}

func NewWorkspaceRepository(db *gorm.DB) *WorkspaceRepository {
	return &WorkspaceRepository{db: db}
}

func (r *WorkspaceRepository) GetByID(id uint64) (*models.Workspace, error) {
	var ws models.Workspace
	err := r.db.First(&ws, id).Error
	if err != nil {
		return nil, err
	}
	return &ws, nil
}

// GetByAPIKey authenticates an activity heartbeat's Authorization header.
func (r *WorkspaceRepository) GetByAPIKey(key string) (*models.Workspace, error) {
	var ws models.Workspace
	err := r.db.Where("api_key = ?", key).First(&ws).Error
	if err != nil {
		return nil, err
	}
	return &ws, nil
}

// AdvanceTimeframe moves the quota window start to now. Historical activity
// rows stay untouched; only the aggregation window moves.
func (r *WorkspaceRepository) AdvanceTimeframe(id uint64, now time.Time) error {
	return r.db.Model(&models.Workspace{}).Where("id = ?", id).
		Update("timeframe_start", now.UTC()).Error
}

func (r *WorkspaceRepository) GetRole(roleID string) (*models.Role, error) {
	var role models.Role
	err := r.db.Where("id = ?", roleID).First(&role).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *WorkspaceRepository) ListRoles(workspaceID uint64) ([]models.Role, error) {
	var roles []models.Role
	err := r.db.Where("workspace_id = ?", workspaceID).Order("name").Find(&roles).Error
	return roles, err
}
