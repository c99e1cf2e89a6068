package repository

import (
	"rostra/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(id uint64) (*models.User, error) {
	var u models.User
	err := r.db.Preload("Role").First(&u, id).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByUsername(workspaceID uint64, username string) (*models.User, error) {
	var u models.User
	err := r.db.Preload("Role").
		Where("workspace_id = ? AND username = ?", workspaceID, username).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Upsert refreshes the identity cache row for an external user id,
// creating it on first sight. Username and picture are overwritten; role
// and password are left alone for existing rows.
func (r *UserRepository) Upsert(u *models.User) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "picture", "updated_at"}),
	}).Create(u).Error
}

func (r *UserRepository) ListByRoleIDs(roleIDs []string) ([]models.User, error) {
	var users []models.User
	err := r.db.Where("role_id IN ?", roleIDs).Find(&users).Error
	return users, err
}
