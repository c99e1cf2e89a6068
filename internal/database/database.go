package database

import (
	"log"
	"time"

	"rostra/config"
	"rostra/internal/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error), // Only log errors, not every SQL query
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

// AutoMigrate runs Gorm auto-migration for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Workspace{},
		&models.Role{},
		&models.User{},
		&models.ScheduleTemplate{},
		&models.Slot{},
		&models.StatusRule{},
		&models.Occurrence{},
		&models.SlotAssignment{},
		&models.ActivitySession{},
		&models.Quota{},
	)
}

// SeedAdmin creates a default workspace with an admin role and account when
// the database is empty, so a fresh install is usable immediately.
func SeedAdmin(db *gorm.DB, cfg *config.AdminConfig) {
	var count int64
	db.Model(&models.Workspace{}).Count(&count)
	if count > 0 {
		return
	}
	ws := &models.Workspace{
		ID:             1,
		Name:           "Default Workspace",
		APIKey:         uuid.NewString(),
		TimeframeStart: time.Now().UTC(),
	}
	if err := db.Create(ws).Error; err != nil {
		log.Printf("[SEED] workspace: %v", err)
		return
	}
	role := &models.Role{
		ID:          uuid.NewString(),
		WorkspaceID: ws.ID,
		Name:        "Admin",
		IsAdmin:     true,
	}
	if err := db.Create(role).Error; err != nil {
		log.Printf("[SEED] role: %v", err)
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("[SEED] hash: %v", err)
		return
	}
	admin := &models.User{
		ID:           1,
		WorkspaceID:  ws.ID,
		Username:     cfg.Username,
		RoleID:       &role.ID,
		PasswordHash: string(hash),
	}
	if err := db.Create(admin).Error; err != nil {
		log.Printf("[SEED] admin: %v", err)
		return
	}
	log.Printf("[SEED] created default workspace (api key %s)", ws.APIKey)
}
