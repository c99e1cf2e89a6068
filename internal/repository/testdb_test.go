package repository

import (
	"testing"
	"time"

	"rostra/internal/database"
	"rostra/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an in-memory database with the full schema. The pool is
// capped at one connection so goroutine tests exercise the conditional
// writes without tripping sqlite's single-writer lock.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func createWorkspace(t *testing.T, db *gorm.DB, id uint64) *models.Workspace {
	t.Helper()
	ws := &models.Workspace{
		ID:             id,
		Name:           "Test Workspace",
		APIKey:         uuid.NewString(),
		TimeframeStart: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := db.Create(ws).Error; err != nil {
		t.Fatalf("create workspace: %v", err)
	}
	return ws
}

// createTemplate builds a Monday 18:00 UTC template with one two-seat slot
// and Late/Very Late status rules.
func createTemplate(t *testing.T, db *gorm.DB, workspaceID uint64) *models.ScheduleTemplate {
	t.Helper()
	tpl := &models.ScheduleTemplate{
		ID:          uuid.NewString(),
		WorkspaceID: workspaceID,
		Name:        "Training",
		Days:        1 << time.Monday,
		Hour:        18,
		Minute:      0,
		Slots: []models.Slot{
			{ID: uuid.NewString(), Label: "Co-Host", Capacity: 2, Position: 0},
		},
		StatusRules: []models.StatusRule{
			{ID: uuid.NewString(), Label: "Late", MinutesAfterStart: 15, Position: 0},
			{ID: uuid.NewString(), Label: "Very Late", MinutesAfterStart: 60, Position: 1},
		},
	}
	for i := range tpl.Slots {
		tpl.Slots[i].TemplateID = tpl.ID
	}
	for i := range tpl.StatusRules {
		tpl.StatusRules[i].TemplateID = tpl.ID
	}
	if err := NewTemplateRepository(db).Create(tpl); err != nil {
		t.Fatalf("create template: %v", err)
	}
	return tpl
}
