package service

import (
	"testing"
	"time"

	"rostra/internal/database"
	"rostra/internal/domain"
	"rostra/internal/models"
	"rostra/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newQuotaTestDB(t *testing.T) *gorm.DB {
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

type quotaFixture struct {
	db      *gorm.DB
	ws      *models.Workspace
	role    *models.Role
	svc     *QuotaService
	quotas  *repository.QuotaRepository
	occRepo *repository.OccurrenceRepository
	actRepo *repository.ActivityRepository
}

func newQuotaFixture(t *testing.T) *quotaFixture {
	t.Helper()
	db := newQuotaTestDB(t)
	ws := &models.Workspace{
		ID:             1,
		Name:           "Test Workspace",
		APIKey:         uuid.NewString(),
		TimeframeStart: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := db.Create(ws).Error; err != nil {
		t.Fatalf("create workspace: %v", err)
	}
	role := &models.Role{ID: uuid.NewString(), WorkspaceID: ws.ID, Name: "Staff"}
	if err := db.Create(role).Error; err != nil {
		t.Fatalf("create role: %v", err)
	}
	actRepo := repository.NewActivityRepository(db)
	occRepo := repository.NewOccurrenceRepository(db)
	quotas := repository.NewQuotaRepository(db)
	return &quotaFixture{
		db:      db,
		ws:      ws,
		role:    role,
		svc:     NewQuotaService(actRepo, occRepo, quotas),
		quotas:  quotas,
		occRepo: occRepo,
		actRepo: actRepo,
	}
}

func (f *quotaFixture) addQuota(t *testing.T, name, metric string, target int) *models.Quota {
	t.Helper()
	q := &models.Quota{
		ID:          uuid.NewString(),
		WorkspaceID: f.ws.ID,
		Name:        name,
		Metric:      metric,
		Target:      target,
		Roles:       []models.Role{*f.role},
	}
	if err := f.quotas.Create(q); err != nil {
		t.Fatalf("create quota: %v", err)
	}
	return q
}

func TestEvaluateMinutesQuota(t *testing.T) {
	f := newQuotaFixture(t)
	q := f.addQuota(t, "Weekly Minutes", domain.MetricMinutes, 600)

	// Two closed sessions totalling 150 minutes.
	base := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	for _, span := range []time.Duration{100 * time.Minute, 50 * time.Minute} {
		if _, err := f.actRepo.Start(7, f.ws.ID, nil, base); err != nil {
			t.Fatalf("start: %v", err)
		}
		if err := f.actRepo.End(7, f.ws.ID, 0, 0, base.Add(span)); err != nil {
			t.Fatalf("end: %v", err)
		}
		base = base.Add(span + time.Hour)
	}

	p, err := f.svc.Evaluate(f.ws.ID, 7, q, f.ws.TimeframeStart, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if p.Achieved != 150 {
		t.Fatalf("achieved = %d, want 150", p.Achieved)
	}
	if p.Percent != 25 {
		t.Fatalf("percent = %d, want 25", p.Percent)
	}
}

func TestEvaluateHostedQuota(t *testing.T) {
	f := newQuotaFixture(t)
	q := f.addQuota(t, "Hosting", domain.MetricSessionsHosted, 2)

	tpl := &models.ScheduleTemplate{
		ID:          uuid.NewString(),
		WorkspaceID: f.ws.ID,
		Name:        "Training",
		Days:        1 << time.Monday,
		Hour:        18,
	}
	if err := f.db.Create(tpl).Error; err != nil {
		t.Fatalf("create template: %v", err)
	}
	monday := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	occ, err := f.occRepo.Resolve(tpl, monday)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if err := f.occRepo.ClaimHost(occ.ID, 7, occ.StartAt.Add(-time.Hour)); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := f.occRepo.End(occ.ID, occ.StartAt.Add(time.Hour)); err != nil {
		t.Fatalf("end: %v", err)
	}

	p, err := f.svc.Evaluate(f.ws.ID, 7, q, f.ws.TimeframeStart, monday.AddDate(0, 1, 0))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if p.Achieved != 1 || p.Percent != 50 {
		t.Fatalf("achieved = %d percent = %d, want 1 and 50", p.Achieved, p.Percent)
	}
}

func TestEvaluatePercentCap(t *testing.T) {
	f := newQuotaFixture(t)
	q := f.addQuota(t, "Minutes", domain.MetricMinutes, 30)

	start := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	if _, err := f.actRepo.Start(7, f.ws.ID, nil, start); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := f.actRepo.End(7, f.ws.ID, 0, 0, start.Add(5*time.Hour)); err != nil {
		t.Fatalf("end: %v", err)
	}

	p, err := f.svc.Evaluate(f.ws.ID, 7, q, f.ws.TimeframeStart, start.AddDate(0, 1, 0))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if p.Achieved != 300 {
		t.Fatalf("achieved = %d, want 300", p.Achieved)
	}
	if p.Percent != 100 {
		t.Fatalf("percent = %d, want capped at 100", p.Percent)
	}
}

func TestEvaluateUserScoresRoleQuotas(t *testing.T) {
	f := newQuotaFixture(t)
	f.addQuota(t, "Minutes", domain.MetricMinutes, 600)
	f.addQuota(t, "Hosting", domain.MetricSessionsHosted, 2)

	// A quota for another role stays out of the user's report.
	other := &models.Role{ID: uuid.NewString(), WorkspaceID: f.ws.ID, Name: "Leads"}
	if err := f.db.Create(other).Error; err != nil {
		t.Fatalf("create role: %v", err)
	}
	q := &models.Quota{
		ID:          uuid.NewString(),
		WorkspaceID: f.ws.ID,
		Name:        "Lead Hosting",
		Metric:      domain.MetricSessionsHosted,
		Target:      5,
		Roles:       []models.Role{*other},
	}
	if err := f.quotas.Create(q); err != nil {
		t.Fatalf("create quota: %v", err)
	}

	progress, err := f.svc.EvaluateUser(f.ws.ID, 7, f.role.ID, f.ws.TimeframeStart, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("evaluate user: %v", err)
	}
	if len(progress) != 2 {
		t.Fatalf("scored %d quotas, want 2", len(progress))
	}
	for _, p := range progress {
		if p.Achieved != 0 || p.Percent != 0 {
			t.Fatalf("fresh timeframe should score zero: %+v", p)
		}
	}
}

func TestTimeframeResetExcludesOldActivity(t *testing.T) {
	f := newQuotaFixture(t)
	q := f.addQuota(t, "Minutes", domain.MetricMinutes, 60)
	wsRepo := repository.NewWorkspaceRepository(f.db)

	start := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	if _, err := f.actRepo.Start(7, f.ws.ID, nil, start); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := f.actRepo.End(7, f.ws.ID, 0, 0, start.Add(90*time.Minute)); err != nil {
		t.Fatalf("end: %v", err)
	}

	resetAt := start.Add(24 * time.Hour)
	if err := wsRepo.AdvanceTimeframe(f.ws.ID, resetAt); err != nil {
		t.Fatalf("advance timeframe: %v", err)
	}
	ws, err := wsRepo.GetByID(f.ws.ID)
	if err != nil {
		t.Fatalf("get workspace: %v", err)
	}
	if !ws.TimeframeStart.Equal(resetAt) {
		t.Fatalf("timeframe start = %v, want %v", ws.TimeframeStart, resetAt)
	}

	p, err := f.svc.Evaluate(ws.ID, 7, q, ws.TimeframeStart, resetAt.AddDate(0, 1, 0))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if p.Achieved != 0 {
		t.Fatalf("achieved = %d, want 0 after reset", p.Achieved)
	}
	// The history itself survives the reset.
	var count int64
	f.db.Model(&models.ActivitySession{}).Count(&count)
	if count != 1 {
		t.Fatalf("activity rows = %d, want 1", count)
	}
}
