package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"rostra/config"
	"rostra/internal/auth"
	"rostra/internal/database"
	"rostra/internal/middleware"
	"rostra/internal/models"
	"rostra/internal/repository"
	"rostra/internal/service"
	"rostra/internal/ws"
	"rostra/pkg/discord"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type sessionFixture struct {
	db          *gorm.DB
	ws          *models.Workspace
	hostRole    *models.Role
	managerRole *models.Role
	tpl         *models.ScheduleTemplate
	jwtCfg      *config.JWTConfig
	router      *gin.Engine
	webhookHits *atomic.Int64
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

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

	f := &sessionFixture{db: db, webhookHits: &atomic.Int64{}}

	f.ws = &models.Workspace{
		ID:             1,
		Name:           "Test Workspace",
		APIKey:         uuid.NewString(),
		TimeframeStart: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := db.Create(f.ws).Error; err != nil {
		t.Fatalf("create workspace: %v", err)
	}
	f.hostRole = &models.Role{ID: uuid.NewString(), WorkspaceID: 1, Name: "Trainer"}
	f.managerRole = &models.Role{ID: uuid.NewString(), WorkspaceID: 1, Name: "Manager", Permissions: "manage_sessions"}
	for _, r := range []*models.Role{f.hostRole, f.managerRole} {
		if err := db.Create(r).Error; err != nil {
			t.Fatalf("create role: %v", err)
		}
	}

	webhookSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.webhookHits.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(webhookSrv.Close)

	f.tpl = &models.ScheduleTemplate{
		ID:             uuid.NewString(),
		WorkspaceID:    1,
		Name:           "Training",
		Days:           1 << time.Monday,
		Hour:           18,
		WebhookEnabled: true,
		WebhookURL:     webhookSrv.URL,
		WebhookTitle:   "{session} claimed",
		WebhookBody:    "{host} is hosting",
		Slots: []models.Slot{
			{ID: uuid.NewString(), Label: "Co-Host", Capacity: 2, Position: 0},
		},
		HostRoles: []models.Role{*f.hostRole},
	}
	for i := range f.tpl.Slots {
		f.tpl.Slots[i].TemplateID = f.tpl.ID
	}
	if err := repository.NewTemplateRepository(db).Create(f.tpl); err != nil {
		t.Fatalf("create template: %v", err)
	}

	f.jwtCfg = &config.JWTConfig{
		AccessSecret:  "test-secret",
		RefreshSecret: "test-refresh",
		AccessExpiry:  time.Hour,
		RefreshExpiry: time.Hour,
		Issuer:        "rostra-test",
	}

	templateRepo := repository.NewTemplateRepository(db)
	occurrenceRepo := repository.NewOccurrenceRepository(db)
	workspaceRepo := repository.NewWorkspaceRepository(db)
	userRepo := repository.NewUserRepository(db)
	notifier := service.NewSessionNotifier(discord.NewWebhook())
	h := NewSessionHandler(templateRepo, occurrenceRepo, workspaceRepo, userRepo, notifier, ws.NewBoardHub())

	r := gin.New()
	authMw := middleware.AuthRequired(f.jwtCfg)
	sessions := r.Group("/api/v1/sessions", authMw)
	sessions.GET("/schedule", h.Schedule)
	sessions.GET("/ongoing", h.Ongoing)
	sessions.POST("/:templateId/claim", h.ClaimHost)
	sessions.POST("/:templateId/unclaim", h.UnclaimHost)
	sessions.POST("/:templateId/claimSlot", h.ClaimSlot)
	sessions.POST("/:templateId/unclaimSlot", h.UnclaimSlot)
	sessions.POST("/occurrences/:id/end", h.End)
	f.router = r
	return f
}

func (f *sessionFixture) token(t *testing.T, userID uint64, roleID string) string {
	t.Helper()
	tok, err := auth.GenerateAccessToken(f.jwtCfg, userID, f.ws.ID, "tester", roleID)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return tok
}

func (f *sessionFixture) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

// Claims are only valid before an occurrence starts, so tests target an
// upcoming Monday, at least a week out.
func nextMonday() time.Time {
	day := time.Now().UTC().AddDate(0, 0, 7)
	for day.Weekday() != time.Monday {
		day = day.AddDate(0, 0, 1)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), 12, 0, 0, 0, time.UTC)
}

func TestClaimHostEndpoint(t *testing.T) {
	f := newSessionFixture(t)
	hostTok := f.token(t, 5, f.hostRole.ID)

	w := f.do(t, http.MethodPost, "/api/v1/sessions/"+f.tpl.ID+"/claim", hostTok, gin.H{"date": nextMonday().UnixMilli()})
	if w.Code != http.StatusOK {
		t.Fatalf("claim status = %d body %s", w.Code, w.Body.String())
	}
	var resp struct {
		Session struct {
			ID      string  `json:"id"`
			OwnerID *uint64 `json:"owner_id"`
			Status  string  `json:"status"`
		} `json:"session"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Session.OwnerID == nil || *resp.Session.OwnerID != 5 {
		t.Fatalf("owner = %v, want 5", resp.Session.OwnerID)
	}
	if resp.Session.Status != "Open" {
		t.Fatalf("status = %q, want Open", resp.Session.Status)
	}
	if f.webhookHits.Load() != 1 {
		t.Fatalf("webhook hits = %d, want 1", f.webhookHits.Load())
	}

	// A competing claim conflicts with a stable code.
	other := f.token(t, 6, f.hostRole.ID)
	w = f.do(t, http.MethodPost, "/api/v1/sessions/"+f.tpl.ID+"/claim", other, gin.H{"date": nextMonday().UnixMilli()})
	if w.Code != http.StatusConflict {
		t.Fatalf("competing claim status = %d, want 409", w.Code)
	}
	var errResp struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if errResp.Code != "ALREADY_CLAIMED" {
		t.Fatalf("code = %q, want ALREADY_CLAIMED", errResp.Code)
	}
}

func TestClaimHostEligibility(t *testing.T) {
	f := newSessionFixture(t)

	// No role at all.
	w := f.do(t, http.MethodPost, "/api/v1/sessions/"+f.tpl.ID+"/claim", f.token(t, 5, ""), gin.H{"date": nextMonday().UnixMilli()})
	if w.Code != http.StatusForbidden {
		t.Fatalf("roleless claim status = %d, want 403", w.Code)
	}
	// manage_sessions overrides the template's host role list.
	w = f.do(t, http.MethodPost, "/api/v1/sessions/"+f.tpl.ID+"/claim", f.token(t, 5, f.managerRole.ID), gin.H{"date": nextMonday().UnixMilli()})
	if w.Code != http.StatusOK {
		t.Fatalf("manager claim status = %d body %s", w.Code, w.Body.String())
	}
}

func TestClaimOffScheduleDay(t *testing.T) {
	f := newSessionFixture(t)
	tuesday := nextMonday().AddDate(0, 0, 1).UnixMilli()
	w := f.do(t, http.MethodPost, "/api/v1/sessions/"+f.tpl.ID+"/claim", f.token(t, 5, f.hostRole.ID), gin.H{"date": tuesday})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestSlotClaimEndpoint(t *testing.T) {
	f := newSessionFixture(t)
	tok := f.token(t, 5, f.hostRole.ID)
	slotID := f.tpl.Slots[0].ID

	// slotNum 0 must bind; the field is a pointer for exactly this case.
	w := f.do(t, http.MethodPost, "/api/v1/sessions/"+f.tpl.ID+"/claimSlot", tok,
		gin.H{"date": nextMonday().UnixMilli(), "slotId": slotID, "slotNum": 0})
	if w.Code != http.StatusOK {
		t.Fatalf("claim slot status = %d body %s", w.Code, w.Body.String())
	}

	other := f.token(t, 6, f.hostRole.ID)
	w = f.do(t, http.MethodPost, "/api/v1/sessions/"+f.tpl.ID+"/claimSlot", other,
		gin.H{"date": nextMonday().UnixMilli(), "slotId": slotID, "slotNum": 0})
	if w.Code != http.StatusConflict {
		t.Fatalf("occupied seat status = %d, want 409", w.Code)
	}

	w = f.do(t, http.MethodPost, "/api/v1/sessions/"+f.tpl.ID+"/unclaimSlot", tok,
		gin.H{"date": nextMonday().UnixMilli(), "slotId": slotID, "slotNum": 0})
	if w.Code != http.StatusOK {
		t.Fatalf("unclaim slot status = %d body %s", w.Code, w.Body.String())
	}
	w = f.do(t, http.MethodPost, "/api/v1/sessions/"+f.tpl.ID+"/claimSlot", other,
		gin.H{"date": nextMonday().UnixMilli(), "slotId": slotID, "slotNum": 0})
	if w.Code != http.StatusOK {
		t.Fatalf("claim after release status = %d body %s", w.Code, w.Body.String())
	}

	w = f.do(t, http.MethodPost, "/api/v1/sessions/"+f.tpl.ID+"/claimSlot", tok,
		gin.H{"date": nextMonday().UnixMilli(), "slotId": uuid.NewString(), "slotNum": 0})
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown slot status = %d, want 404", w.Code)
	}
}

func TestEndEndpoint(t *testing.T) {
	f := newSessionFixture(t)
	hostTok := f.token(t, 5, f.hostRole.ID)

	w := f.do(t, http.MethodPost, "/api/v1/sessions/"+f.tpl.ID+"/claim", hostTok, gin.H{"date": nextMonday().UnixMilli()})
	if w.Code != http.StatusOK {
		t.Fatalf("claim status = %d", w.Code)
	}
	var resp struct {
		Session struct {
			ID string `json:"id"`
		} `json:"session"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	occID := resp.Session.ID

	// A bystander without manage_sessions cannot end someone else's session.
	w = f.do(t, http.MethodPost, "/api/v1/sessions/occurrences/"+occID+"/end", f.token(t, 6, f.hostRole.ID), nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("bystander end status = %d, want 403", w.Code)
	}
	w = f.do(t, http.MethodPost, "/api/v1/sessions/occurrences/"+occID+"/end", hostTok, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("host end status = %d body %s", w.Code, w.Body.String())
	}
	w = f.do(t, http.MethodPost, "/api/v1/sessions/occurrences/"+occID+"/end", hostTok, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("second end status = %d, want 409", w.Code)
	}
}

func TestScheduleEndpoint(t *testing.T) {
	f := newSessionFixture(t)
	tok := f.token(t, 5, f.hostRole.ID)

	millis := nextMonday().UnixMilli()
	w := f.do(t, http.MethodGet, "/api/v1/sessions/schedule?date="+strconv.FormatInt(millis, 10), tok, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("schedule status = %d body %s", w.Code, w.Body.String())
	}
	var resp struct {
		Schedule []struct {
			Session struct {
				Status string `json:"status"`
			} `json:"session"`
		} `json:"schedule"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Schedule) != 1 {
		t.Fatalf("schedule entries = %d, want 1", len(resp.Schedule))
	}
	if resp.Schedule[0].Session.Status != "Open" {
		t.Fatalf("status = %q, want Open", resp.Schedule[0].Session.Status)
	}

	// Off-schedule days list nothing.
	tuesday := nextMonday().AddDate(0, 0, 1).UnixMilli()
	w = f.do(t, http.MethodGet, "/api/v1/sessions/schedule?date="+strconv.FormatInt(tuesday, 10), tok, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("schedule status = %d", w.Code)
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Schedule) != 0 {
		t.Fatalf("schedule entries = %d, want 0", len(resp.Schedule))
	}
}
