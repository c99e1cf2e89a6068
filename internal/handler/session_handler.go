package handler

import (
	"net/http"
	"time"

	"rostra/internal/apperr"
	"rostra/internal/domain"
	"rostra/internal/middleware"
	"rostra/internal/models"
	"rostra/internal/repository"
	"rostra/internal/service"
	"rostra/internal/ws"

	"github.com/gin-gonic/gin"
)

// SessionHandler exposes the schedule, the claim/unclaim operations and the
// ongoing-session views. Claims go through the occurrence repository's
// conditional writes; this layer only adds eligibility checks and fan-out.
type SessionHandler struct {
	templateRepo   *repository.TemplateRepository
	occurrenceRepo *repository.OccurrenceRepository
	workspaceRepo  *repository.WorkspaceRepository
	userRepo       *repository.UserRepository
	notifier       *service.SessionNotifier
	board          *ws.BoardHub
}

func NewSessionHandler(templateRepo *repository.TemplateRepository, occurrenceRepo *repository.OccurrenceRepository, workspaceRepo *repository.WorkspaceRepository, userRepo *repository.UserRepository, notifier *service.SessionNotifier, board *ws.BoardHub) *SessionHandler {
	return &SessionHandler{
		templateRepo:   templateRepo,
		occurrenceRepo: occurrenceRepo,
		workspaceRepo:  workspaceRepo,
		userRepo:       userRepo,
		notifier:       notifier,
		board:          board,
	}
}

type claimRequest struct {
	Date int64 `json:"date" binding:"required"` // unix millis, any instant on the target day
}

type slotClaimRequest struct {
	Date    int64  `json:"date" binding:"required"`
	SlotID  string `json:"slotId" binding:"required"`
	SlotNum *int   `json:"slotNum" binding:"required"`
}

type occurrenceView struct {
	*models.Occurrence
	Status string `json:"status"`
}

func viewOf(occ *models.Occurrence, rules []models.StatusRule, now time.Time) occurrenceView {
	return occurrenceView{Occurrence: occ, Status: service.DeriveStatus(occ.StartAt, rules, now)}
}

// hostEligible allows template-listed roles plus anyone holding
// manage_sessions (the admin override).
func (h *SessionHandler) hostEligible(c *gin.Context, t *models.ScheduleTemplate) bool {
	roleID := middleware.GetRoleID(c)
	if roleID == "" {
		return false
	}
	for _, r := range t.HostRoles {
		if r.ID == roleID {
			return true
		}
	}
	role, err := h.workspaceRepo.GetRole(roleID)
	if err != nil {
		return false
	}
	return role.HasPermission(domain.PermManageSessions)
}

// resolveForRequest loads the template and materializes the occurrence for
// the requested day.
func (h *SessionHandler) resolveForRequest(c *gin.Context, templateID string, dateMillis int64) (*models.ScheduleTemplate, *models.Occurrence, error) {
	t, err := h.templateRepo.GetByID(templateID)
	if err != nil {
		return nil, nil, err
	}
	if t.WorkspaceID != middleware.GetWorkspaceID(c) {
		return nil, nil, apperr.ErrNotFound
	}
	day := time.UnixMilli(dateMillis).UTC()
	if !t.OnDay(day.Weekday()) && !t.AllowUnscheduled {
		return nil, nil, apperr.New(apperr.KindValidation, "NOT_SCHEDULED", "template does not run on that day")
	}
	occ, err := h.occurrenceRepo.Resolve(t, day)
	if err != nil {
		return nil, nil, err
	}
	return t, occ, nil
}

// ClaimHost handles POST /sessions/:templateId/claim.
func (h *SessionHandler) ClaimHost(c *gin.Context) {
	var req claimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t, occ, err := h.resolveForRequest(c, c.Param("templateId"), req.Date)
	if err != nil {
		writeError(c, err)
		return
	}
	if !h.hostEligible(c, t) {
		writeError(c, apperr.ErrForbidden)
		return
	}
	userID := middleware.GetUserID(c)
	if err := h.occurrenceRepo.ClaimHost(occ.ID, userID, time.Now().UTC()); err != nil {
		writeError(c, err)
		return
	}
	host, _ := h.userRepo.GetByID(userID)
	h.notifier.NotifyClaimed(c.Request.Context(), t, host)
	h.board.PublishHostClaimed(occ.WorkspaceID, occ.ID, userID)
	occ, err = h.occurrenceRepo.GetByID(occ.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": viewOf(occ, t.StatusRules, time.Now().UTC())})
}

// UnclaimHost handles POST /sessions/:templateId/unclaim.
func (h *SessionHandler) UnclaimHost(c *gin.Context) {
	var req claimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t, occ, err := h.resolveForRequest(c, c.Param("templateId"), req.Date)
	if err != nil {
		writeError(c, err)
		return
	}
	userID := middleware.GetUserID(c)
	if err := h.occurrenceRepo.UnclaimHost(occ.ID, userID); err != nil {
		writeError(c, err)
		return
	}
	h.board.PublishHostUnclaimed(occ.WorkspaceID, occ.ID, userID)
	occ, err = h.occurrenceRepo.GetByID(occ.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": viewOf(occ, t.StatusRules, time.Now().UTC())})
}

// ClaimSlot handles POST /sessions/:templateId/claimSlot.
func (h *SessionHandler) ClaimSlot(c *gin.Context) {
	var req slotClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t, occ, err := h.resolveForRequest(c, c.Param("templateId"), req.Date)
	if err != nil {
		writeError(c, err)
		return
	}
	slot := findSlot(t, req.SlotID)
	if slot == nil {
		writeError(c, apperr.ErrNotFound)
		return
	}
	userID := middleware.GetUserID(c)
	if err := h.occurrenceRepo.ClaimSlot(occ, slot, *req.SlotNum, userID, time.Now().UTC()); err != nil {
		writeError(c, err)
		return
	}
	h.board.PublishSlotClaimed(occ.WorkspaceID, occ.ID, slot.ID, *req.SlotNum, userID)
	occ, err = h.occurrenceRepo.GetByID(occ.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": viewOf(occ, t.StatusRules, time.Now().UTC())})
}

// UnclaimSlot handles POST /sessions/:templateId/unclaimSlot.
func (h *SessionHandler) UnclaimSlot(c *gin.Context) {
	var req slotClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t, occ, err := h.resolveForRequest(c, c.Param("templateId"), req.Date)
	if err != nil {
		writeError(c, err)
		return
	}
	slot := findSlot(t, req.SlotID)
	if slot == nil {
		writeError(c, apperr.ErrNotFound)
		return
	}
	userID := middleware.GetUserID(c)
	if err := h.occurrenceRepo.UnclaimSlot(occ.ID, slot.ID, *req.SlotNum, userID); err != nil {
		writeError(c, err)
		return
	}
	h.board.PublishSlotUnclaimed(occ.WorkspaceID, occ.ID, slot.ID, *req.SlotNum, userID)
	occ, err = h.occurrenceRepo.GetByID(occ.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": viewOf(occ, t.StatusRules, time.Now().UTC())})
}

// End handles POST /sessions/occurrences/:id/end. The host can end their
// own session; manage_sessions ends any.
func (h *SessionHandler) End(c *gin.Context) {
	occ, err := h.occurrenceRepo.GetByID(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if occ.WorkspaceID != middleware.GetWorkspaceID(c) {
		writeError(c, apperr.ErrNotFound)
		return
	}
	userID := middleware.GetUserID(c)
	if occ.OwnerID == nil || *occ.OwnerID != userID {
		roleID := middleware.GetRoleID(c)
		role, roleErr := h.workspaceRepo.GetRole(roleID)
		if roleErr != nil || !role.HasPermission(domain.PermManageSessions) {
			writeError(c, apperr.ErrForbidden)
			return
		}
	}
	if err := h.occurrenceRepo.End(occ.ID, time.Now().UTC()); err != nil {
		writeError(c, err)
		return
	}
	h.board.PublishEnded(occ.WorkspaceID, occ.ID)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Ongoing handles GET /sessions/ongoing: claimed, started, not yet ended
// occurrences with their live status. Status is derived per request, never
// stored.
func (h *SessionHandler) Ongoing(c *gin.Context) {
	now := time.Now().UTC()
	list, err := h.occurrenceRepo.ListOngoing(middleware.GetWorkspaceID(c), now)
	if err != nil {
		writeError(c, err)
		return
	}
	views := make([]occurrenceView, 0, len(list))
	for i := range list {
		views = append(views, viewOf(&list[i], list[i].Template.StatusRules, now))
	}
	c.JSON(http.StatusOK, gin.H{"sessions": views})
}

// Schedule handles GET /sessions/schedule?date=<millis>: every template
// running on that day with its resolved occurrence state.
func (h *SessionHandler) Schedule(c *gin.Context) {
	dateMillis, err := parseMillis(c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
		return
	}
	day := time.UnixMilli(dateMillis).UTC()
	templates, err := h.templateRepo.ListByWorkspace(middleware.GetWorkspaceID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	now := time.Now().UTC()
	type entry struct {
		Template models.ScheduleTemplate `json:"template"`
		Session  occurrenceView          `json:"session"`
	}
	entries := make([]entry, 0, len(templates))
	for i := range templates {
		t := &templates[i]
		if !t.OnDay(day.Weekday()) {
			continue
		}
		occ, err := h.occurrenceRepo.Resolve(t, day)
		if err != nil {
			writeError(c, err)
			return
		}
		entries = append(entries, entry{Template: templates[i], Session: viewOf(occ, t.StatusRules, now)})
	}
	c.JSON(http.StatusOK, gin.H{"schedule": entries})
}

func findSlot(t *models.ScheduleTemplate, slotID string) *models.Slot {
	for i := range t.Slots {
		if t.Slots[i].ID == slotID {
			return &t.Slots[i]
		}
	}
	return nil
}
