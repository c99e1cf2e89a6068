package handler

import (
	"net/http"
	"time"

	"rostra/internal/middleware"
	"rostra/internal/models"
	"rostra/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TemplateHandler is the admin CRUD surface for schedule templates.
type TemplateHandler struct {
	templateRepo  *repository.TemplateRepository
	workspaceRepo *repository.WorkspaceRepository
}

func NewTemplateHandler(templateRepo *repository.TemplateRepository, workspaceRepo *repository.WorkspaceRepository) *TemplateHandler {
	return &TemplateHandler{templateRepo: templateRepo, workspaceRepo: workspaceRepo}
}

type slotInput struct {
	Name  string `json:"name" binding:"required"`
	Slots int    `json:"slots" binding:"required,min=1"`
}

type statusInput struct {
	Name      string `json:"name" binding:"required"`
	TimeAfter int    `json:"timeAfter" binding:"min=0"`
}

type webhookInput struct {
	Enabled bool   `json:"enabled"`
	URL     string `json:"url"`
	Title   string `json:"title"`
	Body    string `json:"body"`
	Ping    string `json:"ping"`
}

type templateInput struct {
	Name             string        `json:"name" binding:"required"`
	Days             []int         `json:"days" binding:"required,min=1,dive,min=0,max=6"`
	Hour             int           `json:"hour" binding:"min=0,max=23"`
	Minute           int           `json:"minute" binding:"min=0,max=59"`
	AllowUnscheduled bool          `json:"allowUnscheduled"`
	Slots            []slotInput   `json:"slots"`
	Statuses         []statusInput `json:"statuses"`
	HostRoles        []string      `json:"hostRoles"`
	Webhook          webhookInput  `json:"webhook"`
}

// Create handles POST /templates.
func (h *TemplateHandler) Create(c *gin.Context) {
	var req templateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	workspaceID := middleware.GetWorkspaceID(c)

	days := 0
	for _, d := range req.Days {
		days |= 1 << d
	}
	t := &models.ScheduleTemplate{
		ID:               uuid.NewString(),
		WorkspaceID:      workspaceID,
		Name:             req.Name,
		Days:             days,
		Hour:             req.Hour,
		Minute:           req.Minute,
		AllowUnscheduled: req.AllowUnscheduled,
		WebhookEnabled:   req.Webhook.Enabled,
		WebhookURL:       req.Webhook.URL,
		WebhookTitle:     req.Webhook.Title,
		WebhookBody:      req.Webhook.Body,
		WebhookPing:      req.Webhook.Ping,
	}
	for i, s := range req.Slots {
		t.Slots = append(t.Slots, models.Slot{
			ID:         uuid.NewString(),
			TemplateID: t.ID,
			Label:      s.Name,
			Capacity:   s.Slots,
			Position:   i,
		})
	}
	for i, s := range req.Statuses {
		t.StatusRules = append(t.StatusRules, models.StatusRule{
			ID:                uuid.NewString(),
			TemplateID:        t.ID,
			Label:             s.Name,
			MinutesAfterStart: s.TimeAfter,
			Position:          i,
		})
	}
	for _, roleID := range req.HostRoles {
		role, err := h.workspaceRepo.GetRole(roleID)
		if err != nil || role.WorkspaceID != workspaceID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown host role " + roleID})
			return
		}
		t.HostRoles = append(t.HostRoles, *role)
	}
	if err := h.templateRepo.Create(t); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"template": t})
}

// List handles GET /templates.
func (h *TemplateHandler) List(c *gin.Context) {
	templates, err := h.templateRepo.ListByWorkspace(middleware.GetWorkspaceID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"templates": templates})
}

// Delete handles DELETE /templates/:id. Future unclaimed occurrences go
// with the template; past ones are history and stay.
func (h *TemplateHandler) Delete(c *gin.Context) {
	t, err := h.templateRepo.GetByID(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if t.WorkspaceID != middleware.GetWorkspaceID(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if err := h.templateRepo.Delete(t.ID, time.Now().UTC()); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
