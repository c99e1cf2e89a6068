package handler

import (
	"net/http"
	"strconv"
	"time"

	"rostra/internal/middleware"
	"rostra/internal/models"
	"rostra/internal/repository"
	"rostra/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// QuotaHandler manages quota templates and serves per-user progress.
type QuotaHandler struct {
	quotaRepo     *repository.QuotaRepository
	workspaceRepo *repository.WorkspaceRepository
	userRepo      *repository.UserRepository
	quotaSvc      *service.QuotaService
}

func NewQuotaHandler(quotaRepo *repository.QuotaRepository, workspaceRepo *repository.WorkspaceRepository, userRepo *repository.UserRepository, quotaSvc *service.QuotaService) *QuotaHandler {
	return &QuotaHandler{quotaRepo: quotaRepo, workspaceRepo: workspaceRepo, userRepo: userRepo, quotaSvc: quotaSvc}
}

type quotaInput struct {
	Name  string   `json:"name" binding:"required"`
	Type  string   `json:"type" binding:"required"`
	Value int      `json:"value" binding:"required,min=1"`
	Roles []string `json:"roles"`
}

// Create handles POST /quotas (admin).
func (h *QuotaHandler) Create(c *gin.Context) {
	var req quotaInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	workspaceID := middleware.GetWorkspaceID(c)
	q := &models.Quota{
		ID:          uuid.NewString(),
		WorkspaceID: workspaceID,
		Name:        req.Name,
		Metric:      req.Type,
		Target:      req.Value,
	}
	for _, roleID := range req.Roles {
		role, err := h.workspaceRepo.GetRole(roleID)
		if err != nil || role.WorkspaceID != workspaceID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown role " + roleID})
			return
		}
		q.Roles = append(q.Roles, *role)
	}
	if err := h.quotaRepo.Create(q); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"quota": q})
}

// List handles GET /quotas.
func (h *QuotaHandler) List(c *gin.Context) {
	quotas, err := h.quotaRepo.ListByWorkspace(middleware.GetWorkspaceID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quotas": quotas})
}

// Delete handles DELETE /quotas/:id (admin).
func (h *QuotaHandler) Delete(c *gin.Context) {
	q, err := h.quotaRepo.GetByID(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if q.WorkspaceID != middleware.GetWorkspaceID(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if err := h.quotaRepo.Delete(q.ID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// UserProgress handles GET /quotas/users/:userid: every quota assigned to
// the user's role, scored over the current timeframe.
func (h *QuotaHandler) UserProgress(c *gin.Context) {
	workspaceID := middleware.GetWorkspaceID(c)
	userID, err := strconv.ParseUint(c.Param("userid"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid userid"})
		return
	}
	user, err := h.userRepo.GetByID(userID)
	if err != nil {
		writeError(c, err)
		return
	}
	if user.RoleID == nil {
		c.JSON(http.StatusOK, gin.H{"progress": []service.QuotaProgress{}})
		return
	}
	ws, err := h.workspaceRepo.GetByID(workspaceID)
	if err != nil {
		writeError(c, err)
		return
	}
	progress, err := h.quotaSvc.EvaluateUser(workspaceID, userID, *user.RoleID, ws.TimeframeStart, time.Now().UTC())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"progress": progress})
}
