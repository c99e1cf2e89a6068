package handler

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"rostra/internal/apperr"
	"rostra/internal/middleware"
	"rostra/internal/repository"
	"rostra/internal/service"

	"github.com/gin-gonic/gin"
)

// ActivityHandler terminates the game client's heartbeat calls and the
// staff-facing activity queries.
type ActivityHandler struct {
	activityRepo  *repository.ActivityRepository
	workspaceRepo *repository.WorkspaceRepository
	identity      *service.IdentityService
}

func NewActivityHandler(activityRepo *repository.ActivityRepository, workspaceRepo *repository.WorkspaceRepository, identity *service.IdentityService) *ActivityHandler {
	return &ActivityHandler{activityRepo: activityRepo, workspaceRepo: workspaceRepo, identity: identity}
}

type heartbeatRequest struct {
	UserID   uint64  `json:"userid" binding:"required"`
	PlaceID  *uint64 `json:"placeid"`
	IdleTime int     `json:"idleTime"`
	Messages int     `json:"messages"`
}

// Heartbeat handles POST /activity?type=create|end from the key-
// authenticated game client. The rank gate soft-accepts: the poller has no
// recovery path, so a wrong-rank user gets success with an informational
// error instead of a hard failure.
func (h *ActivityHandler) Heartbeat(c *gin.Context) {
	ws := middleware.GetWorkspace(c)
	hbType := c.Query("type")
	if hbType != "create" && hbType != "end" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Missing query type (create or end)"})
		return
	}
	var req heartbeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid or missing userid"})
		return
	}

	if ws.MinRank > 0 {
		rank := h.identity.RankIn(c.Request.Context(), ws.ID, req.UserID)
		if rank <= ws.MinRank {
			log.Printf("[BLOCKED] User %d has insufficient rank (%d)", req.UserID, rank)
			c.JSON(http.StatusOK, gin.H{"success": true, "error": "User is not the right rank"})
			return
		}
	}

	// Refresh the identity cache so activity pages show current names.
	// Best-effort only.
	h.identity.Sync(c.Request.Context(), req.UserID, ws.ID)

	switch hbType {
	case "create":
		if _, err := h.activityRepo.Start(req.UserID, ws.ID, req.PlaceID, time.Now().UTC()); err != nil {
			c.JSON(apperr.HTTPStatus(err), gin.H{"success": false, "error": err.Error()})
			return
		}
		log.Printf("[SESSION STARTED] User %d for workspace %d", req.UserID, ws.ID)
	case "end":
		if err := h.activityRepo.End(req.UserID, ws.ID, req.IdleTime, req.Messages, time.Now().UTC()); err != nil {
			c.JSON(apperr.HTTPStatus(err), gin.H{"success": false, "error": err.Error()})
			return
		}
		log.Printf("[SESSION ENDED] User %d for workspace %d", req.UserID, ws.ID)
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// UserSummary returns a user's closed sessions and totals for the current
// timeframe.
func (h *ActivityHandler) UserSummary(c *gin.Context) {
	workspaceID := middleware.GetWorkspaceID(c)
	userID, err := strconv.ParseUint(c.Param("userid"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid userid"})
		return
	}
	ws, err := h.workspaceRepo.GetByID(workspaceID)
	if err != nil {
		writeError(c, err)
		return
	}
	now := time.Now().UTC()
	sessions, err := h.activityRepo.ListClosedInRange(workspaceID, userID, ws.TimeframeStart, now)
	if err != nil {
		writeError(c, err)
		return
	}
	var minutes int64
	var idle, messages int
	for i := range sessions {
		minutes += sessions[i].Minutes()
		idle += sessions[i].IdleMinutes
		messages += sessions[i].MessageCount
	}
	c.JSON(http.StatusOK, gin.H{
		"sessions":        sessions,
		"total_minutes":   minutes,
		"idle_minutes":    idle,
		"message_count":   messages,
		"timeframe_start": ws.TimeframeStart,
	})
}

// ResetTimeframe advances the workspace quota window to now. Activity
// history stays; only the aggregation window moves.
func (h *ActivityHandler) ResetTimeframe(c *gin.Context) {
	workspaceID := middleware.GetWorkspaceID(c)
	if err := h.workspaceRepo.AdvanceTimeframe(workspaceID, time.Now().UTC()); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
