package middleware

import (
	"net/http"

	"rostra/internal/models"
	"rostra/internal/repository"

	"github.com/gin-gonic/gin"
)

// WorkspaceKey authenticates the external game client by the raw workspace
// key in the Authorization header (no Bearer scheme; the client is a plain
// HTTP poller) and sets the workspace in context.
func WorkspaceKey(workspaceRepo *repository.WorkspaceRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("Authorization")
		if key == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "Authorization key missing"})
			return
		}
		ws, err := workspaceRepo.GetByAPIKey(key)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Unauthorized"})
			return
		}
		c.Set("workspace", ws)
		c.Next()
	}
}

// GetWorkspace returns the key-authenticated workspace (after WorkspaceKey).
func GetWorkspace(c *gin.Context) *models.Workspace {
	v, _ := c.Get("workspace")
	if v == nil {
		return nil
	}
	return v.(*models.Workspace)
}
