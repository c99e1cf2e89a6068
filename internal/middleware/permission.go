package middleware

import (
	"net/http"

	"rostra/internal/repository"

	"github.com/gin-gonic/gin"
)

// RequirePermission checks that the caller's role carries the permission
// (admin roles pass everything). Must run after AuthRequired.
func RequirePermission(workspaceRepo *repository.WorkspaceRepository, perm string) gin.HandlerFunc {
	return func(c *gin.Context) {
		roleID := GetRoleID(c)
		if roleID == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		role, err := workspaceRepo.GetRole(roleID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		if !role.HasPermission(perm) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

// AdminRequired checks that the caller's role is an admin role.
func AdminRequired(workspaceRepo *repository.WorkspaceRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		roleID := GetRoleID(c)
		if roleID == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		role, err := workspaceRepo.GetRole(roleID)
		if err != nil || !role.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}
