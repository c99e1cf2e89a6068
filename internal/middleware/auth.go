package middleware

import (
	"net/http"
	"strings"

	"rostra/config"
	"rostra/internal/auth"

	"github.com/gin-gonic/gin"
)

// AuthRequired validates the staff JWT and sets user, workspace and role in
// context.
func AuthRequired(cfg *config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		claims, err := auth.ParseAccessToken(cfg, parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		c.Set("user_id", claims.UserID)
		c.Set("workspace_id", claims.WorkspaceID)
		c.Set("username", claims.Username)
		c.Set("role_id", claims.RoleID)
		c.Next()
	}
}

// GetUserID returns the authenticated user ID from context (must be used after AuthRequired).
func GetUserID(c *gin.Context) uint64 {
	v, _ := c.Get("user_id")
	if v == nil {
		return 0
	}
	return v.(uint64)
}

// GetWorkspaceID returns the authenticated workspace ID from context.
func GetWorkspaceID(c *gin.Context) uint64 {
	v, _ := c.Get("workspace_id")
	if v == nil {
		return 0
	}
	return v.(uint64)
}

// GetRoleID returns the caller's role id; empty when the user has no role.
func GetRoleID(c *gin.Context) string {
	v, _ := c.Get("role_id")
	if v == nil {
		return ""
	}
	return v.(string)
}
