package handler

import (
	"strconv"

	"rostra/internal/apperr"

	"github.com/gin-gonic/gin"
)

// writeError maps an application error to its HTTP status with a stable
// machine-readable code, so callers can distinguish "refresh and retry"
// conflicts from hard failures.
func writeError(c *gin.Context, err error) {
	c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error(), "code": apperr.CodeOf(err)})
}

func parseMillis(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}
