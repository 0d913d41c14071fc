package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"catalog-service/internal/models"
	"github.com/gin-gonic/gin"
)

func unauthorized(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
		Success: false,
		Error: models.Error{
			Code:    code,
			Message: message,
		},
	})
}

// AdminAuth guards the admin routes with a static bearer token. An empty
// token disables the admin area.
func AdminAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "ADMIN_DISABLED",
					Message: "Admin access is not configured",
				},
			})
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(c, "UNAUTHORIZED", "Authorization header required")
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			unauthorized(c, "UNAUTHORIZED", "Invalid authorization format")
			return
		}

		provided := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			unauthorized(c, "UNAUTHORIZED", "Invalid token")
			return
		}
		c.Next()
	}
}
