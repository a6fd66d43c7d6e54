package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/servicemart/internal/server/http/dto"
)

// AdminKeyHeader carries the admin key on privileged routes.
const AdminKeyHeader = "X-Admin-Key"

// AdminKeyVerifier checks admin keys.
type AdminKeyVerifier interface {
	Enabled() bool
	Verify(key string) error
}

// AdminRequired lets a request through only with a valid admin key.
func AdminRequired(verifier AdminKeyVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !verifier.Enabled() {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.ErrorResponse{Error: "admin access is disabled"})
			return
		}
		key := c.GetHeader(AdminKeyHeader)
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "admin key required"})
			return
		}
		if err := verifier.Verify(key); err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.ErrorResponse{Error: "admin key rejected"})
			return
		}
		c.Next()
	}
}
