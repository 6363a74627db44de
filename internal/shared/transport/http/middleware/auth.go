package middleware

import (
	"errors"
	"net/http"
	"strings"

	"choria/internal/shared/security"

	"github.com/gin-gonic/gin"
)

const ClaimsKey = "claims"

// RequireRole 校验 Authorization: Bearer <jwt>，角色不符返回 403。
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(raw, "Bearer ")
		if !ok || token == "" {
			_ = c.Error(errMissingToken)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		claims, err := security.ParseToken(token)
		if err != nil {
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if claims.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

var errMissingToken = errors.New("missing bearer token")
