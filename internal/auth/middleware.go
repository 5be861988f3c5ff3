package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const identityKey = "fba.identity"

// Middleware verifies the Bearer token on /api/* routes and stashes the
// caller identity in the gin context. Health and docs endpoints stay open.
func Middleware(j JWT, disabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if disabled {
			// Local dev: every caller is an explicit admin.
			c.Set(identityKey, Identity{Role: RoleAdmin})
			c.Next()
			return
		}
		p := c.Request.URL.Path
		if p == "/healthz" || p == "/readyz" || p == "/docs" || strings.HasPrefix(p, "/swagger") {
			c.Next()
			return
		}
		if !strings.HasPrefix(p, "/api/") {
			c.Next()
			return
		}
		raw := strings.TrimSpace(c.GetHeader("Authorization"))
		if !strings.HasPrefix(raw, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		claims, err := j.Verify(strings.TrimSpace(strings.TrimPrefix(raw, "Bearer ")))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(identityKey, Identity{
			UserID: claims.UserID,
			TeamID: claims.TeamID,
			Role:   claims.Role,
		})
		c.Next()
	}
}

// FromContext returns the caller identity. A request that never went through
// the middleware gets an anonymous identity, which owns no team and holds no
// role; dev-mode admin is granted by the middleware itself.
func FromContext(c *gin.Context) Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(Identity); ok {
			return id
		}
	}
	return Identity{}
}
