package ratelimit

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vvmafra/fba-fantasy-app-sub001/internal/cache"
	"github.com/vvmafra/fba-fantasy-app-sub001/internal/config"
)

// Middleware is a fixed-window request limiter keyed by client IP, backed by
// the shared Redis counter so the limit holds across instances. On counter
// errors it fails open; throttling must never take the API down with it.
func Middleware(store cache.Store, cfg config.RateLimitConfig, logger *zap.Logger) gin.HandlerFunc {
	if store == nil || !cfg.Enabled || cfg.Requests <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		key := fmt.Sprintf("fba:ratelimit:%s", c.ClientIP())
		n, err := store.IncrWindow(c.Request.Context(), key, cfg.Window)
		if err != nil {
			if logger != nil {
				logger.Warn("rate limit counter failed", zap.Error(err))
			}
			c.Next()
			return
		}
		if n > cfg.Requests {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
