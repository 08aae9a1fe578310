package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/civiclens/civiclens/internal/infrastructure/ratelimit"
	"github.com/civiclens/civiclens/internal/shared/errors"
	"github.com/civiclens/civiclens/internal/shared/logger"
	"github.com/civiclens/civiclens/internal/shared/utils"
)

// RateLimiter throttles requests per client IP. The backing limiter is shared
// through Redis when enabled, so the limit holds across instances.
type RateLimiter struct {
	limiter ratelimit.RateLimiter
	limit   ratelimit.Limit
	logger  logger.Interface
}

func NewRateLimiter(limiter ratelimit.RateLimiter, limit ratelimit.Limit, logger logger.Interface) *RateLimiter {
	return &RateLimiter{
		limiter: limiter,
		limit:   limit,
		logger:  logger,
	}
}

// Limit fails open when the limiter backend is unavailable.
func (rl *RateLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl == nil || rl.limiter == nil || rl.limit.IsZero() {
			c.Next()
			return
		}

		allowed, err := rl.limiter.Allow(c.Request.Context(), "ip:"+c.ClientIP(), rl.limit)
		if err != nil {
			rl.logger.Warnw("rate limiter unavailable", "error", err)
			c.Next()
			return
		}

		if !allowed {
			utils.ErrorResponse(c, http.StatusTooManyRequests, errors.ErrorTypeRateLimited, "rate limit exceeded, please try again later")
			c.Abort()
			return
		}

		c.Next()
	}
}
