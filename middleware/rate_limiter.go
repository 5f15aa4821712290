// api/middleware/rate_limiter.go

package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/latticehq/lattice/api/db"
	logger "github.com/latticehq/lattice/api/logging"
	"github.com/latticehq/lattice/api/util"
)

func RateLimiter(limit int, per time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		allowed, err := db.RateLimit(c, key, limit, per)
		if err != nil {
			logger.Error("Rate limiting failed", zap.Error(err), zap.String("ip", key))
			// Fail open: a broken limiter should not take the API down.
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Duration", per.String())

		if !allowed {
			logger.Warn("Rate limit exceeded",
				zap.String("ip", key),
				zap.Int("limit", limit),
				zap.Duration("per", per))
			c.JSON(http.StatusTooManyRequests, util.Response{
				Success: false,
				Error:   &util.ErrorBody{Code: util.CodeRateLimited, Message: "rate limit exceeded"},
				Meta:    util.Meta{Timestamp: time.Now().UTC()},
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
