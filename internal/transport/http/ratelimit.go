package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/vovakirdan/commlog-server/internal/metrics"
)

// newRateLimiter returns a limiter allowing perMinute events per minute with a
// burst of the same size, or nil when perMinute <= 0.
func newRateLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
}

// WriteRateLimitMiddleware rejects POST requests beyond perMinute with 429.
// Reads are never limited. perMinute <= 0 disables the limiter.
func WriteRateLimitMiddleware(perMinute int, logger *zerolog.Logger) gin.HandlerFunc {
	limiter := newRateLimiter(perMinute)
	return func(c *gin.Context) {
		if limiter == nil || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}
		if !limiter.Allow() {
			metrics.APIRateLimitHits.WithLabelValues(c.FullPath()).Inc()
			logger.Warn().Str("path", c.Request.URL.Path).Msg("write rate limit exceeded")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{Error: "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
