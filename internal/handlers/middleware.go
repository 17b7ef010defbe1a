package handlers

import (
	"net/http"
	"time"

	"examtracker/internal/security"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Logging middleware logs HTTP requests
func Logging(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("Request handled")
	}
}

// RateLimit rejects clients that exceed the limiter's budget
func RateLimit(limiter *security.RateLimiter, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			respondWithError(c, log, http.StatusTooManyRequests, "rate_limited", ErrTooManyRequests, nil)
			return
		}
		c.Next()
	}
}
