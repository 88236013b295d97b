package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/vkivaturi/traffis/config"
)

// RateLimiters holds the two global request budgets: a generous one for
// reads and a tight one for mutations. The budget is shared by all
// callers rather than keyed per client.
type RateLimiters struct {
	read  *rate.Limiter
	write *rate.Limiter
}

// NewRateLimiters builds the limiters from configuration. A nil result
// means rate limiting is disabled.
func NewRateLimiters(cfg config.RateLimitConfig) *RateLimiters {
	if !cfg.Enabled {
		return nil
	}
	return &RateLimiters{
		read:  windowLimiter(cfg.ReadMax, cfg.ReadWindow),
		write: windowLimiter(cfg.WriteMax, cfg.WriteWindow),
	}
}

func windowLimiter(max int, window time.Duration) *rate.Limiter {
	seconds := window.Seconds()
	if seconds <= 0 || max <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(float64(max)/seconds), max)
}

// Read limits GET routes.
func (r *RateLimiters) Read() gin.HandlerFunc {
	return limit(r, func(r *RateLimiters) *rate.Limiter { return r.read },
		"Too many search requests, please try again later.")
}

// Write limits mutating routes.
func (r *RateLimiters) Write() gin.HandlerFunc {
	return limit(r, func(r *RateLimiters) *rate.Limiter { return r.write },
		"Too many update requests, please try again later.")
}

func limit(r *RateLimiters, pick func(*RateLimiters) *rate.Limiter, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if r == nil {
			c.Next()
			return
		}
		if !pick(r).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": message})
			return
		}
		c.Next()
	}
}
