package middleware

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/linkhive/linkhive/config"
	"github.com/linkhive/linkhive/models"
)

const (
	limiterIdleTTL    = time.Hour
	limiterSweepEvery = 5 * time.Minute
)

// limiterPool hands out one token bucket per identity (API key or client IP).
// Idle buckets are swept inline during lookups rather than by a background
// goroutine, so the pool needs no shutdown hook.
type limiterPool struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	rps       rate.Limit
	burst     int
	lastSweep time.Time
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func newLimiterPool(cfg config.RateLimitConfig) *limiterPool {
	return &limiterPool{
		buckets:   make(map[string]*bucket),
		rps:       rate.Limit(cfg.RequestsPerSecond),
		burst:     cfg.Burst,
		lastSweep: time.Now(),
	}
}

// allow reports whether identity may proceed, creating its bucket on first
// sight.
func (p *limiterPool) allow(identity string) bool {
	now := time.Now()

	p.mu.Lock()
	defer p.mu.Unlock()

	if now.Sub(p.lastSweep) > limiterSweepEvery {
		p.sweepLocked(now)
	}

	b, ok := p.buckets[identity]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(p.rps, p.burst)}
		p.buckets[identity] = b
	}
	b.lastSeen = now
	return b.lim.Allow()
}

// sweepLocked drops buckets idle past limiterIdleTTL. Caller holds p.mu.
func (p *limiterPool) sweepLocked(now time.Time) {
	cutoff := now.Add(-limiterIdleTTL)
	for id, b := range p.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(p.buckets, id)
		}
	}
	p.lastSweep = now
}

// RateLimit returns per-identity token-bucket rate limiting middleware.
// Identity is the API key set by Auth, or the client IP when unauthenticated.
func RateLimit(cfg config.RateLimitConfig) gin.HandlerFunc {
	pool := newLimiterPool(cfg)

	return func(c *gin.Context) {
		identity := c.GetString("api_key")
		if identity == "" {
			identity = c.ClientIP()
		}

		if !pool.allow(identity) {
			slog.Warn("request rejected: rate limited",
				"path", c.Request.URL.Path,
				"client", c.ClientIP())
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.EnrichResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeRateLimited,
					Message: "rate limit exceeded, please slow down",
				},
			})
			return
		}

		c.Next()
	}
}
