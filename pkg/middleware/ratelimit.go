package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sashidhar498/Custom-WhatsApp-Api/pkg/config"
)

// RateLimiter applies a per-client token bucket keyed by remote IP.
type RateLimiter struct {
	cfg    config.RateLimitConfig
	logger *zap.Logger

	mu       sync.Mutex
	limiters map[string]*clientLimiter

	cleanupInterval time.Duration
	lastCleanup     time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a rate limiter for API endpoints.
func NewRateLimiter(cfg config.RateLimitConfig, logger *zap.Logger) *RateLimiter {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 20
	}
	if cfg.Burst < 1 {
		cfg.Burst = int(cfg.RequestsPerSecond) * 2
	}
	return &RateLimiter{
		cfg:             cfg,
		logger:          logger.Named("ratelimit"),
		limiters:        make(map[string]*clientLimiter),
		cleanupInterval: 10 * time.Minute,
		lastCleanup:     time.Now(),
	}
}

func (r *RateLimiter) getLimiter(key string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if time.Since(r.lastCleanup) > r.cleanupInterval {
		cutoff := time.Now().Add(-30 * time.Minute)
		for k, cl := range r.limiters {
			if cl.lastSeen.Before(cutoff) {
				delete(r.limiters, k)
			}
		}
		r.lastCleanup = time.Now()
	}

	cl, ok := r.limiters[key]
	if !ok {
		cl = &clientLimiter{
			limiter: rate.NewLimiter(rate.Limit(r.cfg.RequestsPerSecond), r.cfg.Burst),
		}
		r.limiters[key] = cl
	}
	cl.lastSeen = time.Now()
	return cl.limiter
}

// Middleware returns the gin handler enforcing the limit.
func (r *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !r.cfg.Enabled {
			c.Next()
			return
		}
		if !r.getLimiter(c.ClientIP()).Allow() {
			r.logger.Warn("Rate limit exceeded", zap.String("client_ip", c.ClientIP()))
			c.JSON(429, gin.H{"success": false, "error": "Too many requests"})
			c.Abort()
			return
		}
		c.Next()
	}
}
