package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sashidhar498/Custom-WhatsApp-Api/pkg/config"
)

func limitedRouter(cfg config.RateLimitConfig) *gin.Engine {
	router := gin.New()
	limiter := NewRateLimiter(cfg, zap.NewNop())
	router.Use(limiter.Middleware())
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	return router
}

func TestRateLimiterAllowsWithinBurst(t *testing.T) {
	router := limitedRouter(config.RateLimitConfig{
		Enabled:           true,
		RequestsPerSecond: 1,
		Burst:             3,
	})

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, w.Code)
		}
	}
}

func TestRateLimiterBlocksAfterBurst(t *testing.T) {
	router := limitedRouter(config.RateLimitConfig{
		Enabled:           true,
		RequestsPerSecond: 1,
		Burst:             2,
	})

	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	blocked := 0
	for _, code := range codes {
		if code == http.StatusTooManyRequests {
			blocked++
		}
	}
	if blocked == 0 {
		t.Errorf("expected at least one 429, got codes %v", codes)
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	router := limitedRouter(config.RateLimitConfig{Enabled: false, RequestsPerSecond: 1, Burst: 1})

	for i := 0; i < 10; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200 with limiter disabled, got %d", i, w.Code)
		}
	}
}

func TestRateLimiterDefaults(t *testing.T) {
	rl := NewRateLimiter(config.RateLimitConfig{Enabled: true}, zap.NewNop())
	if rl.cfg.RequestsPerSecond <= 0 {
		t.Error("expected a positive default rate")
	}
	if rl.cfg.Burst < 1 {
		t.Error("expected a positive default burst")
	}
}
