package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/sashidhar498/Custom-WhatsApp-Api/pkg/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func authRouter(cfg config.AuthConfig) *gin.Engine {
	router := gin.New()
	router.Use(AuthMiddleware(cfg, zap.NewNop()))
	router.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	return router
}

func get(router *gin.Engine, authorization string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestAuthDisabled(t *testing.T) {
	router := authRouter(config.AuthConfig{Enabled: false})

	if w := get(router, ""); w.Code != http.StatusOK {
		t.Errorf("expected 200 with auth disabled, got %d", w.Code)
	}
}

func TestAuthMissingHeader(t *testing.T) {
	router := authRouter(config.AuthConfig{Enabled: true, Token: "secret"})

	if w := get(router, ""); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without header, got %d", w.Code)
	}
}

func TestAuthMalformedHeader(t *testing.T) {
	router := authRouter(config.AuthConfig{Enabled: true, Token: "secret"})

	for _, header := range []string{"secret", "Basic secret"} {
		if w := get(router, header); w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401 for header %q, got %d", header, w.Code)
		}
	}
}

func TestAuthStaticToken(t *testing.T) {
	router := authRouter(config.AuthConfig{Enabled: true, Token: "secret"})

	if w := get(router, "Bearer secret"); w.Code != http.StatusOK {
		t.Errorf("expected 200 with valid token, got %d", w.Code)
	}
	if w := get(router, "Bearer wrong"); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with wrong token, got %d", w.Code)
	}
}

func TestAuthJWT(t *testing.T) {
	router := authRouter(config.AuthConfig{Enabled: true, JWTSecret: "jwt-secret"})

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "tester",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("jwt-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if w := get(router, "Bearer "+signed); w.Code != http.StatusOK {
		t.Errorf("expected 200 with valid JWT, got %d", w.Code)
	}

	wrong, err := token.SignedString([]byte("other-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if w := get(router, "Bearer "+wrong); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with wrong signature, got %d", w.Code)
	}
}

func TestAuthExpiredJWT(t *testing.T) {
	router := authRouter(config.AuthConfig{Enabled: true, JWTSecret: "jwt-secret"})

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "tester",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("jwt-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if w := get(router, "Bearer "+signed); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with expired JWT, got %d", w.Code)
	}
}
