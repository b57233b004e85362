package middleware

import (
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/sashidhar498/Custom-WhatsApp-Api/pkg/config"
)

// AuthMiddleware validates bearer credentials when auth is enabled. A
// request is accepted when it carries the static API token, or a valid HMAC
// JWT signed with the configured secret.
func AuthMiddleware(cfg config.AuthConfig, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.Enabled {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(401, gin.H{"success": false, "error": "Authorization header required"})
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.JSON(401, gin.H{"success": false, "error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		provided := strings.TrimSpace(parts[1])
		if provided == "" {
			c.JSON(401, gin.H{"success": false, "error": "Token required"})
			c.Abort()
			return
		}

		// Constant-time comparison to prevent timing attacks
		if cfg.Token != "" && subtle.ConstantTimeCompare([]byte(provided), []byte(cfg.Token)) == 1 {
			c.Next()
			return
		}

		if cfg.JWTSecret != "" {
			if subject, err := validateJWT(provided, cfg.JWTSecret); err == nil {
				c.Set("subject", subject)
				c.Next()
				return
			}
		}

		logger.Warn("Rejected request with invalid credentials", zap.String("path", c.Request.URL.Path))
		c.JSON(401, gin.H{"success": false, "error": "Invalid token"})
		c.Abort()
	}
}

func validateJWT(tokenString, secret string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", err
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		subject, _ := claims["sub"].(string)
		return subject, nil
	}
	return "", errors.New("invalid token")
}
