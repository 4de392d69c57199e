package api

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/adcomb/app/apperr"
	"github.com/lysyi3m/adcomb/app/database"
)

const userIDKey = "user_id"

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-API-Key")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// HashToken returns the hex SHA-256 digest stored for an API token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// authMiddleware resolves the bearer token to a user id.
func authMiddleware(profiles database.ProfileRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if !strings.HasPrefix(authHeader, "Bearer ") || token == "" {
			respondError(c, apperr.New(apperr.KindUnauthorized, "Authorization required").
				WithDetails("Provide a token in the Authorization: Bearer <token> header"))
			return
		}

		userID, err := profiles.UserIDForTokenHash(c.Request.Context(), HashToken(token))
		if err != nil {
			respondError(c, err)
			return
		}
		if userID == "" {
			respondError(c, apperr.New(apperr.KindUnauthorized, "Invalid token"))
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

func adminMiddleware(profiles database.ProfileRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		profile, err := profiles.GetProfile(c.Request.Context(), currentUser(c))
		if err != nil {
			respondError(c, err)
			return
		}
		if profile == nil || !profile.IsAdmin {
			respondError(c, apperr.Forbidden("Admin access required"))
			return
		}
		c.Next()
	}
}

// schedulerKeyMiddleware guards the cron endpoint with a static key.
func schedulerKeyMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		providedKey := c.GetHeader("X-API-Key")

		if providedKey == "" {
			respondError(c, apperr.New(apperr.KindUnauthorized, "API key required").
				WithDetails("Provide the scheduler key in the X-API-Key header"))
			return
		}

		if subtle.ConstantTimeCompare([]byte(providedKey), []byte(apiKey)) != 1 {
			respondError(c, apperr.Forbidden("Invalid API key"))
			return
		}

		c.Next()
	}
}

func currentUser(c *gin.Context) string {
	return c.GetString(userIDKey)
}
