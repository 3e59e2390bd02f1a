package middleware

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"platform/internal/auth"
	"platform/internal/service"
)

// SessionAuth validates the bearer token signature, then the backing session,
// and injects accountId, sessionKey and role into the gin context. A token
// whose session has been logged out or expired is rejected even if the JWT
// itself is still within its lifetime.
func SessionAuth(tokens *auth.TokenIssuer, sessions *service.SessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader("Authorization"))
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		parts := strings.Split(raw, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		claims, err := tokens.Verify(parts[1])
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token expired"})
				return
			}
			log.Println("[AUTH] [ERROR] token validation failed:", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if claims.Purpose != auth.PurposeSession || claims.SessionKey == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if _, err := sessions.Validate(c.Request.Context(), claims.SessionKey); err != nil {
			switch {
			case errors.Is(err, service.ErrSessionExpired):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
			case errors.Is(err, service.ErrSessionRevoked), errors.Is(err, service.ErrSessionNotFound):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			default:
				log.Println("[AUTH] [ERROR] session validation failed:", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			}
			return
		}

		accountID, err := primitive.ObjectIDFromHex(claims.Subject)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		// Stale last-activity is acceptable; the touch is best effort.
		if err := sessions.Touch(c.Request.Context(), claims.SessionKey); err != nil {
			log.Println("[AUTH] [ERROR] session touch failed:", err)
		}

		c.Set("accountId", accountID)
		c.Set("sessionKey", claims.SessionKey)
		c.Set("role", claims.Role)
		c.Next()
	}
}

// RequireRole gates a route group to the given roles. It runs after
// SessionAuth and reads the role claim it injected.
func RequireRole(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get("role")
		roleValue, _ := role.(string)

		for _, allowed := range allowedRoles {
			if roleValue == allowed {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	}
}
