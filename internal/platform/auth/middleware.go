package auth

import (
	"strings"

	httpPlatform "github.com/andreypavlenko/crmcore/internal/platform/http"
	"github.com/gin-gonic/gin"
)

// AuthMiddleware validates JWT access tokens
func AuthMiddleware(jwtManager *JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			httpPlatform.RespondWithError(c, 401, "UNAUTHORIZED", "Authorization header required")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			httpPlatform.RespondWithError(c, 401, "UNAUTHORIZED", "Invalid authorization header format")
			c.Abort()
			return
		}

		tokenString := parts[1]
		claims, err := jwtManager.ValidateAccessToken(tokenString)
		if err != nil {
			httpPlatform.RespondWithError(c, 401, "UNAUTHORIZED", "Invalid or expired token")
			c.Abort()
			return
		}

		// Set user ID in context
		c.Set("user_id", claims.UserID)
		c.Next()
	}
}

// GetUserID extracts user ID from context
func GetUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		return "", false
	}
	return userID.(string), true
}

// MustGetUserID extracts user ID from context, responding 401 when it is absent
func MustGetUserID(c *gin.Context) (string, bool) {
	userID, ok := GetUserID(c)
	if !ok {
		httpPlatform.RespondWithError(c, 401, "UNAUTHORIZED", "User not authenticated")
		return "", false
	}
	return userID, true
}
