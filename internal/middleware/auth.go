package middleware

import (
	"net/http"
	"strings"

	"evaluation-workflow-api/internal/auth"

	"github.com/gin-gonic/gin"
)

// extractToken pulls the JWT from the Authorization header, falling back to
// the "token" query param for WebSocket/browser clients that cannot set
// custom headers on the upgrade request.
func extractToken(c *gin.Context) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
	}
	return c.Query("token")
}

// JWTAuthMiddleware validates the JWT and stores user_id/username in the
// request context for downstream handlers.
func JWTAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization token is required",
			})
			c.Abort()
			return
		}

		claims, err := auth.ValidateToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("username", claims.Username)

		c.Next()
	}
}
