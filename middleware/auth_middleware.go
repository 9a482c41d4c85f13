package middleware

import (
	"net/http"
	"strings"

	"github.com/clientdesk-api/dto"
	"github.com/gin-gonic/gin"
)

// AccessTokenCookie is the HttpOnly cookie set at login
const AccessTokenCookie = "access_token"

// TokenParser validates an access token and returns its claims
type TokenParser interface {
	ParseAccessToken(token string) (*dto.TokenClaims, error)
}

// AuthMiddleware authenticates requests using a Bearer token or the
// access_token cookie and stores userId and role on the context
func AuthMiddleware(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  "error",
				"message": "Authentication required",
			})
			c.Abort()
			return
		}

		claims, err := parser.ParseAccessToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  "error",
				"message": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		c.Set("userId", claims.UserID)
		c.Set("email", claims.Email)
		c.Set("role", claims.Role)

		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	// Header takes precedence over the cookie
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie, err := c.Cookie(AccessTokenCookie); err == nil {
		return cookie
	}
	return ""
}
