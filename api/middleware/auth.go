package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	internal_auth_service "github.com/echonotes/web-backend/internal/services/auth"
	"github.com/echonotes/web-backend/pkg/commons"
	"github.com/echonotes/web-backend/pkg/types"
)

const principalKey = "principal"

// Authentication resolves the bearer token and injects the caller's
// principal into the request context. Websocket clients cannot set headers,
// so a "token" query parameter is accepted as a fallback.
func Authentication(logger commons.Logger, authService internal_auth_service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "missing authorization token"})
			return
		}

		user, err := authService.Verify(c.Request.Context(), token)
		if err != nil {
			logger.Debugf("token verification failed: %v", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid or expired token"})
			return
		}

		c.Set(principalKey, &types.UserPrinciple{
			UserId:       user.Id,
			Email:        user.Email,
			Name:         user.Name,
			CurrentToken: token,
		})
		c.Next()
	}
}

// GetPrincipal returns the authenticated principal set by Authentication.
func GetPrincipal(c *gin.Context) types.SimplePrinciple {
	val, ok := c.Get(principalKey)
	if !ok {
		return nil
	}
	principal, ok := val.(types.SimplePrinciple)
	if !ok {
		return nil
	}
	return principal
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return c.Query("token")
}
