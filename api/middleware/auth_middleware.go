// api/middleware/auth_middleware.go
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tabula-io/tabula-backend/config"
	"github.com/tabula-io/tabula-backend/internal/auth"
	"github.com/tabula-io/tabula-backend/internal/domain"
	"github.com/tabula-io/tabula-backend/internal/logger"
)

var customLog = logger.NewLogger()

// AuthMiddleware creates a gin middleware for checking bearer-token
// authentication. Valid tokens resolve to an Identity stored in the context.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			err := errors.New("authorization header required")
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			err := errors.New("authorization header format must be Bearer {token}")
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		tokenString := parts[1]

		ident, err := auth.ValidateJWT(tokenString, cfg.JWTSecret)
		if err != nil {
			customLog.Printf("AuthMiddleware: Token validation failed: %v", err)
			errMsg := "Invalid token"
			switch {
			case errors.Is(err, auth.ErrTokenMalformed):
				errMsg = err.Error()
			case errors.Is(err, auth.ErrTokenExpired):
				errMsg = err.Error()
			}

			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errMsg})
			return
		}

		customLog.Printf("AuthMiddleware: Token validated for UserID: %s (Group: %s)", ident.UserID, ident.GroupID)
		c.Set("userId", ident.UserID)
		c.Set("groupId", ident.GroupID)

		c.Next()
	}
}

// IdentityFromContext rebuilds the caller identity set by AuthMiddleware.
func IdentityFromContext(c *gin.Context) domain.Identity {
	return domain.Identity{
		UserID:  c.MustGet("userId").(string),
		GroupID: c.MustGet("groupId").(string),
	}
}
