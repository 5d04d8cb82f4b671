package auth

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oggyb/dating-app/internal/db"
	svcErr "github.com/oggyb/dating-app/internal/errors"
	"github.com/oggyb/dating-app/internal/logger"
	"github.com/oggyb/dating-app/internal/transport/response"
)

// Gin context keys set by RequireAuth. The id and username keys match the
// logger fields so the request log picks them up.
const (
	UserIDKey     = logger.FieldUserID
	UsernameKey   = logger.FieldUsername
	RolesKey      = "roles"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// RequireAuth returns a Gin middleware that validates the bearer token.
func RequireAuth(tokens *TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(AuthHeaderKey)
		if header == "" {
			response.FromError(c, svcErr.Unauthenticated("missing authorization header"))
			return
		}
		if !strings.HasPrefix(header, BearerPrefix) {
			response.FromError(c, svcErr.Unauthenticated("invalid authorization format"))
			return
		}

		claims, err := tokens.Validate(strings.TrimPrefix(header, BearerPrefix))
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, ErrExpiredToken) {
				msg = "token has expired"
			}
			response.FromError(c, svcErr.Unauthenticated(msg))
			return
		}

		id, _ := claims.UserID()
		c.Set(UserIDKey, id)
		// stored usernames are lower-case
		c.Set(UsernameKey, strings.ToLower(claims.Username))
		c.Set(RolesKey, []string(claims.Roles))

		c.Next()
	}
}

// RequireRole lets the request through when the caller has any of roles.
// Must run after RequireAuth.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := Claims{Roles: GetRoles(c)}
		if !claims.HasRole(roles...) {
			response.FromError(c, svcErr.Forbidden("insufficient role"))
			return
		}
		c.Next()
	}
}

// RequireAdmin guards role management and the tag catalogue.
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(db.RoleAdmin)
}

// RequireModerator guards photo moderation.
func RequireModerator() gin.HandlerFunc {
	return RequireRole(db.RoleAdmin, db.RoleModerator)
}

// GetUserID extracts user ID from Gin context.
func GetUserID(c *gin.Context) uint64 {
	if id, exists := c.Get(UserIDKey); exists {
		return id.(uint64)
	}
	return 0
}

// GetUsername extracts username from Gin context.
func GetUsername(c *gin.Context) string {
	if username, exists := c.Get(UsernameKey); exists {
		return username.(string)
	}
	return ""
}

// GetRoles extracts roles from Gin context.
func GetRoles(c *gin.Context) []string {
	if roles, exists := c.Get(RolesKey); exists {
		return roles.([]string)
	}
	return nil
}
