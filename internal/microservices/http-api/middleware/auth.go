package middleware

import (
	"errors"
	"net/http"
	"strings"

	"yamdb/internal/logging"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/permission"
	"yamdb/internal/microservices/http-api/repository"
	"yamdb/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

const userKey = "user"

// TokenValidator is the part of service.AuthService the middleware needs.
type TokenValidator interface {
	ValidateToken(tokenString string) (*service.Claims, error)
}

// AuthMiddleware resolves the bearer token, if any, to a stored user.
// Requests without an Authorization header continue anonymously; a header
// that does not check out is rejected with 401.
func AuthMiddleware(tokens TokenValidator, users repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		// Extract token (format: "Bearer <token>")
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			return
		}

		claims, err := tokens.ValidateToken(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		// the role can change after the token was issued, so read it fresh
		user, err := users.FindByID(c.Request.Context(), claims.UserID)
		if errors.Is(err, repository.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			return
		}
		if err != nil {
			logging.Error().Err(err).Str("user_id", claims.UserID).Msg("failed to load token user")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

// CurrentUser returns the authenticated user or nil for anonymous callers.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(userKey); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

// SetUser is used by tests and by AuthMiddleware.
func SetUser(c *gin.Context, user *models.User) {
	c.Set(userKey, user)
}

func gate(rule func(c *gin.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := rule(c); err != nil {
			AbortWithPermissionError(c, err)
			return
		}
		c.Next()
	}
}

// AbortWithPermissionError answers 401 for anonymous callers and 403 for
// authenticated ones.
func AbortWithPermissionError(c *gin.Context, err error) {
	status := http.StatusForbidden
	if errors.Is(err, permission.ErrUnauthenticated) {
		status = http.StatusUnauthorized
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// RequireAuth rejects anonymous callers.
func RequireAuth() gin.HandlerFunc {
	return gate(func(c *gin.Context) error {
		return permission.Authenticated(CurrentUser(c))
	})
}

// RequireAdmin admits superusers and the admin role.
func RequireAdmin() gin.HandlerFunc {
	return gate(func(c *gin.Context) error {
		return permission.AdminOnly(CurrentUser(c))
	})
}

// AdminOrReadOnly lets safe methods through and requires an admin otherwise.
func AdminOrReadOnly() gin.HandlerFunc {
	return gate(func(c *gin.Context) error {
		return permission.AdminOrReadOnly(c.Request.Method, CurrentUser(c))
	})
}

// AuthorOrModeration is the collection-level gate for reviews and comments.
// Object-level checks happen in the services once the row is loaded.
func AuthorOrModeration() gin.HandlerFunc {
	return gate(func(c *gin.Context) error {
		return permission.AuthorOrModerationRequest(c.Request.Method, CurrentUser(c))
	})
}
