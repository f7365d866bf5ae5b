package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Domenick1991/skybook/internal/domain"
	"github.com/gin-gonic/gin"
)

const (
	actorKey = "skybook.actor"
	userKey  = "skybook.user"
)

type TokenResolver interface {
	ResolveToken(ctx context.Context, token string) (*domain.User, error)
}

// Authenticate requires a valid bearer token and stores the caller on the
// gin context for ActorFrom and UserFrom.
func Authenticate(resolver TokenResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		token = strings.TrimSpace(token)
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header missing or invalid"})
			return
		}

		user, err := resolver.ResolveToken(c.Request.Context(), token)
		if err != nil {
			if domain.Kind(err) != domain.ErrUnauthenticated {
				// The token may be fine; the user store could not be reached.
				_ = c.Error(err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(userKey, user)
		c.Set(actorKey, domain.Actor{UserID: user.ID, Role: user.Role})
		c.Next()
	}
}

// RequireAdmin must run after Authenticate.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok || !actor.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		c.Next()
	}
}

func ActorFrom(c *gin.Context) (domain.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return domain.Actor{}, false
	}
	actor, ok := v.(domain.Actor)
	return actor, ok
}

func UserFrom(c *gin.Context) *domain.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	user, _ := v.(*domain.User)
	return user
}

// SetActor is used by tests and internal callers that authenticate by other means.
func SetActor(c *gin.Context, actor domain.Actor) {
	c.Set(actorKey, actor)
}
