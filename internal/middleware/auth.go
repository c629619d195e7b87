package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/pulse-api/internal/model"
	"github.com/jwalitptl/pulse-api/pkg/httputil"
)

const ContextActor = "actor"

// Authenticator resolves a bearer token to the account behind it.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.Actor, error)
}

type AuthMiddleware struct {
	authService Authenticator
}

func NewAuthMiddleware(authService Authenticator) *AuthMiddleware {
	return &AuthMiddleware{authService: authService}
}

// Authenticate verifies the bearer token and stores the actor in the context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			httputil.AbortWithError(c, http.StatusUnauthorized, "missing authorization header")
			return
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			httputil.AbortWithError(c, http.StatusUnauthorized, "invalid authorization format")
			return
		}

		actor, err := m.authService.Authenticate(c.Request.Context(), parts[1])
		if err != nil {
			httputil.AbortWithError(c, http.StatusUnauthorized, "invalid token")
			return
		}

		c.Set(ContextActor, actor)
		c.Next()
	}
}

// RequireRole rejects actors whose role is not in roles. It must run after
// Authenticate.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := CurrentActor(c)
		if !ok {
			httputil.AbortWithError(c, http.StatusUnauthorized, "unauthorized")
			return
		}
		for _, role := range roles {
			if actor.Role == role {
				c.Next()
				return
			}
		}
		httputil.AbortWithError(c, http.StatusForbidden, "permission denied")
	}
}

// CurrentActor returns the authenticated actor set by Authenticate.
func CurrentActor(c *gin.Context) (*model.Actor, bool) {
	v, ok := c.Get(ContextActor)
	if !ok {
		return nil, false
	}
	actor, ok := v.(*model.Actor)
	return actor, ok && actor != nil
}
