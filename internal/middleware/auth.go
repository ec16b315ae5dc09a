package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pledge-points-api/internal/models"
	appErrors "github.com/noah-isme/pledge-points-api/pkg/errors"
	"github.com/noah-isme/pledge-points-api/pkg/response"
)

// ContextActorKey is the gin context key storing the platform actor.
const ContextActorKey = "currentActor"

type tokenValidator interface {
	ValidateToken(token string) (*models.PlatformClaims, error)
}

// PlatformAuth requires a bearer token minted by the chat platform adapter and stores the
// resulting actor on the context.
func PlatformAuth(auth tokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		claims, err := auth.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextActorKey, claims.Actor())
		c.Next()
	}
}

// ActorFrom returns the actor stored by PlatformAuth, or nil.
func ActorFrom(c *gin.Context) *models.Actor {
	value, exists := c.Get(ContextActorKey)
	if !exists {
		return nil
	}
	actor, _ := value.(*models.Actor)
	return actor
}
