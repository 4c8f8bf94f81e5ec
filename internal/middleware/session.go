package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/exam-records-api/internal/models"
	"github.com/noah-isme/exam-records-api/pkg/logger"
	"github.com/noah-isme/exam-records-api/pkg/response"
)

// Context keys set by Session.
const (
	ContextActorKey = "actor"
	ContextTokenKey = "session_token"
)

type actorResolver interface {
	Resolve(ctx context.Context, token string) (models.Actor, error)
}

// Session resolves the acting teacher for every request. Requests without a
// valid session continue as anonymous; only storage failures abort.
func Session(resolver actorResolver, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := TokenFromRequest(c, cookieName)
		actor, err := resolver.Resolve(c.Request.Context(), token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextActorKey, actor)
		c.Set(ContextTokenKey, token)
		if actor.Authenticated() {
			c.Set(logger.ActorKey, actor.Teacher.ID)
		}
		c.Next()
	}
}

// TokenFromRequest reads the session token from the Authorization header,
// falling back to the session cookie.
func TokenFromRequest(c *gin.Context, cookieName string) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if cookieName == "" {
		return ""
	}
	token, err := c.Cookie(cookieName)
	if err != nil {
		return ""
	}
	return token
}

// ActorFrom returns the actor resolved for the request, or an anonymous actor.
func ActorFrom(c *gin.Context) models.Actor {
	value, exists := c.Get(ContextActorKey)
	if !exists {
		return models.Anonymous()
	}
	actor, ok := value.(models.Actor)
	if !ok {
		return models.Anonymous()
	}
	return actor
}

// TokenFrom returns the raw session token of the request.
func TokenFrom(c *gin.Context) string {
	return c.GetString(ContextTokenKey)
}
