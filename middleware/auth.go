package middleware

import (
	"errors"
	"net/http"
	"strings"

	"hotel-booking-engine/services"
	"hotel-booking-engine/utils"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const actorContextKey = "actor"

// Claims is the access token payload: the subject is the account UUID.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

var errBadSubject = errors.New("token subject is not a UUID")

func ParseToken(secret, raw string) (services.Actor, error) {
	tok, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return services.Actor{}, err
	}
	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return services.Actor{}, jwt.ErrTokenInvalidClaims
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil || id == uuid.Nil {
		return services.Actor{}, errBadSubject
	}
	return services.Actor{UserID: id, Role: claims.Role}, nil
}

// Auth validates the Bearer token and attaches the caller to both the gin
// context and the request context.
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			utils.JSONError(c, http.StatusUnauthorized, "error.unauthenticated", "missing bearer token", nil)
			return
		}
		actor, err := ParseToken(secret, strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")))
		if err != nil {
			utils.JSONError(c, http.StatusUnauthorized, "error.unauthenticated", "invalid token", nil)
			return
		}

		c.Set(actorContextKey, actor)
		c.Request = c.Request.WithContext(services.WithActor(c.Request.Context(), actor))
		c.Next()
	}
}

// RequireRole rejects callers whose token carries a different role.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			utils.JSONError(c, http.StatusUnauthorized, "error.unauthenticated", "authentication required", nil)
			return
		}
		if actor.Role != role {
			utils.JSONError(c, http.StatusForbidden, "error.forbidden", "insufficient role", nil)
			return
		}
		c.Next()
	}
}

func ActorFrom(c *gin.Context) (services.Actor, bool) {
	v, ok := c.Get(actorContextKey)
	if !ok {
		return services.ActorFromContext(c.Request.Context())
	}
	actor, ok := v.(services.Actor)
	return actor, ok
}
