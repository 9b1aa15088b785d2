package middleware

import (
	"strings"

	"github.com/arzan03/storefront/internal/apperror"
	"github.com/arzan03/storefront/internal/services"
	"github.com/gofiber/fiber/v2"
)

const actorKey = "actor"

type TokenParser interface {
	Parse(token string) (services.Actor, error)
}

// Auth validates bearer tokens and stores the caller in c.Locals.
type Auth struct {
	tokens TokenParser
}

func NewAuth(tokens TokenParser) *Auth {
	return &Auth{tokens: tokens}
}

// RequireUser rejects requests without a valid bearer token.
func (a *Auth) RequireUser(c *fiber.Ctx) error {
	actor, err := a.authenticate(c)
	if err != nil {
		return err
	}
	c.Locals(actorKey, actor)
	return c.Next()
}

// Optional attaches the caller when a valid token is present and otherwise
// lets the request through anonymously.
func (a *Auth) Optional(c *fiber.Ctx) error {
	if bearerToken(c) != "" {
		if actor, err := a.authenticate(c); err == nil {
			c.Locals(actorKey, actor)
		}
	}
	return c.Next()
}

func (a *Auth) authenticate(c *fiber.Ctx) (services.Actor, error) {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return services.Actor{}, apperror.Unauthorized("missing token")
	}
	token := bearerToken(c)
	if token == "" {
		return services.Actor{}, apperror.Unauthorized("invalid token format")
	}
	return a.tokens.Parse(token)
}

func bearerToken(c *fiber.Ctx) string {
	header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

// ActorFrom returns the caller stored by RequireUser or Optional.
func ActorFrom(c *fiber.Ctx) (services.Actor, bool) {
	actor, ok := c.Locals(actorKey).(services.Actor)
	return actor, ok
}
