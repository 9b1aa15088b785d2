package middleware

import (
	"crypto/subtle"

	"github.com/arzan03/storefront/internal/apperror"
	"github.com/gofiber/fiber/v2"
)

// AdminSetupHeader lets the very first admin be promoted before any admin exists.
const AdminSetupHeader = "X-Admin-Setup-Key"

// RequireAdmin must run after RequireUser.
func RequireAdmin(c *fiber.Ctx) error {
	actor, ok := ActorFrom(c)
	if !ok {
		return apperror.Unauthorized("missing token")
	}
	if !actor.IsAdmin() {
		return apperror.Forbidden("access denied, admins only")
	}
	return c.Next()
}

// AdminOrSetupKey accepts either an admin token or the configured setup key.
func (a *Auth) AdminOrSetupKey(setupKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if key := c.Get(AdminSetupHeader); key != "" && setupKey != "" &&
			subtle.ConstantTimeCompare([]byte(key), []byte(setupKey)) == 1 {
			return c.Next()
		}

		actor, err := a.authenticate(c)
		if err != nil {
			return err
		}
		if !actor.IsAdmin() {
			return apperror.Forbidden("access denied, admins only")
		}
		c.Locals(actorKey, actor)
		return c.Next()
	}
}
