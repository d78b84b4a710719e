package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Locals keys for the authenticated identity, set by Middleware.
const (
	UserIDKey   = "user_id"
	UserNameKey = "user_name"
	RolesKey    = "roles"
)

// Middleware validates the bearer token on protected routes and injects
// the caller's identity into the request locals for downstream handlers.
func Middleware(tokens *TokenManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "authorization token is missing")
		}

		tokenStr := strings.TrimPrefix(header, "Bearer ")
		claims, err := tokens.Validate(tokenStr)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
		}

		c.Locals(UserIDKey, claims.UserID)
		c.Locals(UserNameKey, claims.UserName)
		c.Locals(RolesKey, claims.Roles)
		return c.Next()
	}
}
