package auth

import (
	"github.com/gofiber/fiber/v2"
)

const localsUserID = "user_id"

// Middleware authenticates the request and stores the user id in locals.
// Downstream code trusts this identity without re-validating.
func Middleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := ParseBearerToken(c.Get("Authorization"))
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing authorization"})
		}
		claims, err := ParseAndValidateToken(secret, token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token"})
		}
		c.Locals(localsUserID, claims.UserID)
		return c.Next()
	}
}

// UserID returns the authenticated user id set by Middleware.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(localsUserID).(string)
	return id
}
