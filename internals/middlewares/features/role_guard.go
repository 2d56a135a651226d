package middleware

import (
	"github.com/gofiber/fiber/v2"

	helperAuth "studioku_backend/internals/helpers/auth"
)

// IsStaff allows admin and instructor accounts.
func IsStaff() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !helperAuth.IsStaff(c) {
			return fiber.NewError(fiber.StatusForbidden, "only studio staff can access this resource")
		}
		return c.Next()
	}
}

// IsAdmin allows admin accounts only.
func IsAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !helperAuth.IsAdmin(c) {
			return fiber.NewError(fiber.StatusForbidden, "only admins can access this resource")
		}
		return c.Next()
	}
}

// IsClient requires an account linked to a client profile.
func IsClient() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := helperAuth.GetClientID(c); err != nil {
			return err
		}
		return c.Next()
	}
}
