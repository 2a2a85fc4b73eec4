package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/bagswap/internal/utils"
)

// AdminKeyHeader carries the admin secret.
const AdminKeyHeader = "x-admin-key"

// AdminKeyMiddleware admits requests whose x-admin-key matches the configured secret.
// keyHash is a bcrypt hash; when empty the plain key is compared instead. With neither
// configured every request is rejected.
func AdminKeyMiddleware(plainKey, keyHash string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if plainKey == "" && keyHash == "" {
			return fiber.NewError(fiber.StatusServiceUnavailable, "admin access is not configured")
		}

		candidate := c.Get(AdminKeyHeader)
		if candidate == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing admin key")
		}

		ok := false
		if keyHash != "" {
			ok = utils.CheckSecret(keyHash, candidate)
		} else {
			ok = utils.EqualSecrets(plainKey, candidate)
		}
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid admin key")
		}

		return c.Next()
	}
}
