package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/bagswap/internal/utils"
)

const userContextKey = "currentUserID"

// AuthMiddleware validates session tokens and loads the authenticated user ID into context.
func AuthMiddleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := bearerToken(c)
		if err != nil {
			return err
		}

		userID, err := utils.ParseToken(secret, token)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		c.Locals(userContextKey, userID)
		return c.Next()
	}
}

// OptionalAuth loads the user ID when a valid token is present and continues otherwise.
func OptionalAuth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token, err := bearerToken(c); err == nil {
			if userID, err := utils.ParseToken(secret, token); err == nil {
				c.Locals(userContextKey, userID)
			}
		}
		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}

// GetCurrentUserID extracts the authenticated user ID from context.
func GetCurrentUserID(c *fiber.Ctx) (uuid.UUID, bool) {
	value := c.Locals(userContextKey)
	if value == nil {
		return uuid.Nil, false
	}

	if id, ok := value.(uuid.UUID); ok {
		return id, true
	}

	return uuid.Nil, false
}

// ResolveActor returns the authenticated user, rejecting a claimed userId that belongs to
// someone else. An empty claim means the caller acts as themselves.
func ResolveActor(c *fiber.Ctx, claimed string) (uuid.UUID, error) {
	userID, ok := GetCurrentUserID(c)
	if !ok {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	if claimed == "" {
		return userID, nil
	}

	claimedID, err := uuid.Parse(claimed)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid userId")
	}
	if claimedID != userID {
		return uuid.Nil, fiber.NewError(fiber.StatusForbidden, "userId does not match the authenticated user")
	}
	return userID, nil
}
