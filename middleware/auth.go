// middleware/auth.go
package middleware

import (
	"strings"

	"commander-league-system/utils"

	"github.com/gofiber/fiber/v2"
)

// JWTAuthMiddleware validates the Bearer access token and attaches the
// caller's identity to the request context. Handlers read it via
// c.Locals("user_id") / c.Locals("is_admin").
func JWTAuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := parseBearer(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
		}
		if claims.IsRefresh {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "refresh token not valid here"})
		}
		c.Locals("user_id", claims.UserID)
		c.Locals("is_admin", claims.IsAdmin)
		return c.Next()
	}
}

// RefreshAuthMiddleware accepts only refresh tokens; used by the token
// refresh endpoint.
func RefreshAuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := parseBearer(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
		}
		if !claims.IsRefresh {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "refresh token required"})
		}
		c.Locals("user_id", claims.UserID)
		return c.Next()
	}
}

func parseBearer(c *fiber.Ctx) (*utils.AuthClaims, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "missing Authorization header")
	}
	raw := strings.TrimPrefix(authHeader, "Bearer ")
	if raw == authHeader {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "malformed Authorization header")
	}
	claims, err := utils.ParseToken(raw)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
	}
	return claims, nil
}

// UserID returns the authenticated caller's id set by JWTAuthMiddleware.
func UserID(c *fiber.Ctx) uint {
	id, _ := c.Locals("user_id").(uint)
	return id
}
