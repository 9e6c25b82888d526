// middleware/admin.go
package middleware

import (
	"errors"

	"commander-league-system/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// AdminRequiredMiddleware gates admin-only routes. The admin flag is resolved
// from the database rather than trusted from the token, so revoking admin
// takes effect immediately.
func AdminRequiredMiddleware(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := UserID(c)
		var user models.User
		if err := db.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Admin access required"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error"})
		}
		if !user.IsAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Admin access required"})
		}
		c.Locals("is_admin", true)
		return c.Next()
	}
}
