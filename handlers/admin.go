package handlers

import (
	"commander-league-system/middleware"
	"commander-league-system/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupAdminRoutes(app *fiber.App, db *gorm.DB, adminService *services.AdminService) {
	// /admin/check is token-gated only; the rest require the admin flag,
	// resolved from the database rather than the token.
	authed := app.Group("/admin", middleware.JWTAuthMiddleware())
	authed.Get("/check", adminService.CheckAdmin)

	admin := authed.Group("/", middleware.AdminRequiredMiddleware(db))
	admin.Get("/users", adminService.ListUsers)
	admin.Post("/users/:id/reset-password", adminService.ResetUserPassword)
	admin.Post("/users/:id/make-admin", adminService.ToggleAdmin)

	admin.Get("/games/deleted", adminService.ListDeletedGames)
	admin.Delete("/games/:id", adminService.DeleteGame)
	admin.Post("/games/:id/restore", adminService.RestoreGame)
	admin.Get("/games/:id/audit-log", adminService.GetGameAuditLog)
}
