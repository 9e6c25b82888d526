package handlers

import (
	"commander-league-system/middleware"
	"commander-league-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupAuthRoutes(app *fiber.App, authService *services.AuthService) {
	app.Post("/register", authService.Register)
	app.Post("/login", authService.Login)

	// Refresh accepts only refresh tokens; everything else only access tokens.
	app.Post("/refresh", middleware.RefreshAuthMiddleware(), authService.Refresh)

	secured := app.Group("/", middleware.JWTAuthMiddleware())
	secured.Post("/change-password", authService.ChangePassword)
	secured.Get("/check-auth", authService.CheckAuth)
}
