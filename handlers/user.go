package handlers

import (
	"commander-league-system/middleware"
	"commander-league-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupUserRoutes(app *fiber.App, userService *services.UserService, profileService *services.ProfileService) {
	secured := app.Group("/", middleware.JWTAuthMiddleware())

	secured.Get("/users", userService.GetUsers)
	secured.Get("/users/:id", userService.GetUserProfile)
	secured.Get("/users/:id/decks", userService.GetSpecificUserDecks)

	secured.Get("/profile", profileService.GetMyProfile)
	secured.Patch("/profile", profileService.UpdateMyProfile)
	secured.Post("/profile/avatar", profileService.UploadAvatar)
}
