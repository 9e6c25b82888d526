package handlers

import (
	"commander-league-system/middleware"
	"commander-league-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupGameRoutes(app *fiber.App, gameService *services.GameService, matchService *services.MatchService) {
	secured := app.Group("/", middleware.JWTAuthMiddleware())

	secured.Get("/games", gameService.GetGames)
	secured.Post("/games", gameService.CreateGame)
	secured.Patch("/games/:id", gameService.UpdateGameStatus)

	secured.Post("/games/:id/registrations", gameService.RegisterForGame)
	secured.Delete("/games/:id/registrations", gameService.UnregisterFromGame)
	secured.Get("/games/:id/registrations", gameService.GetGameRegistrations)

	secured.Post("/matches", matchService.SubmitMatch)
	secured.Get("/matches", matchService.GetMatches)
	secured.Get("/matches/:id", matchService.GetMatchDetails)
	secured.Patch("/matches/:id/approve", matchService.ApproveMatch)
	secured.Patch("/matches/:id/reject", matchService.RejectMatch)
}
