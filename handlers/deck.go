package handlers

import (
	"commander-league-system/middleware"
	"commander-league-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupDeckRoutes(app *fiber.App, deckService *services.DeckService) {
	secured := app.Group("/", middleware.JWTAuthMiddleware())

	secured.Post("/decks", deckService.CreateDeck)
	secured.Get("/decks", deckService.GetUserDecks)
	secured.Get("/decks/:id", deckService.GetDeckDetails)
	secured.Get("/decks/:id/history", deckService.GetDeckHistory)

	secured.Post("/decks/:id/versions", deckService.CreateDeckVersion)
	secured.Get("/decks/:id/versions", deckService.GetDeckVersions)
	secured.Get("/decks/:id/versions/:version_id", deckService.GetDeckVersion)
}
