package services

import (
	"errors"
	"log"
	"time"

	"commander-league-system/middleware"
	"commander-league-system/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type GameService struct {
	DB *gorm.DB
}

func NewGameService(db *gorm.DB) *GameService {
	return &GameService{DB: db}
}

const gameDateLayout = "2006-01-02"

// CreateGame manually creates a new Game record in Upcoming status.
func (s *GameService) CreateGame(c *fiber.Ctx) error {
	var req struct {
		GameDate string `json:"game_date"`
		IsPauper bool   `json:"is_pauper"`
		Details  string `json:"details"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No input data provided"})
	}
	if req.GameDate == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing required field: game_date"})
	}
	gameDate, err := time.ParseInLocation(gameDateLayout, req.GameDate, time.UTC)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid game_date format. Use YYYY-MM-DD."})
	}

	// One non-deleted game per date. Soft-deleted rows are excluded by the
	// default GORM scope, so a deleted game frees its date.
	var existing models.Game
	err = s.DB.Where("game_date = ?", gameDate).First(&existing).Error
	if err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "A game for " + req.GameDate + " already exists."})
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("Error checking for duplicate game date: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Game creation failed"})
	}

	game := models.Game{
		GameDate: gameDate,
		Status:   models.GameStatusUpcoming,
		IsPauper: req.IsPauper,
		Details:  req.Details,
	}
	if err := s.DB.Create(&game).Error; err != nil {
		log.Printf("Error creating game: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Game creation failed"})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Game created successfully",
		"game":    gameBody(&game),
	})
}

func gameBody(g *models.Game) fiber.Map {
	return fiber.Map{
		"id":        g.ID,
		"game_date": g.GameDate.Format(gameDateLayout),
		"status":    g.Status,
		"is_pauper": g.IsPauper,
		"details":   g.Details,
	}
}

// GameSummary is the list-view projection of a game.
type GameSummary struct {
	ID                uint                `json:"id"`
	GameDate          string              `json:"game_date"`
	Status            models.GameStatus   `json:"status"`
	IsPauper          bool                `json:"is_pauper"`
	Details           string              `json:"details"`
	MatchID           *uint               `json:"match_id"`
	MatchStatus       *models.MatchStatus `json:"match_status"`
	SubmittedByID     *uint               `json:"submitted_by_id"`
	RegistrationCount int64               `json:"registration_count"`
	WinnerID          *uint               `json:"winner_id"`
	WinnerUsername    *string             `json:"winner_username"`
}

// GetGames lists games newest-first, optionally filtered by status, with
// registration counts and the winner for approved completed games.
func (s *GameService) GetGames(c *fiber.Ctx) error {
	query := s.DB.Model(&models.Game{})
	if statusFilter := c.Query("status"); statusFilter != "" {
		if !models.ValidGameStatus(statusFilter) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid status filter: " + statusFilter})
		}
		query = query.Where("status = ?", statusFilter)
	}

	var games []models.Game
	if err := query.Order("game_date DESC").Find(&games).Error; err != nil {
		log.Printf("Error fetching games: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch games"})
	}

	// Registration counts in one pass.
	type regCount struct {
		GameID uint
		N      int64
	}
	var counts []regCount
	if err := s.DB.Model(&models.GameRegistration{}).
		Select("game_id, COUNT(*) AS n").
		Group("game_id").
		Scan(&counts).Error; err != nil {
		log.Printf("Error counting registrations: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch games"})
	}
	countByGame := make(map[uint]int64, len(counts))
	for _, rc := range counts {
		countByGame[rc.GameID] = rc.N
	}

	summaries := make([]GameSummary, 0, len(games))
	for i := range games {
		g := &games[i]
		summary := GameSummary{
			ID:                g.ID,
			GameDate:          g.GameDate.Format(gameDateLayout),
			Status:            g.Status,
			IsPauper:          g.IsPauper,
			Details:           g.Details,
			RegistrationCount: countByGame[g.ID],
		}

		var match models.Match
		if err := s.DB.Where("game_id = ?", g.ID).Order("created_at ASC").First(&match).Error; err == nil {
			summary.MatchID = &match.ID
			summary.MatchStatus = &match.Status
			summary.SubmittedByID = &match.SubmittedByID

			if g.Status == models.GameStatusCompleted && match.Status == models.MatchStatusApproved {
				var winner models.MatchPlayer
				if err := s.DB.Preload("User").
					Where("match_id = ? AND placement = ?", match.ID, 1).
					First(&winner).Error; err == nil {
					summary.WinnerID = &winner.UserID
					summary.WinnerUsername = &winner.User.Username
				}
			}
		}
		summaries = append(summaries, summary)
	}
	return c.JSON(summaries)
}

// UpdateGameStatus handles direct status edits (Upcoming ↔ Cancelled in
// practice). Completed and Cancelled are terminal here; Completed is reached
// through match submission instead.
func (s *GameService) UpdateGameStatus(c *fiber.Ctx) error {
	var game models.Game
	if err := s.DB.First(&game, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Game not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error"})
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil || req.Status == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing 'status' in request body"})
	}
	if !models.ValidGameStatus(req.Status) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid status: " + req.Status})
	}
	target := models.GameStatus(req.Status)
	if !game.Status.CanTransitionTo(target) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot change status of " + string(game.Status) + " game."})
	}

	game.Status = target
	if err := s.DB.Save(&game).Error; err != nil {
		log.Printf("Error updating game status: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Status update failed"})
	}
	return c.JSON(fiber.Map{"message": "Game status updated", "game": gameBody(&game)})
}

// RegisterForGame registers the caller's deck for an upcoming game.
func (s *GameService) RegisterForGame(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	var req struct {
		DeckID        uint  `json:"deck_id"`
		DeckVersionID *uint `json:"deck_version_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No input data provided"})
	}
	if req.DeckID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing deck_id"})
	}

	var game models.Game
	if err := s.DB.First(&game, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Game not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error"})
	}
	if msg := validateGameStatus(&game, models.GameStatusUpcoming); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Can only register for upcoming games"})
	}

	var user models.User
	var deck models.Deck
	if err := s.DB.First(&user, userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User or Deck not found"})
	}
	if err := s.DB.First(&deck, req.DeckID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User or Deck not found"})
	}
	if deck.UserID != user.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Deck does not belong to the user"})
	}

	var existing models.GameRegistration
	if err := s.DB.Where("game_id = ? AND user_id = ?", game.ID, userID).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "User already registered"})
	}

	// Freeze the deck's current version unless one was picked explicitly.
	deckVersionID := req.DeckVersionID
	if deckVersionID == nil && deck.CurrentVersionID != nil {
		deckVersionID = deck.CurrentVersionID
	}

	registration := models.GameRegistration{
		GameID:        game.ID,
		UserID:        userID,
		DeckID:        deck.ID,
		DeckVersionID: deckVersionID,
	}
	if err := s.DB.Create(&registration).Error; err != nil {
		log.Printf("Error registering: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Registration failed"})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Successfully registered for game"})
}

// GetGameRegistrations returns the players and decks registered for a game.
func (s *GameService) GetGameRegistrations(c *fiber.Ctx) error {
	var game models.Game
	if err := s.DB.First(&game, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Game not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error"})
	}

	var registrations []models.GameRegistration
	if err := s.DB.Preload("User").Preload("Deck").Preload("DeckVersion").
		Where("game_id = ?", game.ID).Find(&registrations).Error; err != nil {
		log.Printf("Error fetching registrations for game %d: %v", game.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch registrations"})
	}

	out := make([]fiber.Map, 0, len(registrations))
	for i := range registrations {
		reg := &registrations[i]
		entry := fiber.Map{
			"registration_id": reg.ID,
			"user_id":         reg.UserID,
			"username":        reg.User.Username,
			"deck_id":         reg.DeckID,
			"deck_name":       reg.Deck.Name,
			"commander":       reg.Deck.Commander,
			"colors":          reg.Deck.Colors,
			"deck_version_id": reg.DeckVersionID,
		}
		if reg.DeckVersion != nil {
			entry["version_number"] = reg.DeckVersion.VersionNumber
			entry["version_notes"] = reg.DeckVersion.Notes
		}
		out = append(out, entry)
	}
	return c.JSON(out)
}

// UnregisterFromGame removes the caller's registration from an upcoming game.
func (s *GameService) UnregisterFromGame(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	var game models.Game
	if err := s.DB.First(&game, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Game not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error"})
	}
	if msg := validateGameStatus(&game, models.GameStatusUpcoming); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Can only unregister from upcoming games"})
	}

	var registration models.GameRegistration
	if err := s.DB.Where("game_id = ? AND user_id = ?", game.ID, userID).First(&registration).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User is not registered for this game"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error"})
	}

	if err := s.DB.Delete(&registration).Error; err != nil {
		log.Printf("Error unregistering user %d from game %d: %v", userID, game.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Unregistration failed"})
	}
	return c.JSON(fiber.Map{"message": "Successfully unregistered from game"})
}
