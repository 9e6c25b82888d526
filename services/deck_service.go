package services

import (
	"errors"
	"log"
	"strings"
	"time"

	"commander-league-system/middleware"
	"commander-league-system/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type DeckService struct {
	DB *gorm.DB
}

func NewDeckService(db *gorm.DB) *DeckService {
	return &DeckService{DB: db}
}

func deckSummary(d *models.Deck) fiber.Map {
	return fiber.Map{
		"id":                 d.ID,
		"name":               d.Name,
		"commander":          d.Commander,
		"colors":             d.Colors,
		"current_version_id": d.CurrentVersionID,
		"last_updated":       d.LastUpdated.UTC().Format(time.RFC3339),
	}
}

// CreateDeck creates a deck together with its first version. The deck row,
// version 1 and the current-version pointer commit atomically.
func (s *DeckService) CreateDeck(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	var req struct {
		Name         string `json:"name"`
		Commander    string `json:"commander"`
		Colors       string `json:"colors"`
		DecklistText string `json:"decklist_text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Commander = strings.TrimSpace(req.Commander)
	if req.Name == "" || req.Commander == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Name and commander are required"})
	}

	deck := models.Deck{
		UserID:       userID,
		Name:         req.Name,
		Commander:    req.Commander,
		Colors:       req.Colors,
		DecklistText: req.DecklistText,
	}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&deck).Error; err != nil {
			return err
		}
		version := models.DeckVersion{
			DeckID:        deck.ID,
			VersionNumber: 1,
			DecklistText:  req.DecklistText,
			Notes:         "Initial version",
		}
		if err := tx.Create(&version).Error; err != nil {
			return err
		}
		deck.CurrentVersionID = &version.ID
		return tx.Model(&deck).Update("current_version_id", version.ID).Error
	})
	if err != nil {
		log.Printf("Error creating deck for user %d: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create deck"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Deck created successfully",
		"deck":    deckSummary(&deck),
	})
}

// GetUserDecks lists the caller's decks.
func (s *DeckService) GetUserDecks(c *fiber.Ctx) error {
	var decks []models.Deck
	if err := s.DB.Where("user_id = ?", middleware.UserID(c)).
		Order("last_updated DESC").
		Find(&decks).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch decks"})
	}
	out := make([]fiber.Map, 0, len(decks))
	for i := range decks {
		out = append(out, deckSummary(&decks[i]))
	}
	return c.JSON(out)
}

// currentDecklist resolves a deck's decklist text, preferring the current
// version over the legacy column on the deck row.
func (s *DeckService) currentDecklist(deck *models.Deck) (string, error) {
	if deck.CurrentVersionID == nil {
		return deck.DecklistText, nil
	}
	var version models.DeckVersion
	if err := s.DB.First(&version, *deck.CurrentVersionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return deck.DecklistText, nil
		}
		return "", err
	}
	return version.DecklistText, nil
}

// GetDeckDetails returns a single deck with its current decklist.
func (s *DeckService) GetDeckDetails(c *fiber.Ctx) error {
	var deck models.Deck
	if err := s.DB.Preload("User").First(&deck, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Deck not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error"})
	}

	decklist, err := s.currentDecklist(&deck)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch deck"})
	}

	body := deckSummary(&deck)
	body["decklist_text"] = decklist
	body["owner"] = fiber.Map{"id": deck.UserID, "username": deck.User.Username}
	return c.JSON(body)
}

// CreateDeckVersion appends a new version for a deck the caller owns.
// Version numbers are contiguous from 1; the pointer always moves to the
// newest version.
func (s *DeckService) CreateDeckVersion(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	var deck models.Deck
	if err := s.DB.First(&deck, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Deck not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error"})
	}
	if deck.UserID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Deck does not belong to the user"})
	}

	var req struct {
		DecklistText string `json:"decklist_text"`
		Notes        string `json:"notes"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.DecklistText == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing 'decklist_text'"})
	}

	var version models.DeckVersion
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var maxVersion int
		if err := tx.Model(&models.DeckVersion{}).
			Where("deck_id = ?", deck.ID).
			Select("COALESCE(MAX(version_number), 0)").
			Scan(&maxVersion).Error; err != nil {
			return err
		}
		version = models.DeckVersion{
			DeckID:        deck.ID,
			VersionNumber: maxVersion + 1,
			DecklistText:  req.DecklistText,
			Notes:         req.Notes,
		}
		if err := tx.Create(&version).Error; err != nil {
			return err
		}
		return tx.Model(&deck).Update("current_version_id", version.ID).Error
	})
	if err != nil {
		log.Printf("Error creating version for deck %d: %v", deck.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create deck version"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":        "Deck version created successfully",
		"version_id":     version.ID,
		"version_number": version.VersionNumber,
	})
}

func versionBody(v *models.DeckVersion) fiber.Map {
	return fiber.Map{
		"id":             v.ID,
		"deck_id":        v.DeckID,
		"version_number": v.VersionNumber,
		"decklist_text":  v.DecklistText,
		"notes":          v.Notes,
		"created_at":     v.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// GetDeckVersions lists a deck's versions, newest first.
func (s *DeckService) GetDeckVersions(c *fiber.Ctx) error {
	var deck models.Deck
	if err := s.DB.First(&deck, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Deck not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error"})
	}

	var versions []models.DeckVersion
	if err := s.DB.Where("deck_id = ?", deck.ID).
		Order("version_number DESC").
		Find(&versions).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch versions"})
	}

	out := make([]fiber.Map, 0, len(versions))
	for i := range versions {
		v := &versions[i]
		entry := versionBody(v)
		entry["is_current"] = deck.CurrentVersionID != nil && *deck.CurrentVersionID == v.ID
		out = append(out, entry)
	}
	return c.JSON(out)
}

// GetDeckVersion returns one version by its id. The lookup is scoped to the
// deck so a version cannot be read through another deck's URL.
func (s *DeckService) GetDeckVersion(c *fiber.Ctx) error {
	var deck models.Deck
	if err := s.DB.First(&deck, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Deck not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error"})
	}

	var version models.DeckVersion
	if err := s.DB.Where("deck_id = ? AND id = ?", deck.ID, c.Params("version_id")).
		First(&version).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Version not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error"})
	}
	return c.JSON(versionBody(&version))
}

// GetDeckHistory lists the games a deck was registered in, with the version
// played and the result when a match was recorded. Soft-deleted games are
// excluded.
func (s *DeckService) GetDeckHistory(c *fiber.Ctx) error {
	var deck models.Deck
	if err := s.DB.First(&deck, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Deck not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error"})
	}

	type historyRow struct {
		GameID        uint
		GameDate      time.Time
		GameStatus    string
		VersionNumber *int
		MatchID       *uint
		MatchStatus   *string
		Placement     *int
	}
	var rows []historyRow
	err := s.DB.Raw(`
		SELECT g.id AS game_id,
		       g.game_date AS game_date,
		       g.status AS game_status,
		       dv.version_number AS version_number,
		       m.id AS match_id,
		       m.status AS match_status,
		       mp.placement AS placement
		FROM game_registrations gr
		JOIN games g ON g.id = gr.game_id
		LEFT JOIN deck_versions dv ON dv.id = gr.deck_version_id
		LEFT JOIN matches m ON m.game_id = g.id
		LEFT JOIN match_players mp ON mp.match_id = m.id AND mp.deck_id = gr.deck_id
		WHERE gr.deck_id = ? AND g.deleted_at IS NULL
		ORDER BY g.game_date DESC`, deck.ID).Scan(&rows).Error
	if err != nil {
		log.Printf("Error fetching history for deck %d: %v", deck.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch deck history"})
	}

	out := make([]fiber.Map, 0, len(rows))
	for _, r := range rows {
		out = append(out, fiber.Map{
			"game_id":        r.GameID,
			"game_date":      r.GameDate.Format(gameDateLayout),
			"game_status":    r.GameStatus,
			"version_number": r.VersionNumber,
			"match_id":       r.MatchID,
			"match_status":   r.MatchStatus,
			"placement":      r.Placement,
		})
	}
	return c.JSON(out)
}
