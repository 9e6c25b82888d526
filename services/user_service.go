package services

import (
	"errors"
	"log"
	"time"

	"commander-league-system/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type UserService struct {
	DB *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{DB: db}
}

// GetUsers lists all players with their approved win counts. A win is a
// first-place finish in an approved match.
func (s *UserService) GetUsers(c *fiber.Ctx) error {
	var users []models.User
	if err := s.DB.Order("username").Find(&users).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch users"})
	}

	type winRow struct {
		UserID uint
		Wins   int
	}
	var winRows []winRow
	err := s.DB.Model(&models.MatchPlayer{}).
		Select("match_players.user_id AS user_id, COUNT(*) AS wins").
		Joins("JOIN matches ON matches.id = match_players.match_id").
		Where("match_players.placement = 1 AND matches.status = ?", models.MatchStatusApproved).
		Group("match_players.user_id").
		Scan(&winRows).Error
	if err != nil {
		log.Printf("Error counting wins: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch users"})
	}
	wins := make(map[uint]int, len(winRows))
	for _, r := range winRows {
		wins[r.UserID] = r.Wins
	}

	out := make([]fiber.Map, 0, len(users))
	for i := range users {
		u := &users[i]
		out = append(out, fiber.Map{
			"id":         u.ID,
			"username":   u.Username,
			"avatar_url": u.AvatarURL,
			"wins":       wins[u.ID],
		})
	}
	return c.JSON(out)
}

// GetUserProfile returns a user's public profile.
func (s *UserService) GetUserProfile(c *fiber.Ctx) error {
	var user models.User
	if err := s.DB.First(&user, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error"})
	}

	body := fiber.Map{
		"id":               user.ID,
		"username":         user.Username,
		"avatar_url":       user.AvatarURL,
		"favorite_color":   user.FavoriteColor,
		"retirement_plane": user.RetirementPlane,
		"member_since":     user.RegisteredOn.UTC().Format(time.RFC3339),
	}
	return c.JSON(body)
}

// GetSpecificUserDecks lists another user's decks.
func (s *UserService) GetSpecificUserDecks(c *fiber.Ctx) error {
	var user models.User
	if err := s.DB.First(&user, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error"})
	}

	var decks []models.Deck
	if err := s.DB.Where("user_id = ?", user.ID).
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
