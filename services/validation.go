// services/validation.go
//
// Lifecycle validation helpers shared by the game, match, and admin
// endpoints. Each returns an empty string when the precondition holds, or a
// user-facing message for a 400 response.
package services

import (
	"fmt"

	"commander-league-system/models"

	"gorm.io/gorm"
)

func validateGameStatus(game *models.Game, expected models.GameStatus) string {
	if game.Status != expected {
		return fmt.Sprintf("Game must be %s", expected)
	}
	return ""
}

func validateMatchStatus(match *models.Match, expected models.MatchStatus) string {
	if match.Status != expected {
		return fmt.Sprintf("Match must be %s", expected)
	}
	return ""
}

func validateGameRegistrations(db *gorm.DB, gameID uint, requiredCount int64) (string, error) {
	var count int64
	if err := db.Model(&models.GameRegistration{}).Where("game_id = ?", gameID).Count(&count).Error; err != nil {
		return "", err
	}
	if count < requiredCount {
		return fmt.Sprintf("Game must have at least %d registered players", requiredCount), nil
	}
	return "", nil
}
