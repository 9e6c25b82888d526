package services

import (
	"errors"
	"log"
	"time"

	"commander-league-system/middleware"
	"commander-league-system/models"
	"commander-league-system/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AdminService struct {
	DB *gorm.DB
}

func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{DB: db}
}

// CheckAdmin reports whether the caller is an admin. Unlike the gated admin
// routes this never 403s; the frontend uses it to decide what to render.
func (s *AdminService) CheckAdmin(c *fiber.Ctx) error {
	var user models.User
	err := s.DB.First(&user, middleware.UserID(c)).Error
	return c.JSON(fiber.Map{"is_admin": err == nil && user.IsAdmin})
}

// ListUsers returns every user with account status fields.
func (s *AdminService) ListUsers(c *fiber.Ctx) error {
	var users []models.User
	if err := s.DB.Order("username").Find(&users).Error; err != nil {
		log.Printf("Error listing users: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch users"})
	}
	out := make([]fiber.Map, 0, len(users))
	for i := range users {
		u := &users[i]
		entry := fiber.Map{
			"id":                   u.ID,
			"username":             u.Username,
			"email":                u.Email,
			"avatar_url":           u.AvatarURL,
			"must_change_password": u.MustChangePassword,
			"last_login":           nil,
			"is_admin":             u.IsAdmin,
		}
		if u.LastLogin != nil {
			entry["last_login"] = u.LastLogin.UTC().Format(time.RFC3339)
		}
		out = append(out, entry)
	}
	return c.JSON(out)
}

// ResetUserPassword issues a temporary password for a user. An admin cannot
// reset another admin's password.
func (s *AdminService) ResetUserPassword(c *fiber.Ctx) error {
	adminID := middleware.UserID(c)

	var user models.User
	if err := s.DB.First(&user, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error"})
	}
	if user.IsAdmin && user.ID != adminID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Cannot reset another admin's password"})
	}

	tempPassword, err := utils.GenerateTempPassword(12)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to reset password"})
	}
	if err := user.SetTempPassword(tempPassword, 24); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to reset password"})
	}
	if err := s.DB.Save(&user).Error; err != nil {
		log.Printf("Error resetting password for user %d: %v", user.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to reset password"})
	}
	return c.JSON(fiber.Map{
		"message":       "Password reset successful",
		"temp_password": tempPassword,
		"expires_at":    user.TempPasswordExpiresAt.UTC().Format(time.RFC3339),
	})
}

// ToggleAdmin grants or revokes the admin flag. Admins cannot toggle their
// own flag.
func (s *AdminService) ToggleAdmin(c *fiber.Ctx) error {
	adminID := middleware.UserID(c)

	var user models.User
	if err := s.DB.First(&user, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error"})
	}
	if user.ID == adminID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Cannot modify your own admin status"})
	}

	user.IsAdmin = !user.IsAdmin
	if err := s.DB.Save(&user).Error; err != nil {
		log.Printf("Error toggling admin for user %d: %v", user.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update admin status"})
	}
	verb := "revoked from"
	if user.IsAdmin {
		verb = "granted to"
	}
	return c.JSON(fiber.Map{
		"message":  "Admin status " + verb + " " + user.Username,
		"is_admin": user.IsAdmin,
	})
}

func gameAdminSnapshot(g *models.Game) models.StateSnapshot {
	snap := models.StateSnapshot{
		"deleted_at":           nil,
		"deleted_by_id":        nil,
		"last_admin_action":    nil,
		"last_admin_action_at": nil,
	}
	if g.DeletedAt.Valid {
		snap["deleted_at"] = g.DeletedAt.Time.UTC().Format(time.RFC3339)
	}
	if g.DeletedByID != nil {
		snap["deleted_by_id"] = *g.DeletedByID
	}
	if g.LastAdminAction != "" {
		snap["last_admin_action"] = g.LastAdminAction
	}
	if g.LastAdminActionAt != nil {
		snap["last_admin_action_at"] = g.LastAdminActionAt.UTC().Format(time.RFC3339)
	}
	return snap
}

// DeleteGame soft-deletes a game. A non-empty reason is required; the state
// change and its audit record commit in the same transaction.
func (s *AdminService) DeleteGame(c *fiber.Ctx) error {
	adminID := middleware.UserID(c)

	var game models.Game
	if err := s.DB.Unscoped().First(&game, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Game not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error"})
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&req); err != nil || req.Reason == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Reason is required for deletion"})
	}
	if game.DeletedAt.Valid {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Game is already deleted"})
	}

	previousState := gameAdminSnapshot(&game)

	now := time.Now().UTC()
	game.DeletedAt = gorm.DeletedAt{Time: now, Valid: true}
	game.DeletedByID = &adminID
	game.LastAdminAction = string(models.AdminActionGameDelete)
	game.LastAdminActionAt = &now

	auditLog := models.AdminAuditLog{
		AdminID:       adminID,
		ActionType:    models.AdminActionGameDelete,
		TargetType:    models.AuditTargetGame,
		TargetID:      game.ID,
		PreviousState: previousState,
		NewState:      gameAdminSnapshot(&game),
		Reason:        req.Reason,
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Model(&models.Game{}).Where("id = ?", game.ID).Updates(map[string]interface{}{
			"deleted_at":           now,
			"deleted_by_id":        adminID,
			"last_admin_action":    game.LastAdminAction,
			"last_admin_action_at": now,
		}).Error; err != nil {
			return err
		}
		return tx.Create(&auditLog).Error
	})
	if err != nil {
		log.Printf("Error deleting game %d: %v", game.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete game"})
	}
	return c.JSON(fiber.Map{
		"message":    "Game deleted successfully",
		"game_id":    game.ID,
		"deleted_at": now.Format(time.RFC3339),
		"deleted_by": adminID,
	})
}

// RestoreGame clears a game's soft-delete fields, symmetric to DeleteGame.
func (s *AdminService) RestoreGame(c *fiber.Ctx) error {
	adminID := middleware.UserID(c)

	var game models.Game
	if err := s.DB.Unscoped().First(&game, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Game not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error"})
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&req); err != nil || req.Reason == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Reason is required for restoration"})
	}
	if !game.DeletedAt.Valid {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Game is not deleted"})
	}

	previousState := gameAdminSnapshot(&game)

	now := time.Now().UTC()
	game.DeletedAt = gorm.DeletedAt{}
	game.DeletedByID = nil
	game.LastAdminAction = string(models.AdminActionGameRestore)
	game.LastAdminActionAt = &now

	auditLog := models.AdminAuditLog{
		AdminID:       adminID,
		ActionType:    models.AdminActionGameRestore,
		TargetType:    models.AuditTargetGame,
		TargetID:      game.ID,
		PreviousState: previousState,
		NewState:      gameAdminSnapshot(&game),
		Reason:        req.Reason,
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Model(&models.Game{}).Where("id = ?", game.ID).Updates(map[string]interface{}{
			"deleted_at":           nil,
			"deleted_by_id":        nil,
			"last_admin_action":    game.LastAdminAction,
			"last_admin_action_at": now,
		}).Error; err != nil {
			return err
		}
		return tx.Create(&auditLog).Error
	})
	if err != nil {
		log.Printf("Error restoring game %d: %v", game.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to restore game"})
	}
	return c.JSON(fiber.Map{
		"message":     "Game restored successfully",
		"game_id":     game.ID,
		"restored_at": now.Format(time.RFC3339),
		"restored_by": adminID,
	})
}

// ListDeletedGames returns every soft-deleted game with deletion metadata.
func (s *AdminService) ListDeletedGames(c *fiber.Ctx) error {
	var games []models.Game
	if err := s.DB.Unscoped().Preload("DeletedBy").
		Where("deleted_at IS NOT NULL").
		Find(&games).Error; err != nil {
		log.Printf("Error listing deleted games: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch deleted games"})
	}

	out := make([]fiber.Map, 0, len(games))
	for i := range games {
		g := &games[i]
		deletedBy := fiber.Map{"id": g.DeletedByID, "username": nil}
		if g.DeletedBy != nil {
			deletedBy["username"] = g.DeletedBy.Username
		}
		entry := fiber.Map{
			"id":                   g.ID,
			"game_date":            g.GameDate.Format(gameDateLayout),
			"deleted_at":           g.DeletedAt.Time.UTC().Format(time.RFC3339),
			"deleted_by":           deletedBy,
			"last_admin_action":    g.LastAdminAction,
			"last_admin_action_at": nil,
		}
		if g.LastAdminActionAt != nil {
			entry["last_admin_action_at"] = g.LastAdminActionAt.UTC().Format(time.RFC3339)
		}
		out = append(out, entry)
	}
	return c.JSON(out)
}

// GetGameAuditLog returns a game's admin action history, newest first.
func (s *AdminService) GetGameAuditLog(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Game not found"})
	}
	gameID := uint(id)
	if _, err := models.LookupAuditTarget(s.DB, models.AuditTargetGame, gameID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Game not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error"})
	}

	var logs []models.AdminAuditLog
	if err := s.DB.Preload("Admin").
		Where("target_type = ? AND target_id = ?", models.AuditTargetGame, gameID).
		Order("created_at DESC").
		Find(&logs).Error; err != nil {
		log.Printf("Error fetching audit log for game %d: %v", gameID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch audit log"})
	}

	out := make([]fiber.Map, 0, len(logs))
	for i := range logs {
		l := &logs[i]
		out = append(out, fiber.Map{
			"id": l.ID,
			"admin": fiber.Map{
				"id":       l.AdminID,
				"username": l.Admin.Username,
			},
			"action_type":    l.ActionType,
			"previous_state": l.PreviousState,
			"new_state":      l.NewState,
			"reason":         l.Reason,
			"created_at":     l.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(out)
}
