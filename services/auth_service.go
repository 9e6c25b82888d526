package services

import (
	"errors"
	"log"
	"strings"
	"time"

	"commander-league-system/middleware"
	"commander-league-system/models"
	"commander-league-system/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AuthService struct {
	DB *gorm.DB
}

func NewAuthService(db *gorm.DB) *AuthService {
	return &AuthService{DB: db}
}

func userSummary(u *models.User) fiber.Map {
	return fiber.Map{
		"id":                   u.ID,
		"username":             u.Username,
		"email":                u.Email,
		"is_admin":             u.IsAdmin,
		"must_change_password": u.MustChangePassword,
		"avatar_url":           u.AvatarURL,
	}
}

func issueTokens(u *models.User) (string, string, error) {
	access, err := utils.CreateAccessToken(u.ID, u.IsAdmin, u.MustChangePassword)
	if err != nil {
		return "", "", err
	}
	refresh, err := utils.CreateRefreshToken(u.ID)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// Register creates a new account. Usernames and emails are unique.
func (s *AuthService) Register(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Username, email and password are required"})
	}

	var count int64
	if err := s.DB.Model(&models.User{}).Where("username = ?", req.Username).Count(&count).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error"})
	}
	if count > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Username already exists"})
	}
	if err := s.DB.Model(&models.User{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error"})
	}
	if count > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Email already exists"})
	}

	user := models.User{Username: req.Username, Email: req.Email}
	if err := user.SetPassword(req.Password); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create user"})
	}
	if err := s.DB.Create(&user).Error; err != nil {
		log.Printf("Error creating user %q: %v", req.Username, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create user"})
	}

	log.Printf("Registered new user %q (id=%d)", user.Username, user.ID)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User created successfully",
		"user":    userSummary(&user),
	})
}

// Login checks credentials, accepting an unexpired temporary password in
// place of the regular one, and issues an access/refresh token pair.
func (s *AuthService) Login(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	var user models.User
	if err := s.DB.Where("username = ?", req.Username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid username or password"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error"})
	}
	if !user.CheckPassword(req.Password) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid username or password"})
	}

	now := time.Now().UTC()
	user.LastLogin = &now
	if err := s.DB.Model(&user).Update("last_login", now).Error; err != nil {
		log.Printf("Error updating last_login for user %d: %v", user.ID, err)
	}

	access, refresh, err := issueTokens(&user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to issue tokens"})
	}
	return c.JSON(fiber.Map{
		"access_token":  access,
		"refresh_token": refresh,
		"user":          userSummary(&user),
	})
}

// Refresh exchanges a valid refresh token for a new access token. The
// refresh middleware has already validated the token kind.
func (s *AuthService) Refresh(c *fiber.Ctx) error {
	var user models.User
	if err := s.DB.First(&user, middleware.UserID(c)).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}
	access, err := utils.CreateAccessToken(user.ID, user.IsAdmin, user.MustChangePassword)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to issue token"})
	}
	return c.JSON(fiber.Map{"access_token": access})
}

// ChangePassword verifies the current password (regular or temporary) and
// replaces it, clearing any temporary credential. Fresh tokens are issued so
// the must_change_password claim is dropped immediately.
func (s *AuthService) ChangePassword(c *fiber.Ctx) error {
	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.NewPassword == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "New password is required"})
	}

	var user models.User
	if err := s.DB.First(&user, middleware.UserID(c)).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}
	if !user.CheckPassword(req.CurrentPassword) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Current password is incorrect"})
	}

	if err := user.SetPassword(req.NewPassword); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to change password"})
	}
	if err := s.DB.Save(&user).Error; err != nil {
		log.Printf("Error changing password for user %d: %v", user.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to change password"})
	}

	access, refresh, err := issueTokens(&user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to issue tokens"})
	}
	return c.JSON(fiber.Map{
		"message":       "Password changed successfully",
		"access_token":  access,
		"refresh_token": refresh,
	})
}

// CheckAuth confirms the access token still maps to a live account.
func (s *AuthService) CheckAuth(c *fiber.Ctx) error {
	var user models.User
	if err := s.DB.First(&user, middleware.UserID(c)).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}
	return c.JSON(fiber.Map{
		"authenticated": true,
		"user":          userSummary(&user),
	})
}
