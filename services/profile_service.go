package services

import (
	"log"
	"path/filepath"
	"strings"
	"time"

	"commander-league-system/middleware"
	"commander-league-system/models"
	"commander-league-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

var allowedAvatarExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
}

type ProfileService struct {
	DB      *gorm.DB
	Avatars utils.AvatarStore
}

func NewProfileService(db *gorm.DB, avatars utils.AvatarStore) *ProfileService {
	return &ProfileService{DB: db, Avatars: avatars}
}

func profileBody(u *models.User) fiber.Map {
	body := fiber.Map{
		"id":                   u.ID,
		"username":             u.Username,
		"email":                u.Email,
		"is_admin":             u.IsAdmin,
		"must_change_password": u.MustChangePassword,
		"favorite_color":       u.FavoriteColor,
		"retirement_plane":     u.RetirementPlane,
		"avatar_url":           u.AvatarURL,
		"member_since":         u.RegisteredOn.UTC().Format(time.RFC3339),
		"last_login":           nil,
	}
	if u.LastLogin != nil {
		body["last_login"] = u.LastLogin.UTC().Format(time.RFC3339)
	}
	return body
}

// GetMyProfile returns the caller's full profile.
func (s *ProfileService) GetMyProfile(c *fiber.Ctx) error {
	var user models.User
	if err := s.DB.First(&user, middleware.UserID(c)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}
	return c.JSON(profileBody(&user))
}

// UpdateMyProfile updates the caller's cosmetic profile fields.
func (s *ProfileService) UpdateMyProfile(c *fiber.Ctx) error {
	var user models.User
	if err := s.DB.First(&user, middleware.UserID(c)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	var req struct {
		FavoriteColor   *string `json:"favorite_color"`
		RetirementPlane *string `json:"retirement_plane"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.FavoriteColor != nil {
		user.FavoriteColor = *req.FavoriteColor
	}
	if req.RetirementPlane != nil {
		user.RetirementPlane = *req.RetirementPlane
	}
	if err := s.DB.Save(&user).Error; err != nil {
		log.Printf("Error updating profile for user %d: %v", user.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update profile"})
	}
	return c.JSON(fiber.Map{
		"message": "Profile updated successfully",
		"user":    profileBody(&user),
	})
}

// UploadAvatar stores an avatar image in object storage and saves its public
// URL on the user.
func (s *ProfileService) UploadAvatar(c *fiber.Ctx) error {
	var user models.User
	if err := s.DB.First(&user, middleware.UserID(c)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing 'avatar' file"})
	}
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !allowedAvatarExtensions[ext] {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unsupported image type"})
	}

	key := "avatars/" + slug.Make(user.Username) + "-" + uuid.NewString() + ext
	url, err := s.Avatars.Upload(fileHeader, key)
	if err != nil {
		log.Printf("Error uploading avatar for user %d: %v", user.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to upload avatar"})
	}

	user.AvatarURL = url
	if err := s.DB.Model(&user).Update("avatar_url", url).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save avatar"})
	}
	return c.JSON(fiber.Map{
		"message":    "Avatar uploaded successfully",
		"avatar_url": url,
	})
}
