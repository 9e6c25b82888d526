package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User is a league member. Users are never hard-deleted.
type User struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	Username     string     `json:"username" gorm:"size:80;uniqueIndex;not null"`
	Email        string     `json:"email" gorm:"size:120;uniqueIndex;not null"`
	PasswordHash string     `json:"-" gorm:"size:128;not null"`
	RegisteredOn time.Time  `json:"registered_on" gorm:"autoCreateTime"`
	LastLogin    *time.Time `json:"last_login,omitempty"`

	// Admin and password-reset fields. A temp password is issued by an admin
	// and is valid alongside the regular one until it expires.
	IsAdmin               bool       `json:"is_admin" gorm:"not null;default:false;index"`
	TempPasswordHash      *string    `json:"-" gorm:"size:128"`
	MustChangePassword    bool       `json:"must_change_password" gorm:"not null;default:false"`
	TempPasswordExpiresAt *time.Time `json:"-"`

	// Profile fields
	FavoriteColor   string `json:"favorite_color,omitempty" gorm:"size:50"`
	RetirementPlane string `json:"retirement_plane,omitempty" gorm:"size:100"`
	AvatarURL       string `json:"avatar_url,omitempty" gorm:"size:255"`

	Decks         []Deck             `json:"-" gorm:"foreignKey:UserID"`
	Registrations []GameRegistration `json:"-" gorm:"foreignKey:UserID"`
}

// SetPassword hashes and stores a new regular password and clears any
// outstanding temporary password.
func (u *User) SetPassword(plain string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	u.TempPasswordHash = nil
	u.TempPasswordExpiresAt = nil
	u.MustChangePassword = false
	return nil
}

// CheckPassword accepts either an unexpired temporary password or the regular
// password.
func (u *User) CheckPassword(plain string) bool {
	if u.TempPasswordHash != nil && u.TempPasswordExpiresAt != nil {
		if time.Now().UTC().Before(*u.TempPasswordExpiresAt) {
			if bcrypt.CompareHashAndPassword([]byte(*u.TempPasswordHash), []byte(plain)) == nil {
				return true
			}
		}
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plain)) == nil
}

// SetTempPassword stores a temporary password valid for expiresInHours and
// flags the account for a forced password change.
func (u *User) SetTempPassword(plain string, expiresInHours int) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	h := string(hash)
	exp := time.Now().UTC().Add(time.Duration(expiresInHours) * time.Hour)
	u.TempPasswordHash = &h
	u.TempPasswordExpiresAt = &exp
	u.MustChangePassword = true
	return nil
}

// ClearTempPassword removes any temporary credential without touching the
// regular password.
func (u *User) ClearTempPassword() {
	u.TempPasswordHash = nil
	u.TempPasswordExpiresAt = nil
	u.MustChangePassword = false
}
