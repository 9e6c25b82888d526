package models

import "time"

// Deck is a Commander deck owned by exactly one user. DecklistText is a legacy
// field kept for decks created before versioning; current lists live on the
// deck's versions.
type Deck struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	UserID           uint      `json:"user_id" gorm:"not null;index"`
	Name             string    `json:"name" gorm:"size:100;not null"`
	Commander        string    `json:"commander" gorm:"size:100;not null"`
	Colors           string    `json:"colors" gorm:"size:5;not null"`
	DecklistText     string    `json:"decklist_text,omitempty"`
	CreatedAt        time.Time `json:"created_at" gorm:"autoCreateTime"`
	LastUpdated      time.Time `json:"last_updated" gorm:"autoUpdateTime"`
	CurrentVersionID *uint     `json:"current_version_id,omitempty"`

	User     User          `json:"-" gorm:"foreignKey:UserID"`
	Versions []DeckVersion `json:"-" gorm:"foreignKey:DeckID"`
}

// DeckVersion is an immutable snapshot of a deck's list. Version numbers are
// gapless per deck, starting at 1; versions are only ever appended.
type DeckVersion struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	DeckID        uint      `json:"deck_id" gorm:"not null;uniqueIndex:idx_deck_version"`
	VersionNumber int       `json:"version_number" gorm:"not null;uniqueIndex:idx_deck_version"`
	DecklistText  string    `json:"decklist_text,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
}
