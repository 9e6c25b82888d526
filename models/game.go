// models/game.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// GameStatus is the lifecycle status of a Game.
type GameStatus string

const (
	GameStatusUpcoming  GameStatus = "Upcoming"
	GameStatusCompleted GameStatus = "Completed"
	GameStatusCancelled GameStatus = "Cancelled"
)

// ValidGameStatus reports whether s is one of the known status values.
func ValidGameStatus(s string) bool {
	switch GameStatus(s) {
	case GameStatusUpcoming, GameStatusCompleted, GameStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo implements the direct-edit transition table: Completed and
// Cancelled are terminal, everything else may move freely. Completed is
// normally reached through the match submission flow, not through this check.
func (s GameStatus) CanTransitionTo(target GameStatus) bool {
	if s == target {
		return true
	}
	if s == GameStatusCompleted || s == GameStatusCancelled {
		return false
	}
	return true
}

// Game is one scheduled multiplayer session. At most one non-deleted game may
// exist per date.
//
// Lifecycle: created Upcoming → players register decks → results submitted
// (Match created, game Completed) → results approved (match approved) or
// rejected (game reset to Upcoming). Cancelled is reachable only via the
// direct status update endpoint.
type Game struct {
	ID       uint       `json:"id" gorm:"primaryKey"`
	GameDate time.Time  `json:"game_date" gorm:"type:date;not null;index"`
	Status   GameStatus `json:"status" gorm:"type:varchar(20);not null;default:'Upcoming';index"`
	IsPauper bool       `json:"is_pauper" gorm:"not null;default:false"`
	Details  string     `json:"details"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`

	// Soft delete and admin action tracking. DeletedAt doubles as the GORM
	// soft-delete marker so normal queries exclude deleted games.
	DeletedAt         gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
	DeletedByID       *uint          `json:"deleted_by_id,omitempty"`
	DeletedBy         *User          `json:"-" gorm:"foreignKey:DeletedByID"`
	LastAdminAction   string         `json:"last_admin_action,omitempty" gorm:"type:varchar(50)"`
	LastAdminActionAt *time.Time     `json:"last_admin_action_at,omitempty"`

	Registrations []GameRegistration `json:"registrations,omitempty" gorm:"foreignKey:GameID"`
	Matches       []Match            `json:"matches,omitempty" gorm:"foreignKey:GameID"`
}

// GameRegistration is a player's commitment of a specific deck (version) to a
// game. One registration per (game, user); the deck version is frozen at
// registration time so later deck edits don't rewrite history.
type GameRegistration struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	GameID        uint      `json:"game_id" gorm:"not null;uniqueIndex:idx_game_user"`
	UserID        uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_game_user"`
	DeckID        uint      `json:"deck_id" gorm:"not null"`
	DeckVersionID *uint     `json:"deck_version_id,omitempty"`
	RegisteredAt  time.Time `json:"registered_at" gorm:"autoCreateTime"`

	User        User         `json:"-" gorm:"foreignKey:UserID"`
	Deck        Deck         `json:"-" gorm:"foreignKey:DeckID"`
	DeckVersion *DeckVersion `json:"-" gorm:"foreignKey:DeckVersionID"`
}
