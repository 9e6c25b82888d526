package models

import "time"

// MatchStatus is the approval status of a Match. There is no rejected status:
// a rejected match stays pending (with a rejection note) and its game is reset
// so results can be resubmitted.
type MatchStatus string

const (
	MatchStatusPending  MatchStatus = "pending"
	MatchStatusApproved MatchStatus = "approved"
)

// Match is the results record for one Game: placements, timing, notes, and the
// peer-approval workflow. GameID is nullable so a match survives its game
// being removed.
type Match struct {
	ID           uint        `json:"id" gorm:"primaryKey"`
	GameID       *uint       `json:"game_id,omitempty" gorm:"index"`
	PlayerCount  int         `json:"player_count" gorm:"not null"`
	Status       MatchStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	SeasonNumber *int        `json:"season_number,omitempty" gorm:"index"`
	StartTime    *time.Time  `json:"start_time,omitempty"`
	EndTime      *time.Time  `json:"end_time,omitempty"`

	SubmittedByID uint  `json:"submitted_by_id" gorm:"not null"`
	ApprovedByID  *uint `json:"approved_by_id,omitempty"`

	NotesBigInteraction  string `json:"notes_big_interaction,omitempty"`
	NotesRulesDiscussion string `json:"notes_rules_discussion,omitempty"`
	NotesEndSummary      string `json:"notes_end_summary,omitempty"`
	ApprovalNotes        string `json:"approval_notes,omitempty"`

	CreatedAt  time.Time  `json:"created_at" gorm:"autoCreateTime"`
	ApprovedAt *time.Time `json:"approved_at,omitempty"`

	Submitter User  `json:"-" gorm:"foreignKey:SubmittedByID"`
	Approver  *User `json:"-" gorm:"foreignKey:ApprovedByID"`

	Players []MatchPlayer `json:"players,omitempty" gorm:"foreignKey:MatchID"`
}

// MatchPlayer is one participant's placement within a match. Deck and deck
// version are copied from the player's registration at submission time so the
// record stays accurate even if the deck changes later.
type MatchPlayer struct {
	ID            uint  `json:"id" gorm:"primaryKey"`
	MatchID       uint  `json:"match_id" gorm:"not null;uniqueIndex:idx_match_placement"`
	UserID        uint  `json:"user_id" gorm:"not null;index"`
	DeckID        uint  `json:"deck_id" gorm:"not null"`
	DeckVersionID *uint `json:"deck_version_id,omitempty"`
	Placement     *int  `json:"placement,omitempty" gorm:"uniqueIndex:idx_match_placement"`

	User        User         `json:"-" gorm:"foreignKey:UserID"`
	Deck        Deck         `json:"-" gorm:"foreignKey:DeckID"`
	DeckVersion *DeckVersion `json:"-" gorm:"foreignKey:DeckVersionID"`
}
