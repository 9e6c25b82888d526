package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// AdminActionType enumerates the admin actions recorded in the audit log.
type AdminActionType string

const (
	AdminActionGameDelete     AdminActionType = "GAME_DELETE"
	AdminActionGameRestore    AdminActionType = "GAME_RESTORE"
	AdminActionMatchUnapprove AdminActionType = "MATCH_UNAPPROVE"
	AdminActionMatchUnsubmit  AdminActionType = "MATCH_UNSUBMIT"
)

// Audit target kinds. TargetType+TargetID is a weak reference: the target may
// have been removed, lookups go through LookupAuditTarget.
const (
	AuditTargetGame  = "game"
	AuditTargetMatch = "match"
)

// StateSnapshot is a structured before/after capture stored as JSON.
type StateSnapshot map[string]interface{}

func (s StateSnapshot) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

func (s *StateSnapshot) Scan(src interface{}) error {
	if src == nil {
		*s = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into StateSnapshot", src)
	}
	return json.Unmarshal(data, s)
}

// AdminAuditLog is an append-only record of an admin action, written in the
// same transaction as the state change it describes.
type AdminAuditLog struct {
	ID            uint            `json:"id" gorm:"primaryKey"`
	AdminID       uint            `json:"admin_id" gorm:"not null;index"`
	ActionType    AdminActionType `json:"action_type" gorm:"type:varchar(50);not null"`
	TargetType    string          `json:"target_type" gorm:"size:50;not null;index:idx_audit_target"`
	TargetID      uint            `json:"target_id" gorm:"not null;index:idx_audit_target"`
	PreviousState StateSnapshot   `json:"previous_state,omitempty" gorm:"type:jsonb"`
	NewState      StateSnapshot   `json:"new_state,omitempty" gorm:"type:jsonb"`
	Reason        string          `json:"reason,omitempty"`
	CreatedAt     time.Time       `json:"created_at" gorm:"autoCreateTime"`

	Admin User `json:"-" gorm:"foreignKey:AdminID"`
}

// LookupAuditTarget resolves a polymorphic audit reference to its row. Games
// are looked up unscoped, since most audited games are soft-deleted.
func LookupAuditTarget(db *gorm.DB, targetType string, targetID uint) (interface{}, error) {
	switch targetType {
	case AuditTargetGame:
		var game Game
		if err := db.Unscoped().First(&game, targetID).Error; err != nil {
			return nil, err
		}
		return &game, nil
	case AuditTargetMatch:
		var match Match
		if err := db.First(&match, targetID).Error; err != nil {
			return nil, err
		}
		return &match, nil
	}
	return nil, fmt.Errorf("unknown audit target type %q", targetType)
}
