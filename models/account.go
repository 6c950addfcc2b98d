package models

import (
	"time"

	"gorm.io/gorm"
)

// RoleUser / RoleAdmin are the recognized account roles. Role checks gate the
// admin action surface only; the gateway still decides who reaches us at all.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Account holds the per-user economy state. One row per authenticated
// identity; created on first contact, never deleted in normal operation.
// Balance is mutated exclusively through ledger deltas — never overwritten.
type Account struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	Identity    string `gorm:"uniqueIndex;not null" json:"identity"` // gateway user id
	DisplayName string `gorm:"not null" json:"display_name"`

	Balance     int64      `gorm:"not null;default:0" json:"balance"`
	Streak      int        `gorm:"not null;default:0" json:"streak"`
	LastCheckIn *time.Time `json:"last_check_in,omitempty"`

	ReferredBy    *string `gorm:"index" json:"referred_by,omitempty"` // referrer identity
	ReferralCount int64   `gorm:"not null;default:0" json:"referral_count"`

	Role   string `gorm:"type:varchar(16);not null;default:'user'" json:"role"`
	Banned bool   `gorm:"not null;default:false" json:"banned"`

	PvpWins        int64 `gorm:"not null;default:0" json:"pvp_wins"`
	PvpLosses      int64 `gorm:"not null;default:0" json:"pvp_losses"`
	PvpTotalStolen int64 `gorm:"not null;default:0" json:"pvp_total_stolen"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// IsAdmin reports whether the account may use the admin action surface.
func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}
