package models

import "time"

// Ledger reasons. Every balance delta carries one so the ledger stays
// auditable — the account balance must always equal the sum of its deltas.
const (
	ReasonCheckIn       = "check_in"
	ReasonTaskReward    = "task_reward"
	ReasonAdReward      = "ad_reward"
	ReasonReferralBonus = "referral_bonus"
	ReasonWelcomeBonus  = "welcome_bonus"
	ReasonPvpSteal      = "pvp_steal"
	ReasonPvpLoss       = "pvp_loss"
	ReasonAdminGrant    = "admin_grant"
)

// LedgerEntry is an append-only record of a single balance delta.
type LedgerEntry struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	Identity  string    `gorm:"index;not null" json:"identity"`
	Delta     int64     `gorm:"not null" json:"delta"`
	Reason    string    `gorm:"type:varchar(32);not null;index" json:"reason"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
