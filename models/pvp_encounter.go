package models

import "time"

// PvpEncounter is the append-only outcome log of a resolved attack. The row
// is inserted in the same transaction as the balance transfer.
type PvpEncounter struct {
	ID               string    `gorm:"primaryKey;type:uuid" json:"id"`
	AttackerIdentity string    `gorm:"index;not null" json:"attacker_identity"`
	DefenderIdentity string    `gorm:"index;not null" json:"defender_identity"`
	Win              bool      `gorm:"not null" json:"win"`
	Amount           int64     `gorm:"not null" json:"amount"`
	DefenderCloaked  bool      `gorm:"not null" json:"defender_cloaked"`
	DetectionUsed    bool      `gorm:"not null" json:"detection_used"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
}
