package models

import "time"

// AdRewardReceipt deduplicates externally-sourced reward grants. RecordID is
// the ad network's callback id; its unique index is what makes crediting
// exactly-once under at-least-once delivery.
type AdRewardReceipt struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	RecordID string `gorm:"uniqueIndex;not null" json:"record_id"`
	Identity string `gorm:"index;not null" json:"identity"`
	Amount   int64  `gorm:"not null" json:"amount"`
	Source   string `gorm:"type:varchar(32);not null" json:"source"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
