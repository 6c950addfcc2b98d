package models

import "time"

// ItemBehavior tags what an item does when held or consumed.
type ItemBehavior string

const (
	BehaviorStreakProtection     ItemBehavior = "streak_protection"
	BehaviorBalanceConcealment   ItemBehavior = "balance_concealment"
	BehaviorConcealmentDetection ItemBehavior = "concealment_detection"
	BehaviorRewardGrant          ItemBehavior = "reward_grant"
)

// Well-known item codes seeded at boot.
const (
	ItemStreakShield = "streak_shield"
	ItemCloak        = "cloak"
	ItemScanner      = "scanner"
	ItemBonusSpin    = "bonus_spin"
)

// ItemDefinition: static item config (seeded from DefaultItems, extendable
// via admin grants of new codes is intentionally not supported).
type ItemDefinition struct {
	ID          string       `gorm:"primaryKey;type:uuid" json:"id"`
	Code        string       `gorm:"uniqueIndex;not null" json:"code"`
	Name        string       `gorm:"not null" json:"name"`
	Description string       `json:"description,omitempty"`
	Behavior    ItemBehavior `gorm:"type:varchar(32);not null" json:"behavior"`
	Consumable  bool         `gorm:"not null;default:true" json:"consumable"`
	CreatedAt   time.Time    `gorm:"autoCreateTime" json:"created_at"`
}

// InventoryEntry: (identity, item code) → quantity. Quantity never goes
// negative; consumption is a checked atomic decrement.
type InventoryEntry struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	Identity string `gorm:"uniqueIndex:idx_inventory_owner_item;not null" json:"identity"`
	ItemCode string `gorm:"uniqueIndex:idx_inventory_owner_item;not null" json:"item_code"`
	Quantity int64  `gorm:"not null;default:0" json:"quantity"`

	Timestamps
}

// DefaultItems are ensured at startup.
var DefaultItems = []ItemDefinition{
	{
		Code:        ItemStreakShield,
		Name:        "Streak Shield",
		Description: "Protects your check-in streak across one missed day",
		Behavior:    BehaviorStreakProtection,
		Consumable:  true,
	},
	{
		Code:        ItemCloak,
		Name:        "Coin Cloak",
		Description: "Shows raiders a fake low balance",
		Behavior:    BehaviorBalanceConcealment,
		Consumable:  false,
	},
	{
		Code:        ItemScanner,
		Name:        "Scanner",
		Description: "Sees through a Coin Cloak once",
		Behavior:    BehaviorConcealmentDetection,
		Consumable:  true,
	},
	{
		Code:        ItemBonusSpin,
		Name:        "Bonus Spin",
		Description: "One extra wheel spin, earned at streak milestones",
		Behavior:    BehaviorRewardGrant,
		Consumable:  true,
	},
}
