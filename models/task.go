package models

import "time"

// TaskDefinition mirrors the content service's task catalog. Owned by the
// catalog sync worker; the engine only reads it.
type TaskDefinition struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	Slug   string `gorm:"uniqueIndex;not null" json:"slug"`
	Title  string `gorm:"not null" json:"title"`
	Link   string `gorm:"type:text" json:"link,omitempty"`
	Reward int64  `gorm:"not null" json:"reward"`
	Active bool   `gorm:"not null;default:true" json:"active"`

	Timestamps
}

// TaskCompletion records a claimed task. The (identity, task) unique index is
// the claim-once guarantee — duplicate claims die at commit time, not via a
// separate lookup.
type TaskCompletion struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	Identity  string    `gorm:"uniqueIndex:idx_completion_identity_task;not null" json:"identity"`
	TaskID    string    `gorm:"uniqueIndex:idx_completion_identity_task;type:uuid;not null" json:"task_id"`
	Reward    int64     `gorm:"not null" json:"reward"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
