package models

import (
	"time"
)

// UserProgress is the per-user aggregate. Level is always recomputed from
// TotalXP, never incremented independently, so replays cannot drift it.
// Only the reward calculator mutates this, inside a validated transaction.
type UserProgress struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	UserID           uint       `gorm:"uniqueIndex;not null" json:"user_id"`
	TotalXP          int64      `gorm:"default:0" json:"total_xp"`
	Level            int        `gorm:"default:1" json:"level"`
	StreakDays       int        `gorm:"default:0" json:"streak_days"`
	TotalDiscoveries int        `gorm:"default:0" json:"total_discoveries"`
	FirstDiscoveryAt *time.Time `json:"first_discovery_at,omitempty"`
	LastDiscoveryAt  *time.Time `json:"last_discovery_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// TableName specifies the table name for UserProgress model.
func (UserProgress) TableName() string {
	return "user_progress"
}
