package models

import (
	"time"
)

// Badge represents a badge that can be earned by users. Badges are seeded
// from configuration so new categories do not require recompilation.
type Badge struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Name             string    `gorm:"uniqueIndex;not null;size:100" json:"name"`
	Description      string    `gorm:"type:text" json:"description"`
	Icon             string    `gorm:"size:50" json:"icon"`
	Category         string    `gorm:"size:100;index" json:"category"`
	MinDiscoveries   int       `gorm:"default:0" json:"min_discoveries"`
	FirstGlobalOnly  bool      `gorm:"default:false" json:"first_global_only"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TableName specifies the table name for Badge model.
func (Badge) TableName() string {
	return "badges"
}

// UserBadge represents a badge earned by a user. The composite unique index
// makes awarding naturally idempotent.
type UserBadge struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	UserID   uint      `gorm:"not null;uniqueIndex:ux_user_badge,priority:1" json:"user_id"`
	BadgeID  uint      `gorm:"not null;uniqueIndex:ux_user_badge,priority:2" json:"badge_id"`
	Badge    Badge     `gorm:"foreignKey:BadgeID" json:"badge,omitempty"`
	EarnedAt time.Time `gorm:"not null" json:"earned_at"`
}

// TableName specifies the table name for UserBadge model.
func (UserBadge) TableName() string {
	return "user_badges"
}
