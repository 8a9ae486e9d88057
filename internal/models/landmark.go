// Package models defines domain models for the discovery ledger system.
package models

import (
	"time"
)

// Difficulty classifies how hard a landmark is to discover.
type Difficulty string

// Landmark difficulty levels.
const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Landmark represents a discoverable real-world landmark. Landmarks are
// read-only reference data supplied by the content catalog; this system
// never creates or edits them outside catalog ingestion.
type Landmark struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Slug         string     `gorm:"uniqueIndex;not null;size:100" json:"slug"`
	Name         string     `gorm:"not null;size:255" json:"name"`
	Latitude     float64    `gorm:"not null" json:"latitude"`
	Longitude    float64    `gorm:"not null" json:"longitude"`
	RadiusMeters float64    `gorm:"not null" json:"radius_meters"`
	Difficulty   Difficulty `gorm:"size:20;not null" json:"difficulty"`
	BaseXP       int        `gorm:"not null" json:"base_xp"`
	Category     string     `gorm:"size:100;index" json:"category"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// TableName specifies the table name for Landmark model.
func (Landmark) TableName() string {
	return "landmarks"
}

// Location returns the landmark's registered coordinate.
func (l *Landmark) Location() GeoPoint {
	return GeoPoint{Latitude: l.Latitude, Longitude: l.Longitude}
}

// LandmarkStats holds per-landmark aggregates. FirstDiscovererID is set at
// most once, by the transaction that inserts the landmark's first
// DiscoveryRecord (compare-and-set on NULL).
type LandmarkStats struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	LandmarkID        uint       `gorm:"uniqueIndex;not null" json:"landmark_id"`
	DiscoveryCount    int        `gorm:"default:0" json:"discovery_count"`
	FirstDiscovererID *uint      `json:"first_discoverer_id,omitempty"`
	FirstDiscoveredAt *time.Time `json:"first_discovered_at,omitempty"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// TableName specifies the table name for LandmarkStats model.
func (LandmarkStats) TableName() string {
	return "landmark_stats"
}

// LandmarkDiscoverer is one entry in a landmark's ordered discoverer list.
type LandmarkDiscoverer struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	LandmarkID   uint      `gorm:"not null;uniqueIndex:ux_landmark_discoverer,priority:1" json:"landmark_id"`
	UserID       uint      `gorm:"not null;uniqueIndex:ux_landmark_discoverer,priority:2" json:"user_id"`
	DiscoveredAt time.Time `gorm:"not null;index" json:"discovered_at"`
}

// TableName specifies the table name for LandmarkDiscoverer model.
func (LandmarkDiscoverer) TableName() string {
	return "landmark_discoverers"
}
