package models

import (
	"encoding/json"
	"time"
)

// VerificationMethod constants.
const (
	VerificationMethodRecognition = "image_recognition"
)

// DiscoveryRecord is the persisted fact that a user discovered a landmark.
// At most one record exists per (user, landmark) pair; the composite unique
// index is the ledger's core invariant. The reward figures are frozen on the
// record at commit time so a replayed submission returns the original
// outcome without re-running reward logic.
type DiscoveryRecord struct {
	ID                   uint            `gorm:"primaryKey" json:"id"`
	UserID               uint            `gorm:"not null;uniqueIndex:ux_user_landmark,priority:1" json:"user_id"`
	LandmarkID           uint            `gorm:"not null;uniqueIndex:ux_user_landmark,priority:2" json:"landmark_id"`
	DiscoveredAt         time.Time       `gorm:"not null" json:"discovered_at"`
	VerificationMethod   string          `gorm:"size:50;not null" json:"verification_method"`
	Confidence           float64         `gorm:"not null" json:"confidence"`
	IdempotencyToken     string          `gorm:"size:255" json:"idempotency_token"`
	XPAwarded            int             `gorm:"default:0" json:"xp_awarded"`
	TotalXPAfter         int64           `gorm:"default:0" json:"total_xp_after"`
	WasFirstGlobal       bool            `gorm:"default:false" json:"was_first_global"`
	RankAmongDiscoverers int             `gorm:"default:0" json:"rank_among_discoverers"`
	BadgesAwarded        json.RawMessage `gorm:"type:jsonb" json:"badges_awarded,omitempty"`
	LeveledUp            bool            `gorm:"default:false" json:"leveled_up"`
	NewLevel             int             `gorm:"default:0" json:"new_level"`
	CreatedAt            time.Time       `json:"created_at"`
}

// TableName specifies the table name for DiscoveryRecord model.
func (DiscoveryRecord) TableName() string {
	return "discovery_records"
}

// AwardedBadgeNames decodes the frozen badge list from the record.
func (r *DiscoveryRecord) AwardedBadgeNames() []string {
	if len(r.BadgesAwarded) == 0 {
		return nil
	}
	var names []string
	if err := json.Unmarshal(r.BadgesAwarded, &names); err != nil {
		return nil
	}
	return names
}

// SetAwardedBadgeNames encodes the badge list onto the record.
func (r *DiscoveryRecord) SetAwardedBadgeNames(names []string) error {
	if len(names) == 0 {
		r.BadgesAwarded = nil
		return nil
	}
	raw, err := json.Marshal(names)
	if err != nil {
		return err
	}
	r.BadgesAwarded = raw
	return nil
}

// DiscoverySubmission is one user's untrusted claim of a discovery. It is
// ephemeral: it exists only for the duration of one verification transaction.
type DiscoverySubmission struct {
	UserID           uint      `json:"user_id"`
	LandmarkSlug     string    `json:"landmark"`
	Latitude         float64   `json:"latitude"`
	Longitude        float64   `json:"longitude"`
	AccuracyMeters   float64   `json:"accuracy_meters"`
	Confidence       float64   `json:"confidence"`
	ClientTimestamp  time.Time `json:"client_timestamp"`
	IdempotencyToken string    `json:"idempotency_token"`
}

// Location returns the claimed coordinate.
func (s *DiscoverySubmission) Location() GeoPoint {
	return GeoPoint{Latitude: s.Latitude, Longitude: s.Longitude}
}

// OutcomeStatus is the terminal status of a submission.
type OutcomeStatus string

// Submission outcome statuses.
const (
	OutcomeCompleted OutcomeStatus = "completed"
	OutcomeRejected  OutcomeStatus = "rejected"
	OutcomeFailed    OutcomeStatus = "failed"
)

// RejectionReason identifies which verification rule a claim failed.
// Rejections are expected, user-facing results, not errors.
type RejectionReason string

// Rejection reasons.
const (
	RejectionTooFar            RejectionReason = "too_far"
	RejectionLowConfidence     RejectionReason = "low_confidence"
	RejectionRateLimited       RejectionReason = "rate_limited"
	RejectionCooldown          RejectionReason = "cooldown"
	RejectionImplausibleTiming RejectionReason = "implausible_timing"
	RejectionImplausibleTravel RejectionReason = "implausible_travel"
)

// DiscoveryOutcome is the single response returned for a submission.
type DiscoveryOutcome struct {
	Status                 OutcomeStatus   `json:"status"`
	Reason                 RejectionReason `json:"reason,omitempty"`
	DistanceMeters         float64         `json:"distance_meters,omitempty"`
	XPDelta                int             `json:"xp_delta"`
	TotalXP                int64           `json:"total_xp"`
	LeveledUp              bool            `json:"leveled_up"`
	NewLevel               int             `json:"new_level,omitempty"`
	BadgesAwarded          []string        `json:"badges_awarded,omitempty"`
	IsFirstGlobalDiscovery bool            `json:"is_first_global_discovery"`
	RankAmongDiscoverers   int             `json:"rank_among_discoverers,omitempty"`
}

// RewardOutcome is what the reward calculator produced for one validated
// discovery, before it is frozen onto the record.
type RewardOutcome struct {
	XPDelta       int
	LeveledUp     bool
	NewLevel      int
	BadgesAwarded []string
}

// RewardApply mutates the user's progress for one validated discovery and
// returns the resulting reward figures. It runs inside the ledger
// transaction, after the conditional insert has won.
type RewardApply func(progress *UserProgress, isFirstGlobal bool, rank int) RewardOutcome

// CommitResult is the result of the atomic ledger commit.
type CommitResult struct {
	Inserted      bool
	Record        *DiscoveryRecord
	Progress      *UserProgress
	Outcome       RewardOutcome
	IsFirstGlobal bool
	Rank          int
}
