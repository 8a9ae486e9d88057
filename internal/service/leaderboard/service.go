// Package leaderboard provides global rank ordering and per-landmark
// discoverer listings.
package leaderboard

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Fra44/game-based-learning/internal/models"
	"github.com/Fra44/game-based-learning/internal/repository"
	"github.com/Fra44/game-based-learning/pkg/logger"
)

// ProgressRepository interface for progress aggregate reads.
type ProgressRepository interface {
	List() ([]models.UserProgress, error)
}

// BadgeRepository interface for badge operations.
type BadgeRepository interface {
	GetUserBadgeCount(userID uint) (int64, error)
}

// StatsRepository interface for landmark stats reads.
type StatsRepository interface {
	GetByLandmark(landmarkID uint) (*models.LandmarkStats, error)
	DiscoverersByLandmark(landmarkID uint) ([]models.LandmarkDiscoverer, error)
}

// Entry represents a single entry in the explorer leaderboard.
type Entry struct {
	UserID           uint       `json:"user_id"`
	TotalXP          int64      `json:"total_xp"`
	Level            int        `json:"level"`
	StreakDays       int        `json:"streak_days"`
	TotalDiscoveries int        `json:"total_discoveries"`
	BadgeCount       int        `json:"badge_count"`
	FirstDiscoveryAt *time.Time `json:"first_discovery_at,omitempty"`
	Rank             int        `json:"rank"`
}

// DiscovererEntry is one row of a landmark's discoverer list.
type DiscovererEntry struct {
	UserID        uint      `json:"user_id"`
	DiscoveredAt  time.Time `json:"discovered_at"`
	Rank          int       `json:"rank"`
	IsFirstGlobal bool      `json:"is_first_global"`
}

// Service handles leaderboard generation.
type Service struct {
	progressRepo ProgressRepository
	badgeRepo    BadgeRepository
	statsRepo    StatsRepository
	log          *logger.Logger
}

// NewService creates a new leaderboard service with concrete repository types.
func NewService(
	progressRepo *repository.ProgressRepository,
	badgeRepo *repository.BadgeRepository,
	statsRepo *repository.StatsRepository,
	log *logger.Logger,
) *Service {
	return &Service{
		progressRepo: progressRepo,
		badgeRepo:    badgeRepo,
		statsRepo:    statsRepo,
		log:          log,
	}
}

// NewServiceWithInterfaces creates a new leaderboard service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(
	progressRepo ProgressRepository,
	badgeRepo BadgeRepository,
	statsRepo StatsRepository,
	log *logger.Logger,
) *Service {
	return &Service{
		progressRepo: progressRepo,
		badgeRepo:    badgeRepo,
		statsRepo:    statsRepo,
		log:          log,
	}
}

// TopExplorers returns the global leaderboard: descending by total XP, ties
// broken by earliest first discovery, then by user ID so the ordering is
// total and stable across re-queries. The tie-break is part of the public
// contract, not an implementation detail.
//
//nolint:revive // ctx reserved for future context-aware operations (tracing, cancellation)
func (s *Service) TopExplorers(ctx context.Context, limit int) ([]Entry, error) {
	aggregates, err := s.progressRepo.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}

	entries := make([]Entry, 0, len(aggregates))
	for _, agg := range aggregates {
		badgeCount, err := s.badgeRepo.GetUserBadgeCount(agg.UserID)
		if err != nil {
			s.log.Warn().Err(err).Uint("user_id", agg.UserID).Msg("Failed to get badge count")
			badgeCount = 0
		}
		entries = append(entries, Entry{
			UserID:           agg.UserID,
			TotalXP:          agg.TotalXP,
			Level:            agg.Level,
			StreakDays:       agg.StreakDays,
			TotalDiscoveries: agg.TotalDiscoveries,
			BadgeCount:       int(badgeCount),
			FirstDiscoveryAt: agg.FirstDiscoveryAt,
		})
	}

	sortEntries(entries)

	for i := range entries {
		entries[i].Rank = i + 1
	}

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// UserRank returns a user's position in the global leaderboard.
func (s *Service) UserRank(ctx context.Context, userID uint) (int, error) {
	entries, err := s.TopExplorers(ctx, 0)
	if err != nil {
		return 0, err
	}
	for _, entry := range entries {
		if entry.UserID == userID {
			return entry.Rank, nil
		}
	}
	return 0, fmt.Errorf("user not found in leaderboard")
}

// LandmarkDiscoverers returns a landmark's discoverers in discovery order
// with first-global attribution from the stats aggregate.
//
//nolint:revive // ctx reserved for future context-aware operations (tracing, cancellation)
func (s *Service) LandmarkDiscoverers(ctx context.Context, landmarkID uint) ([]DiscovererEntry, error) {
	discoverers, err := s.statsRepo.DiscoverersByLandmark(landmarkID)
	if err != nil {
		return nil, fmt.Errorf("failed to list discoverers: %w", err)
	}

	var firstID uint
	stats, err := s.statsRepo.GetByLandmark(landmarkID)
	if err == nil && stats.FirstDiscovererID != nil {
		firstID = *stats.FirstDiscovererID
	}

	entries := make([]DiscovererEntry, 0, len(discoverers))
	for i, d := range discoverers {
		entries = append(entries, DiscovererEntry{
			UserID:        d.UserID,
			DiscoveredAt:  d.DiscoveredAt,
			Rank:          i + 1,
			IsFirstGlobal: d.UserID == firstID,
		})
	}
	return entries, nil
}

// sortEntries orders by total XP descending, then earliest first discovery,
// then user ID.
func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TotalXP != entries[j].TotalXP {
			return entries[i].TotalXP > entries[j].TotalXP
		}
		fi, fj := entries[i].FirstDiscoveryAt, entries[j].FirstDiscoveryAt
		switch {
		case fi != nil && fj != nil && !fi.Equal(*fj):
			return fi.Before(*fj)
		case fi != nil && fj == nil:
			return true
		case fi == nil && fj != nil:
			return false
		}
		return entries[i].UserID < entries[j].UserID
	})
}
