package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/Fra44/game-based-learning/internal/models"
)

// Store bundles the repositories over one connection so the submission
// pipeline can run its ledger section in a single transaction.
type Store struct {
	db          *DB
	Landmarks   *LandmarkRepository
	Discoveries *DiscoveryRepository
	Progress    *ProgressRepository
	Stats       *StatsRepository
	Badges      *BadgeRepository
}

// NewStore creates a store over a database connection.
func NewStore(db *DB) *Store {
	return &Store{
		db:          db,
		Landmarks:   NewLandmarkRepository(db),
		Discoveries: NewDiscoveryRepository(db),
		Progress:    NewProgressRepository(db),
		Stats:       NewStatsRepository(db),
		Badges:      NewBadgeRepository(db),
	}
}

// LandmarkBySlug resolves a landmark from the read-only catalog.
func (s *Store) LandmarkBySlug(_ context.Context, slug string) (*models.Landmark, error) {
	return s.Landmarks.GetBySlug(slug)
}

// CommitDiscovery runs the atomic ledger section: the conditional record
// insert, the landmark stats update, the reward application and the badge
// awards, all in one transaction. Either everything commits or nothing does;
// no partial reward state is ever observable.
//
// When the record already exists the transaction writes nothing and the
// caller gets the stored record with Inserted=false: an idempotent replay,
// not an error.
func (s *Store) CommitDiscovery(ctx context.Context, record *models.DiscoveryRecord, apply models.RewardApply) (*models.CommitResult, error) {
	var result models.CommitResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txStore := NewStore(&DB{tx})

		inserted, existing, err := txStore.Discoveries.RecordIfAbsent(record)
		if err != nil {
			return fmt.Errorf("ledger insert: %w", err)
		}
		if !inserted {
			result = models.CommitResult{Inserted: false, Record: existing}
			return nil
		}

		isFirst, rank, err := txStore.Stats.RecordDiscoverer(record.LandmarkID, record.UserID, record.DiscoveredAt)
		if err != nil {
			return fmt.Errorf("record discoverer: %w", err)
		}

		progress, err := txStore.Progress.GetOrCreateForUpdate(record.UserID)
		if err != nil {
			return fmt.Errorf("load progress: %w", err)
		}

		outcome := apply(progress, isFirst, rank)

		if err := txStore.Progress.Save(progress); err != nil {
			return fmt.Errorf("save progress: %w", err)
		}

		awarded := make([]string, 0, len(outcome.BadgesAwarded))
		for _, name := range outcome.BadgesAwarded {
			newly, err := txStore.Badges.AwardByName(record.UserID, name, record.DiscoveredAt)
			if err != nil {
				return fmt.Errorf("award badge %s: %w", name, err)
			}
			if newly {
				awarded = append(awarded, name)
			}
		}
		outcome.BadgesAwarded = awarded

		record.XPAwarded = outcome.XPDelta
		record.TotalXPAfter = progress.TotalXP
		record.WasFirstGlobal = isFirst
		record.RankAmongDiscoverers = rank
		record.LeveledUp = outcome.LeveledUp
		record.NewLevel = outcome.NewLevel
		if err := record.SetAwardedBadgeNames(awarded); err != nil {
			return fmt.Errorf("encode badges: %w", err)
		}
		if err := txStore.Discoveries.FreezeOutcome(record); err != nil {
			return fmt.Errorf("freeze outcome: %w", err)
		}

		result = models.CommitResult{
			Inserted:      true,
			Record:        record,
			Progress:      progress,
			Outcome:       outcome,
			IsFirstGlobal: isFirst,
			Rank:          rank,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}
