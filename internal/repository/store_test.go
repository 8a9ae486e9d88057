package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Fra44/game-based-learning/internal/models"
)

// staticApply returns a fixed reward and mutates progress the way the
// calculator would, enough to exercise the commit plumbing.
func staticApply(xp int, badges ...string) models.RewardApply {
	return func(progress *models.UserProgress, isFirstGlobal bool, rank int) models.RewardOutcome {
		delta := xp
		if isFirstGlobal {
			delta += 25
		}
		progress.TotalXP += int64(delta)
		progress.TotalDiscoveries++
		return models.RewardOutcome{
			XPDelta:       delta,
			NewLevel:      1,
			BadgesAwarded: badges,
		}
	}
}

func TestCommitDiscovery_EndToEnd(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	ctx := context.Background()
	at := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	landmark := seedLandmark(t, db, "duomo-di-milano")
	seedBadge(t, db, "first_steps")

	result, err := store.CommitDiscovery(ctx, testRecord(1, landmark.ID, at), staticApply(50, "first_steps"))
	if err != nil {
		t.Fatalf("CommitDiscovery() failed: %v", err)
	}

	if !result.Inserted {
		t.Fatal("Expected first commit to insert")
	}
	if !result.IsFirstGlobal || result.Rank != 1 {
		t.Errorf("IsFirstGlobal=%v Rank=%d, want true/1", result.IsFirstGlobal, result.Rank)
	}
	if result.Outcome.XPDelta != 75 {
		t.Errorf("XPDelta = %d, want 75", result.Outcome.XPDelta)
	}
	if result.Progress.TotalXP != 75 || result.Progress.TotalDiscoveries != 1 {
		t.Errorf("Progress = %+v", result.Progress)
	}

	// Everything committed: the frozen record, the progress row, the badge.
	stored, err := store.Discoveries.GetByUserAndLandmark(1, landmark.ID)
	if err != nil {
		t.Fatalf("GetByUserAndLandmark() failed: %v", err)
	}
	if stored.XPAwarded != 75 || stored.TotalXPAfter != 75 || !stored.WasFirstGlobal || stored.RankAmongDiscoverers != 1 {
		t.Errorf("Frozen record = %+v", stored)
	}
	names := stored.AwardedBadgeNames()
	if len(names) != 1 || names[0] != "first_steps" {
		t.Errorf("Frozen badges = %v, want [first_steps]", names)
	}

	count, err := store.Badges.GetUserBadgeCount(1)
	if err != nil {
		t.Fatalf("GetUserBadgeCount() failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Badge count = %d, want 1", count)
	}
}

func TestCommitDiscovery_SecondUserGetsRankTwo(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	ctx := context.Background()
	at := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	landmark := seedLandmark(t, db, "duomo-di-milano")

	if _, err := store.CommitDiscovery(ctx, testRecord(1, landmark.ID, at), staticApply(50)); err != nil {
		t.Fatalf("First commit failed: %v", err)
	}
	result, err := store.CommitDiscovery(ctx, testRecord(2, landmark.ID, at.Add(time.Hour)), staticApply(50))
	if err != nil {
		t.Fatalf("Second commit failed: %v", err)
	}

	if result.IsFirstGlobal {
		t.Error("Expected second user not to be first global")
	}
	if result.Rank != 2 {
		t.Errorf("Rank = %d, want 2", result.Rank)
	}
	if result.Outcome.XPDelta != 50 {
		t.Errorf("XPDelta = %d, want 50 without the first-global bonus", result.Outcome.XPDelta)
	}
}

func TestCommitDiscovery_ReplayReturnsFrozenRecord(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	ctx := context.Background()
	at := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	landmark := seedLandmark(t, db, "duomo-di-milano")
	seedBadge(t, db, "first_steps")

	first, err := store.CommitDiscovery(ctx, testRecord(1, landmark.ID, at), staticApply(50, "first_steps"))
	if err != nil {
		t.Fatalf("First commit failed: %v", err)
	}

	applyCalled := false
	replay, err := store.CommitDiscovery(ctx, testRecord(1, landmark.ID, at.Add(time.Minute)),
		func(progress *models.UserProgress, isFirstGlobal bool, rank int) models.RewardOutcome {
			applyCalled = true
			return models.RewardOutcome{}
		})
	if err != nil {
		t.Fatalf("Replay commit failed: %v", err)
	}

	if replay.Inserted {
		t.Fatal("Expected replay not to insert")
	}
	if applyCalled {
		t.Error("Reward logic must not run on a replayed commit")
	}
	if replay.Record.XPAwarded != first.Record.XPAwarded ||
		replay.Record.TotalXPAfter != first.Record.TotalXPAfter ||
		replay.Record.WasFirstGlobal != first.Record.WasFirstGlobal ||
		replay.Record.RankAmongDiscoverers != first.Record.RankAmongDiscoverers {
		t.Errorf("Replayed record differs:\nfirst:  %+v\nreplay: %+v", first.Record, replay.Record)
	}

	// No state moved: progress and stats untouched by the replay.
	progress, err := store.Progress.Get(1)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if progress.TotalXP != 75 || progress.TotalDiscoveries != 1 {
		t.Errorf("Progress mutated by replay: %+v", progress)
	}
	stats, err := store.Stats.GetByLandmark(landmark.ID)
	if err != nil {
		t.Fatalf("GetByLandmark() failed: %v", err)
	}
	if stats.DiscoveryCount != 1 {
		t.Errorf("DiscoveryCount = %d, want 1 after replay", stats.DiscoveryCount)
	}
}

func TestCommitDiscovery_ConcurrentSameUserAccumulates(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	at := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	// One user discovering n distinct landmarks concurrently. The per-pair
	// unique index and the per-landmark stats lock do not order these;
	// only the progress row lock keeps the aggregate from losing updates.
	const n = 8
	landmarkIDs := make([]uint, n)
	for i := 0; i < n; i++ {
		landmarkIDs[i] = seedLandmark(t, db, fmt.Sprintf("landmark-%d", i)).ID
	}

	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = store.CommitDiscovery(context.Background(),
				testRecord(1, landmarkIDs[i], at.Add(time.Duration(i)*time.Minute)),
				staticApply(50))
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("Commit %d failed: %v", i, err)
		}
	}

	// Every commit is the first for its landmark: 50 + 25 bonus each.
	progress, err := store.Progress.Get(1)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if progress.TotalXP != n*75 {
		t.Errorf("TotalXP = %d, want %d", progress.TotalXP, n*75)
	}
	if progress.TotalDiscoveries != n {
		t.Errorf("TotalDiscoveries = %d, want %d", progress.TotalDiscoveries, n)
	}

	// The frozen running totals are all distinct: each commit saw the
	// aggregate left by the previous one, not a shared stale read.
	seen := make(map[int64]bool)
	for _, landmarkID := range landmarkIDs {
		record, err := store.Discoveries.GetByUserAndLandmark(1, landmarkID)
		if err != nil {
			t.Fatalf("GetByUserAndLandmark() failed: %v", err)
		}
		if record.TotalXPAfter%75 != 0 || record.TotalXPAfter < 75 || record.TotalXPAfter > n*75 {
			t.Errorf("TotalXPAfter = %d, want a multiple of 75 within [75, %d]", record.TotalXPAfter, n*75)
		}
		if seen[record.TotalXPAfter] {
			t.Errorf("Duplicate TotalXPAfter %d: two commits read the same stale aggregate", record.TotalXPAfter)
		}
		seen[record.TotalXPAfter] = true
	}
}

func TestCommitDiscovery_SkipsAlreadyHeldBadges(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	ctx := context.Background()
	at := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	first := seedLandmark(t, db, "duomo-di-milano")
	second := seedLandmark(t, db, "castello-sforzesco")
	seedBadge(t, db, "first_steps")

	if _, err := store.CommitDiscovery(ctx, testRecord(1, first.ID, at), staticApply(50, "first_steps")); err != nil {
		t.Fatalf("First commit failed: %v", err)
	}
	result, err := store.CommitDiscovery(ctx, testRecord(1, second.ID, at.Add(time.Hour)), staticApply(50, "first_steps"))
	if err != nil {
		t.Fatalf("Second commit failed: %v", err)
	}

	// The candidate was filtered: already held, so not in this outcome.
	if len(result.Outcome.BadgesAwarded) != 0 {
		t.Errorf("BadgesAwarded = %v, want none for an already held badge", result.Outcome.BadgesAwarded)
	}
	if len(result.Record.AwardedBadgeNames()) != 0 {
		t.Errorf("Frozen badges = %v, want none", result.Record.AwardedBadgeNames())
	}

	count, err := store.Badges.GetUserBadgeCount(1)
	if err != nil {
		t.Fatalf("GetUserBadgeCount() failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Badge count = %d, want 1", count)
	}
}
