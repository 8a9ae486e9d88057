package rewards

import (
	"testing"
	"time"

	"github.com/Fra44/game-based-learning/internal/config"
	"github.com/Fra44/game-based-learning/internal/models"
)

func testRewardsConfig() config.RewardsConfig {
	return config.RewardsConfig{
		EasyMultiplier:      1.0,
		MediumMultiplier:    1.5,
		HardMultiplier:      2.0,
		FirstDiscoveryBonus: 25,
		LevelXPDivisor:      100,
	}
}

func testBadges() []config.BadgeConfig {
	return []config.BadgeConfig{
		{Name: "first_steps", MinDiscoveries: 1},
		{Name: "seasoned_explorer", MinDiscoveries: 10},
		{Name: "trailblazer", FirstGlobalOnly: true},
		{Name: "historian", Category: "historical", MinDiscoveries: 3},
	}
}

func landmarkWith(difficulty models.Difficulty, baseXP int, category string) *models.Landmark {
	return &models.Landmark{
		Slug:       "test",
		Difficulty: difficulty,
		BaseXP:     baseXP,
		Category:   category,
	}
}

func TestApply_XPMultipliers(t *testing.T) {
	c := NewCalculator(testRewardsConfig(), nil)
	at := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		difficulty models.Difficulty
		want       int
	}{
		{models.DifficultyEasy, 50},
		{models.DifficultyMedium, 75},
		{models.DifficultyHard, 100},
	}

	for _, tc := range cases {
		progress := &models.UserProgress{UserID: 1, Level: 1}
		outcome := c.Apply(progress, landmarkWith(tc.difficulty, 50, ""), false, at)
		if outcome.XPDelta != tc.want {
			t.Errorf("XPDelta for %s = %d, want %d", tc.difficulty, outcome.XPDelta, tc.want)
		}
		if progress.TotalXP != int64(tc.want) {
			t.Errorf("TotalXP for %s = %d, want %d", tc.difficulty, progress.TotalXP, tc.want)
		}
	}
}

func TestApply_FirstDiscoveryBonus(t *testing.T) {
	c := NewCalculator(testRewardsConfig(), nil)
	at := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	progress := &models.UserProgress{UserID: 1, Level: 1}
	outcome := c.Apply(progress, landmarkWith(models.DifficultyEasy, 50, ""), true, at)
	if outcome.XPDelta != 75 {
		t.Errorf("XPDelta with first-global bonus = %d, want 75", outcome.XPDelta)
	}
}

func TestApply_UpdatesProgressAggregates(t *testing.T) {
	c := NewCalculator(testRewardsConfig(), nil)
	at := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	progress := &models.UserProgress{UserID: 1, Level: 1}
	c.Apply(progress, landmarkWith(models.DifficultyEasy, 50, ""), false, at)

	if progress.TotalDiscoveries != 1 {
		t.Errorf("TotalDiscoveries = %d, want 1", progress.TotalDiscoveries)
	}
	if progress.FirstDiscoveryAt == nil || !progress.FirstDiscoveryAt.Equal(at) {
		t.Errorf("FirstDiscoveryAt = %v, want %v", progress.FirstDiscoveryAt, at)
	}
	if progress.LastDiscoveryAt == nil || !progress.LastDiscoveryAt.Equal(at) {
		t.Errorf("LastDiscoveryAt = %v, want %v", progress.LastDiscoveryAt, at)
	}

	// A later discovery moves the last timestamp but never the first.
	later := at.Add(time.Hour)
	c.Apply(progress, landmarkWith(models.DifficultyEasy, 50, ""), false, later)
	if !progress.FirstDiscoveryAt.Equal(at) {
		t.Errorf("FirstDiscoveryAt moved to %v, want %v", progress.FirstDiscoveryAt, at)
	}
	if !progress.LastDiscoveryAt.Equal(later) {
		t.Errorf("LastDiscoveryAt = %v, want %v", progress.LastDiscoveryAt, later)
	}
}

func TestLevelForXP_Curve(t *testing.T) {
	c := NewCalculator(testRewardsConfig(), nil)

	cases := []struct {
		totalXP int64
		want    int
	}{
		{0, 1},
		{50, 1},
		{99, 1},
		{100, 2},
		{399, 2},
		{400, 3},
		{900, 4},
		{10000, 11},
	}

	for _, tc := range cases {
		if got := c.LevelForXP(tc.totalXP); got != tc.want {
			t.Errorf("LevelForXP(%d) = %d, want %d", tc.totalXP, got, tc.want)
		}
	}
}

func TestLevelForXP_Monotonic(t *testing.T) {
	c := NewCalculator(testRewardsConfig(), nil)

	prev := c.LevelForXP(0)
	for xp := int64(1); xp <= 5000; xp += 37 {
		level := c.LevelForXP(xp)
		if level < prev {
			t.Fatalf("Level decreased from %d to %d at %d XP", prev, level, xp)
		}
		prev = level
	}
}

func TestApply_LevelUpDetection(t *testing.T) {
	c := NewCalculator(testRewardsConfig(), nil)
	at := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	progress := &models.UserProgress{UserID: 1, Level: 1, TotalXP: 90}
	outcome := c.Apply(progress, landmarkWith(models.DifficultyEasy, 50, ""), false, at)

	if !outcome.LeveledUp {
		t.Error("Expected crossing 100 XP to level up")
	}
	if outcome.NewLevel != 2 || progress.Level != 2 {
		t.Errorf("NewLevel = %d, progress.Level = %d, want 2", outcome.NewLevel, progress.Level)
	}

	// A small grant that stays within the level does not level up.
	outcome = c.Apply(progress, landmarkWith(models.DifficultyEasy, 10, ""), false, at)
	if outcome.LeveledUp {
		t.Error("Expected no level-up within the same level band")
	}
}

func TestApply_Streak(t *testing.T) {
	c := NewCalculator(testRewardsConfig(), nil)
	day1 := time.Date(2026, 3, 14, 23, 50, 0, 0, time.UTC)

	progress := &models.UserProgress{UserID: 1, Level: 1}

	c.Apply(progress, landmarkWith(models.DifficultyEasy, 10, ""), false, day1)
	if progress.StreakDays != 1 {
		t.Fatalf("StreakDays after first discovery = %d, want 1", progress.StreakDays)
	}

	// Same calendar day leaves the streak untouched.
	c.Apply(progress, landmarkWith(models.DifficultyEasy, 10, ""), false, day1.Add(5*time.Minute))
	if progress.StreakDays != 1 {
		t.Errorf("StreakDays after same-day repeat = %d, want 1", progress.StreakDays)
	}

	// Next calendar day extends it, even just past midnight UTC.
	c.Apply(progress, landmarkWith(models.DifficultyEasy, 10, ""), false, day1.Add(15*time.Minute))
	if progress.StreakDays != 2 {
		t.Errorf("StreakDays after next-day discovery = %d, want 2", progress.StreakDays)
	}

	// Skipping a day resets to 1.
	c.Apply(progress, landmarkWith(models.DifficultyEasy, 10, ""), false, day1.Add(72*time.Hour))
	if progress.StreakDays != 1 {
		t.Errorf("StreakDays after skipped day = %d, want 1", progress.StreakDays)
	}
}

func TestApply_BadgeCandidates(t *testing.T) {
	c := NewCalculator(testRewardsConfig(), testBadges())
	at := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	// First discovery, not first-global, non-historical landmark.
	progress := &models.UserProgress{UserID: 1, Level: 1}
	outcome := c.Apply(progress, landmarkWith(models.DifficultyEasy, 50, "art"), false, at)
	assertBadges(t, outcome.BadgesAwarded, []string{"first_steps"})

	// First-global unlocks trailblazer.
	progress = &models.UserProgress{UserID: 2, Level: 1}
	outcome = c.Apply(progress, landmarkWith(models.DifficultyEasy, 50, "art"), true, at)
	assertBadges(t, outcome.BadgesAwarded, []string{"first_steps", "trailblazer"})

	// Category badge requires both the category and the discovery count.
	progress = &models.UserProgress{UserID: 3, Level: 1, TotalDiscoveries: 2}
	outcome = c.Apply(progress, landmarkWith(models.DifficultyEasy, 50, "historical"), false, at)
	assertBadges(t, outcome.BadgesAwarded, []string{"first_steps", "historian"})

	// High-count badge appears once the threshold is crossed.
	progress = &models.UserProgress{UserID: 4, Level: 1, TotalDiscoveries: 9}
	outcome = c.Apply(progress, landmarkWith(models.DifficultyEasy, 50, "art"), false, at)
	assertBadges(t, outcome.BadgesAwarded, []string{"first_steps", "seasoned_explorer"})
}

func assertBadges(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Errorf("Badges = %v, want %v", got, want)
		return
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Badges = %v, want %v", got, want)
			return
		}
	}
}
