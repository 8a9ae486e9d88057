// Package rewards computes XP, levels, badges and streaks for validated
// discoveries. The formula is deterministic: auditable rewards are what make
// the ledger trustworthy, so there is no randomness anywhere in here.
package rewards

import (
	"math"
	"time"

	"github.com/Fra44/game-based-learning/internal/config"
	"github.com/Fra44/game-based-learning/internal/models"
)

// Calculator applies the reward policy to a user's progress aggregate.
// It is pure computation; persistence belongs to the repositories.
type Calculator struct {
	cfg    config.RewardsConfig
	badges []config.BadgeConfig
}

// NewCalculator creates a calculator from the configured reward policy and
// badge table.
func NewCalculator(cfg config.RewardsConfig, badges []config.BadgeConfig) *Calculator {
	return &Calculator{cfg: cfg, badges: badges}
}

// Apply mutates progress for one validated discovery of the landmark and
// returns the reward figures. The caller persists progress afterwards;
// badge names returned are candidates and the store keeps only the ones not
// already held.
func (c *Calculator) Apply(progress *models.UserProgress, landmark *models.Landmark, isFirstGlobal bool, discoveredAt time.Time) models.RewardOutcome {
	xp := int(math.Round(float64(landmark.BaseXP) * c.multiplierFor(landmark.Difficulty)))
	if isFirstGlobal {
		xp += c.cfg.FirstDiscoveryBonus
	}

	c.applyStreak(progress, discoveredAt)

	progress.TotalXP += int64(xp)
	progress.TotalDiscoveries++
	if progress.FirstDiscoveryAt == nil {
		at := discoveredAt
		progress.FirstDiscoveryAt = &at
	}
	at := discoveredAt
	progress.LastDiscoveryAt = &at

	// Level is recomputed from total XP, never incremented, so replays and
	// recoveries cannot double-count a level-up.
	newLevel := c.LevelForXP(progress.TotalXP)
	leveledUp := newLevel > progress.Level
	progress.Level = newLevel

	return models.RewardOutcome{
		XPDelta:       xp,
		LeveledUp:     leveledUp,
		NewLevel:      newLevel,
		BadgesAwarded: c.badgeCandidates(progress, landmark, isFirstGlobal),
	}
}

// LevelForXP is the monotonic level curve: floor(sqrt(totalXp / divisor)) + 1.
func (c *Calculator) LevelForXP(totalXP int64) int {
	if totalXP <= 0 {
		return 1
	}
	return int(math.Sqrt(float64(totalXP)/c.cfg.LevelXPDivisor)) + 1
}

// applyStreak updates the consecutive-day counter: a discovery on the
// calendar day after the previous one extends the streak, a skipped day
// resets it to 1, and same-day repeats leave it untouched. Days are
// evaluated in UTC.
func (c *Calculator) applyStreak(progress *models.UserProgress, discoveredAt time.Time) {
	if progress.LastDiscoveryAt == nil {
		progress.StreakDays = 1
		return
	}

	last := progress.LastDiscoveryAt.UTC()
	current := discoveredAt.UTC()
	lastDay := time.Date(last.Year(), last.Month(), last.Day(), 0, 0, 0, 0, time.UTC)
	currentDay := time.Date(current.Year(), current.Month(), current.Day(), 0, 0, 0, 0, time.UTC)

	switch currentDay.Sub(lastDay) {
	case 0:
		// Same day: unchanged.
	case 24 * time.Hour:
		progress.StreakDays++
	default:
		progress.StreakDays = 1
	}
}

// badgeCandidates returns the configured badges this discovery qualifies
// for. Awarding itself is idempotent at the store layer.
func (c *Calculator) badgeCandidates(progress *models.UserProgress, landmark *models.Landmark, isFirstGlobal bool) []string {
	var names []string
	for _, badge := range c.badges {
		if badge.FirstGlobalOnly && !isFirstGlobal {
			continue
		}
		if badge.Category != "" && badge.Category != landmark.Category {
			continue
		}
		if badge.MinDiscoveries > 0 && progress.TotalDiscoveries < badge.MinDiscoveries {
			continue
		}
		names = append(names, badge.Name)
	}
	return names
}

func (c *Calculator) multiplierFor(difficulty models.Difficulty) float64 {
	switch difficulty {
	case models.DifficultyHard:
		return c.cfg.HardMultiplier
	case models.DifficultyMedium:
		return c.cfg.MediumMultiplier
	default:
		return c.cfg.EasyMultiplier
	}
}
