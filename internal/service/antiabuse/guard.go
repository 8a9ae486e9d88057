// Package antiabuse gates submissions on rate, cooldown and timing
// plausibility. Guard state lives in Redis with TTLs; losing it degrades
// abuse protection but never ledger correctness, which the database
// enforces on its own.
package antiabuse

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Fra44/game-based-learning/internal/config"
	"github.com/Fra44/game-based-learning/internal/models"
	"github.com/Fra44/game-based-learning/internal/service/geo"
	"github.com/Fra44/game-based-learning/pkg/logger"
)

// lastFixTTL bounds how long a user's last accepted fix is kept. Beyond
// this horizon any travel distance is plausible at the configured speed cap.
const lastFixTTL = 24 * time.Hour

// Guard evaluates the abuse rules in order; the first failure wins. No rule
// mutates ledger state.
type Guard struct {
	client *redis.Client
	cfg    config.AntiAbuseConfig
	log    *logger.Logger
	now    func() time.Time
	seq    atomic.Uint64
}

// NewGuard creates a guard backed by the given Redis client.
func NewGuard(client *redis.Client, cfg config.AntiAbuseConfig, log *logger.Logger) *Guard {
	return &Guard{
		client: client,
		cfg:    cfg,
		log:    log,
		now:    time.Now,
	}
}

// WithClock overrides the guard's clock. Test hook.
func (g *Guard) WithClock(now func() time.Time) *Guard {
	g.now = now
	return g
}

// Check runs the abuse rules for a submission. It returns the rejection
// reason for the first failed rule, or the empty reason when the submission
// may proceed. Redis unavailability is a fault, not a rejection.
func (g *Guard) Check(ctx context.Context, sub *models.DiscoverySubmission, landmarkID uint) (models.RejectionReason, error) {
	now := g.now()

	// Rule 1: per-landmark cooldown.
	held, err := g.client.Exists(ctx, g.cooldownKey(sub.UserID, landmarkID)).Result()
	if err != nil {
		return "", fmt.Errorf("cooldown lookup: %w", err)
	}
	if held > 0 {
		return models.RejectionCooldown, nil
	}

	// Rule 2: trailing-window rate limit. Every attempt counts, including
	// ones rejected further down, so hammering clients stay limited.
	rateKey := g.rateKey(sub.UserID)
	windowStart := now.Add(-g.rateWindow()).UnixMilli()
	if err := g.client.ZRemRangeByScore(ctx, rateKey, "-inf", strconv.FormatInt(windowStart, 10)).Err(); err != nil {
		return "", fmt.Errorf("rate window trim: %w", err)
	}
	count, err := g.client.ZCard(ctx, rateKey).Result()
	if err != nil {
		return "", fmt.Errorf("rate window count: %w", err)
	}
	if err := g.recordAttempt(ctx, rateKey, now); err != nil {
		return "", err
	}
	if count >= int64(g.cfg.RateLimitCount) {
		return models.RejectionRateLimited, nil
	}

	// Rule 3: client clock plausibility. Also catches replayed captures.
	drift := sub.ClientTimestamp.Sub(now)
	if drift < 0 {
		drift = -drift
	}
	if drift > g.timestampTolerance() {
		return models.RejectionImplausibleTiming, nil
	}

	// Rule 4: teleport detection against the last accepted fix.
	reason, err := g.checkTravel(ctx, sub, now)
	if err != nil || reason != "" {
		return reason, err
	}

	// Passed: start the cooldown window for this landmark. Rejected attempts
	// deliberately do not refresh it.
	if err := g.client.Set(ctx, g.cooldownKey(sub.UserID, landmarkID), "1", g.cooldown()).Err(); err != nil {
		return "", fmt.Errorf("cooldown set: %w", err)
	}
	return "", nil
}

// NoteAccepted records the location of an accepted discovery as the user's
// last known fix for future teleport checks.
func (g *Guard) NoteAccepted(ctx context.Context, userID uint, location models.GeoPoint, at time.Time) error {
	value := fmt.Sprintf("%f|%f|%d", location.Latitude, location.Longitude, at.UnixMilli())
	return g.client.Set(ctx, g.fixKey(userID), value, lastFixTTL).Err()
}

func (g *Guard) checkTravel(ctx context.Context, sub *models.DiscoverySubmission, now time.Time) (models.RejectionReason, error) {
	raw, err := g.client.Get(ctx, g.fixKey(sub.UserID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("last fix lookup: %w", err)
	}

	lastPoint, lastAt, ok := parseFix(raw)
	if !ok {
		g.log.Warn().Uint("user_id", sub.UserID).Msg("Discarding unparseable last fix")
		return "", nil
	}

	elapsed := now.Sub(lastAt)
	if elapsed < time.Second {
		elapsed = time.Second
	}
	distanceKm := geo.Distance(lastPoint, sub.Location()) / 1000.0
	speedKmh := distanceKm / elapsed.Hours()
	if speedKmh > g.cfg.MaxTravelSpeedKmh {
		g.log.Debug().
			Uint("user_id", sub.UserID).
			Float64("speed_kmh", speedKmh).
			Msg("Implausible travel speed")
		return models.RejectionImplausibleTravel, nil
	}
	return "", nil
}

func (g *Guard) recordAttempt(ctx context.Context, rateKey string, now time.Time) error {
	pipe := g.client.TxPipeline()
	pipe.ZAdd(ctx, rateKey, redis.Z{
		Score: float64(now.UnixMilli()),
		// A timestamp alone is not unique: two attempts on the same clock
		// tick would collapse into one window entry.
		Member: fmt.Sprintf("%d-%d", now.UnixNano(), g.seq.Add(1)),
	})
	pipe.Expire(ctx, rateKey, g.rateWindow())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("rate window record: %w", err)
	}
	return nil
}

func parseFix(raw string) (models.GeoPoint, time.Time, bool) {
	parts := strings.Split(raw, "|")
	if len(parts) != 3 {
		return models.GeoPoint{}, time.Time{}, false
	}
	lat, err1 := strconv.ParseFloat(parts[0], 64)
	lon, err2 := strconv.ParseFloat(parts[1], 64)
	millis, err3 := strconv.ParseInt(parts[2], 10, 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return models.GeoPoint{}, time.Time{}, false
	}
	return models.GeoPoint{Latitude: lat, Longitude: lon}, time.UnixMilli(millis), true
}

func (g *Guard) cooldown() time.Duration {
	return time.Duration(g.cfg.CooldownSeconds) * time.Second
}

func (g *Guard) rateWindow() time.Duration {
	return time.Duration(g.cfg.RateLimitWindowSeconds) * time.Second
}

func (g *Guard) timestampTolerance() time.Duration {
	return time.Duration(g.cfg.TimestampToleranceSeconds) * time.Second
}

func (g *Guard) cooldownKey(userID, landmarkID uint) string {
	return fmt.Sprintf("abuse:cooldown:%d:%d", userID, landmarkID)
}

func (g *Guard) rateKey(userID uint) string {
	return fmt.Sprintf("abuse:rate:%d", userID)
}

func (g *Guard) fixKey(userID uint) string {
	return fmt.Sprintf("abuse:fix:%d", userID)
}
