// Package discovery orchestrates the submission pipeline: location and
// recognition checks, abuse gating, the idempotent ledger write, reward
// computation and rank updates, committed as one transaction.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"time"

	prommetrics "github.com/Fra44/game-based-learning/internal/metrics"
	"github.com/Fra44/game-based-learning/internal/models"
	"github.com/Fra44/game-based-learning/internal/repository"
	"github.com/Fra44/game-based-learning/internal/service/geo"
	"github.com/Fra44/game-based-learning/internal/service/recognition"
	"github.com/Fra44/game-based-learning/internal/service/rewards"
	"github.com/Fra44/game-based-learning/pkg/logger"
)

// State identifies a stage of the submission pipeline. Transitions are
// sequential and short-circuit on the first failure; no step after a
// rejection executes.
type State string

// Pipeline states. Rewards and ranks settle inside the ledger commit, so
// there is no separately observable stage between ledgered and completed.
const (
	StateReceived           State = "received"
	StateGeoChecked         State = "geo_checked"
	StateRecognitionChecked State = "recognition_checked"
	StateAbuseChecked       State = "abuse_checked"
	StateLedgered           State = "ledgered"
	StateCompleted          State = "completed"
	StateRejected           State = "rejected"
	StateFailed             State = "failed"
)

// Faults. These are surfaced distinctly from rejections so clients can tell
// a degraded service from a failed claim.
var (
	// ErrMalformedSubmission marks input rejected before any verification
	// rule ran: non-finite coordinates, out-of-range confidence, missing
	// identifiers.
	ErrMalformedSubmission = errors.New("malformed submission")
	// ErrUnknownLandmark marks a submission naming a landmark the catalog
	// does not have.
	ErrUnknownLandmark = errors.New("unknown landmark")
)

// Ledger is the atomic commit surface of the persistence layer.
type Ledger interface {
	CommitDiscovery(ctx context.Context, record *models.DiscoveryRecord, apply models.RewardApply) (*models.CommitResult, error)
}

// Catalog resolves landmarks from the read-only content catalog.
type Catalog interface {
	LandmarkBySlug(ctx context.Context, slug string) (*models.Landmark, error)
}

// Guard runs the abuse rules for a submission.
type Guard interface {
	Check(ctx context.Context, sub *models.DiscoverySubmission, landmarkID uint) (models.RejectionReason, error)
	NoteAccepted(ctx context.Context, userID uint, location models.GeoPoint, at time.Time) error
}

// Coordinator drives a submission through the pipeline.
type Coordinator struct {
	catalog    Catalog
	ledger     Ledger
	guard      Guard
	verifier   *geo.Verifier
	gate       *recognition.Gate
	calculator *rewards.Calculator
	log        *logger.Logger
	now        func() time.Time
}

// NewCoordinator creates a coordinator wired to the concrete store.
func NewCoordinator(
	store *repository.Store,
	guard Guard,
	verifier *geo.Verifier,
	gate *recognition.Gate,
	calculator *rewards.Calculator,
	log *logger.Logger,
) *Coordinator {
	return NewCoordinatorWithInterfaces(store, store, guard, verifier, gate, calculator, log)
}

// NewCoordinatorWithInterfaces creates a coordinator with interface
// dependencies (useful for testing).
func NewCoordinatorWithInterfaces(
	catalog Catalog,
	ledger Ledger,
	guard Guard,
	verifier *geo.Verifier,
	gate *recognition.Gate,
	calculator *rewards.Calculator,
	log *logger.Logger,
) *Coordinator {
	return &Coordinator{
		catalog:    catalog,
		ledger:     ledger,
		guard:      guard,
		verifier:   verifier,
		gate:       gate,
		calculator: calculator,
		log:        log,
		now:        time.Now,
	}
}

// WithClock overrides the coordinator's clock. Test hook.
func (c *Coordinator) WithClock(now func() time.Time) *Coordinator {
	c.now = now
	return c
}

// Submit runs one discovery claim through the pipeline and returns its
// outcome. Rejections come back as a non-nil outcome; faults come back as an
// error and leave no state mutated beyond what had already committed.
func (c *Coordinator) Submit(ctx context.Context, sub *models.DiscoverySubmission) (*models.DiscoveryOutcome, error) {
	start := c.now()
	state := StateReceived

	if err := validateSubmission(sub); err != nil {
		prommetrics.RecordSubmission(string(StateFailed), "")
		return nil, err
	}

	landmark, err := c.catalog.LandmarkBySlug(ctx, sub.LandmarkSlug)
	if err != nil {
		prommetrics.RecordSubmission(string(StateFailed), "")
		if errors.Is(err, repository.ErrLandmarkNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownLandmark, sub.LandmarkSlug)
		}
		return nil, fmt.Errorf("resolve landmark: %w", err)
	}

	// Geo check.
	geoResult, err := c.verifier.Verify(sub.Location(), sub.AccuracyMeters, landmark)
	if err != nil {
		return nil, c.fault(sub, state, fmt.Errorf("%w: %v", ErrMalformedSubmission, err))
	}
	if !geoResult.IsNearby {
		return c.reject(sub, state, models.RejectionTooFar, geoResult.DistanceMeters), nil
	}
	state = StateGeoChecked

	// Recognition check. Confidence was produced by the external oracle;
	// only policy is applied here.
	accepted, err := c.gate.Accepts(sub.Confidence, landmark.Difficulty)
	if err != nil {
		return nil, c.fault(sub, state, fmt.Errorf("%w: %v", ErrMalformedSubmission, err))
	}
	if !accepted {
		return c.reject(sub, state, models.RejectionLowConfidence, geoResult.DistanceMeters), nil
	}
	state = StateRecognitionChecked

	// Abuse check. Read-only with respect to the ledger.
	reason, err := c.guard.Check(ctx, sub, landmark.ID)
	if err != nil {
		return nil, c.fault(sub, state, err)
	}
	if reason != "" {
		return c.reject(sub, state, reason, geoResult.DistanceMeters), nil
	}
	state = StateAbuseChecked

	discoveredAt := c.now()
	record := &models.DiscoveryRecord{
		UserID:             sub.UserID,
		LandmarkID:         landmark.ID,
		DiscoveredAt:       discoveredAt,
		VerificationMethod: models.VerificationMethodRecognition,
		Confidence:         sub.Confidence,
		IdempotencyToken:   sub.IdempotencyToken,
	}

	result, err := c.ledger.CommitDiscovery(ctx, record, func(progress *models.UserProgress, isFirstGlobal bool, rank int) models.RewardOutcome {
		return c.calculator.Apply(progress, landmark, isFirstGlobal, discoveredAt)
	})
	if err != nil {
		return nil, c.fault(sub, state, fmt.Errorf("ledger commit: %w", err))
	}
	state = StateLedgered

	if !result.Inserted {
		// Replay of a completed claim: return the original outcome with the
		// figures frozen on the record, never re-run reward logic.
		c.log.Debug().
			Uint("user_id", sub.UserID).
			Str("landmark", sub.LandmarkSlug).
			Str("state", string(state)).
			Msg("Replayed completed discovery")
		prommetrics.RecordSubmission(string(StateCompleted), "")
		return outcomeFromRecord(result.Record), nil
	}

	// The fix update is advisory guard state; a failure here degrades
	// teleport detection, not the committed ledger.
	if err := c.guard.NoteAccepted(ctx, sub.UserID, sub.Location(), discoveredAt); err != nil {
		c.log.Warn().Err(err).Uint("user_id", sub.UserID).Msg("Failed to record accepted fix")
	}

	state = StateCompleted
	outcome := &models.DiscoveryOutcome{
		Status:                 models.OutcomeCompleted,
		XPDelta:                result.Outcome.XPDelta,
		TotalXP:                result.Progress.TotalXP,
		LeveledUp:              result.Outcome.LeveledUp,
		NewLevel:               result.Outcome.NewLevel,
		BadgesAwarded:          result.Outcome.BadgesAwarded,
		IsFirstGlobalDiscovery: result.IsFirstGlobal,
		RankAmongDiscoverers:   result.Rank,
	}

	prommetrics.RecordSubmission(string(state), "")
	prommetrics.ObserveXPAwarded(outcome.XPDelta)
	prommetrics.ObservePipelineDuration(c.now().Sub(start))
	if result.IsFirstGlobal {
		prommetrics.RecordFirstDiscovery()
	}
	for _, name := range outcome.BadgesAwarded {
		prommetrics.RecordBadgeAwarded(name)
	}
	if outcome.LeveledUp {
		prommetrics.RecordLevelUp()
	}

	c.log.Info().
		Uint("user_id", sub.UserID).
		Str("landmark", sub.LandmarkSlug).
		Int("xp_delta", outcome.XPDelta).
		Bool("first_global", outcome.IsFirstGlobalDiscovery).
		Int("rank", outcome.RankAmongDiscoverers).
		Msg("Discovery completed")

	return outcome, nil
}

func (c *Coordinator) reject(sub *models.DiscoverySubmission, state State, reason models.RejectionReason, distance float64) *models.DiscoveryOutcome {
	c.log.Debug().
		Uint("user_id", sub.UserID).
		Str("landmark", sub.LandmarkSlug).
		Str("state", string(state)).
		Str("reason", string(reason)).
		Msg("Discovery rejected")
	prommetrics.RecordSubmission(string(StateRejected), string(reason))

	outcome := &models.DiscoveryOutcome{
		Status: models.OutcomeRejected,
		Reason: reason,
	}
	if reason == models.RejectionTooFar {
		outcome.DistanceMeters = distance
	}
	return outcome
}

func (c *Coordinator) fault(sub *models.DiscoverySubmission, state State, err error) error {
	c.log.Error().
		Err(err).
		Uint("user_id", sub.UserID).
		Str("landmark", sub.LandmarkSlug).
		Str("state", string(state)).
		Msg("Discovery pipeline fault")
	prommetrics.RecordSubmission(string(StateFailed), "")
	return err
}

// outcomeFromRecord rebuilds the original completion from the frozen reward
// figures. Replay figures are identical to the first response.
func outcomeFromRecord(record *models.DiscoveryRecord) *models.DiscoveryOutcome {
	return &models.DiscoveryOutcome{
		Status:                 models.OutcomeCompleted,
		XPDelta:                record.XPAwarded,
		TotalXP:                record.TotalXPAfter,
		LeveledUp:              record.LeveledUp,
		NewLevel:               record.NewLevel,
		BadgesAwarded:          record.AwardedBadgeNames(),
		IsFirstGlobalDiscovery: record.WasFirstGlobal,
		RankAmongDiscoverers:   record.RankAmongDiscoverers,
	}
}

func validateSubmission(sub *models.DiscoverySubmission) error {
	if sub.UserID == 0 {
		return fmt.Errorf("%w: missing user id", ErrMalformedSubmission)
	}
	if sub.LandmarkSlug == "" {
		return fmt.Errorf("%w: missing landmark", ErrMalformedSubmission)
	}
	if sub.ClientTimestamp.IsZero() {
		return fmt.Errorf("%w: missing client timestamp", ErrMalformedSubmission)
	}
	if sub.Confidence < 0 || sub.Confidence > 1 {
		return fmt.Errorf("%w: confidence outside [0,1]", ErrMalformedSubmission)
	}
	return nil
}
