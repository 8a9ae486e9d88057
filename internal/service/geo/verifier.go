// Package geo provides location verification for discovery claims.
package geo

import (
	"errors"
	"math"

	"github.com/Fra44/game-based-learning/internal/models"
)

// earthRadiusMeters is the spherical Earth model radius. Great-circle
// distance on this model is accurate to well under the GPS error budget for
// this domain; geodesic precision is not required.
const earthRadiusMeters = 6371000.0

// ErrInvalidCoordinate is returned for non-finite or out-of-range input.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Result is the outcome of a location verification.
type Result struct {
	IsNearby       bool
	DistanceMeters float64
}

// Verifier validates claimed locations against landmark registrations.
// It is pure and deterministic; the only failure mode is invalid input.
type Verifier struct {
	// slackFactor scales the claimed GPS accuracy before adding it to the
	// landmark radius, tolerating honest GPS error without rewarding wildly
	// inaccurate fixes.
	slackFactor float64
}

// NewVerifier creates a verifier with the given accuracy slack factor.
func NewVerifier(slackFactor float64) *Verifier {
	return &Verifier{slackFactor: slackFactor}
}

// Verify checks a claimed location against a landmark's registered location
// and discovery radius. The claim is nearby iff the great-circle distance is
// within radius + slackFactor * claimed accuracy.
func (v *Verifier) Verify(claimed models.GeoPoint, accuracyMeters float64, landmark *models.Landmark) (Result, error) {
	if err := validatePoint(claimed); err != nil {
		return Result{}, err
	}
	if err := validatePoint(landmark.Location()); err != nil {
		return Result{}, err
	}
	if !isFinite(accuracyMeters) || accuracyMeters < 0 {
		return Result{}, ErrInvalidCoordinate
	}

	distance := Distance(claimed, landmark.Location())
	allowed := landmark.RadiusMeters + v.slackFactor*accuracyMeters

	return Result{
		IsNearby:       distance <= allowed,
		DistanceMeters: distance,
	}, nil
}

// Distance computes the great-circle (haversine) distance in meters between
// two points on the spherical Earth model.
func Distance(a, b models.GeoPoint) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon

	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}

func validatePoint(p models.GeoPoint) error {
	if !isFinite(p.Latitude) || !isFinite(p.Longitude) {
		return ErrInvalidCoordinate
	}
	if p.Latitude < -90 || p.Latitude > 90 || p.Longitude < -180 || p.Longitude > 180 {
		return ErrInvalidCoordinate
	}
	return nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
