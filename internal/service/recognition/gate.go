// Package recognition applies acceptance policy to externally computed
// image-recognition confidence scores. It never computes confidence itself;
// the recognition oracle is an external collaborator.
package recognition

import (
	"errors"
	"math"

	"github.com/Fra44/game-based-learning/internal/config"
	"github.com/Fra44/game-based-learning/internal/models"
)

// ErrMalformedConfidence is returned when a score falls outside [0,1].
// Out-of-range scores are rejected as malformed input, never clamped.
var ErrMalformedConfidence = errors.New("confidence score outside [0,1]")

// Gate applies per-difficulty confidence thresholds.
type Gate struct {
	thresholds config.RecognitionConfig
}

// NewGate creates a gate from the configured thresholds.
func NewGate(thresholds config.RecognitionConfig) *Gate {
	return &Gate{thresholds: thresholds}
}

// Accepts reports whether a confidence score clears the threshold for the
// landmark's difficulty.
func (g *Gate) Accepts(confidence float64, difficulty models.Difficulty) (bool, error) {
	if math.IsNaN(confidence) || confidence < 0 || confidence > 1 {
		return false, ErrMalformedConfidence
	}
	return confidence >= g.thresholds.ThresholdFor(string(difficulty)), nil
}

// Threshold exposes the configured threshold for a difficulty.
func (g *Gate) Threshold(difficulty models.Difficulty) float64 {
	return g.thresholds.ThresholdFor(string(difficulty))
}
