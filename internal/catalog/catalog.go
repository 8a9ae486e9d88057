// Package catalog ingests the landmark reference catalog. The catalog is
// produced by content tooling outside this system; here it is only loaded
// and served, never edited.
package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Fra44/game-based-learning/internal/models"
	"github.com/Fra44/game-based-learning/internal/repository"
	"github.com/Fra44/game-based-learning/pkg/logger"
)

// file is the YAML document shape of a catalog file.
type file struct {
	Landmarks []entry `yaml:"landmarks"`
}

// entry is one landmark in a catalog file.
type entry struct {
	Slug         string  `yaml:"slug"`
	Name         string  `yaml:"name"`
	Latitude     float64 `yaml:"latitude"`
	Longitude    float64 `yaml:"longitude"`
	RadiusMeters float64 `yaml:"radius_meters"`
	Difficulty   string  `yaml:"difficulty"`
	BaseXP       int     `yaml:"base_xp"`
	Category     string  `yaml:"category"`
}

// Load parses a catalog file into landmarks.
func Load(path string) ([]models.Landmark, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var doc file
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}

	landmarks := make([]models.Landmark, 0, len(doc.Landmarks))
	for _, e := range doc.Landmarks {
		if err := validate(e); err != nil {
			return nil, err
		}
		landmarks = append(landmarks, models.Landmark{
			Slug:         e.Slug,
			Name:         e.Name,
			Latitude:     e.Latitude,
			Longitude:    e.Longitude,
			RadiusMeters: e.RadiusMeters,
			Difficulty:   models.Difficulty(e.Difficulty),
			BaseXP:       e.BaseXP,
			Category:     e.Category,
		})
	}
	return landmarks, nil
}

// Seed loads a catalog file and upserts its landmarks.
func Seed(path string, repo *repository.LandmarkRepository, log *logger.Logger) error {
	landmarks, err := Load(path)
	if err != nil {
		return err
	}
	for i := range landmarks {
		if err := repo.Upsert(&landmarks[i]); err != nil {
			return fmt.Errorf("failed to upsert landmark %s: %w", landmarks[i].Slug, err)
		}
	}
	log.Info().Int("landmarks", len(landmarks)).Str("path", path).Msg("Landmark catalog loaded")
	return nil
}

func validate(e entry) error {
	if e.Slug == "" {
		return fmt.Errorf("catalog entry missing slug")
	}
	if e.RadiusMeters <= 0 {
		return fmt.Errorf("landmark %s: radius must be positive", e.Slug)
	}
	if e.BaseXP <= 0 {
		return fmt.Errorf("landmark %s: base_xp must be positive", e.Slug)
	}
	switch models.Difficulty(e.Difficulty) {
	case models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard:
	default:
		return fmt.Errorf("landmark %s: unknown difficulty %q", e.Slug, e.Difficulty)
	}
	return nil
}
