package repository

import (
	"errors"
	"testing"

	"github.com/Fra44/game-based-learning/internal/models"
)

func TestGetBySlug_NotFoundSentinel(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLandmarkRepository(db)

	_, err := repo.GetBySlug("no-such-landmark")
	if !errors.Is(err, ErrLandmarkNotFound) {
		t.Errorf("Expected ErrLandmarkNotFound, got %v", err)
	}
}

func TestGetBySlug_ReturnsSeededLandmark(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLandmarkRepository(db)

	seeded := seedLandmark(t, db, "duomo-di-milano")

	landmark, err := repo.GetBySlug("duomo-di-milano")
	if err != nil {
		t.Fatalf("GetBySlug() failed: %v", err)
	}
	if landmark.ID != seeded.ID || landmark.BaseXP != 50 {
		t.Errorf("Unexpected landmark: %+v", landmark)
	}

	byID, err := repo.GetByID(seeded.ID)
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}
	if byID.Slug != "duomo-di-milano" {
		t.Errorf("GetByID slug = %s, want duomo-di-milano", byID.Slug)
	}
}

func TestLandmarkUpsert_UpdatesBySlug(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLandmarkRepository(db)

	seedLandmark(t, db, "duomo-di-milano")

	updated := &models.Landmark{
		Slug:         "duomo-di-milano",
		Name:         "Duomo di Milano",
		Latitude:     45.464211,
		Longitude:    9.191383,
		RadiusMeters: 150,
		Difficulty:   models.DifficultyMedium,
		BaseXP:       80,
		Category:     "historical",
	}
	if err := repo.Upsert(updated); err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}

	landmark, err := repo.GetBySlug("duomo-di-milano")
	if err != nil {
		t.Fatalf("GetBySlug() failed: %v", err)
	}
	if landmark.RadiusMeters != 150 || landmark.BaseXP != 80 || landmark.Difficulty != models.DifficultyMedium {
		t.Errorf("Landmark not updated: %+v", landmark)
	}

	all, err := repo.GetAll()
	if err != nil {
		t.Fatalf("GetAll() failed: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("Expected a single catalog row after upsert, got %d", len(all))
	}
}
