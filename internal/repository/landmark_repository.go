package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Fra44/game-based-learning/internal/models"
)

// ErrLandmarkNotFound is returned when a submission names an unknown landmark.
var ErrLandmarkNotFound = errors.New("landmark not found")

// LandmarkRepository handles landmark catalog database operations. The
// catalog is read-only reference data; Upsert exists only for ingestion.
type LandmarkRepository struct {
	db *DB
}

// NewLandmarkRepository creates a new landmark repository.
func NewLandmarkRepository(db *DB) *LandmarkRepository {
	return &LandmarkRepository{db: db}
}

// GetBySlug retrieves a landmark by its catalog slug.
func (r *LandmarkRepository) GetBySlug(slug string) (*models.Landmark, error) {
	var landmark models.Landmark
	err := r.db.Where("slug = ?", slug).First(&landmark).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrLandmarkNotFound, slug)
	}
	if err != nil {
		return nil, err
	}
	return &landmark, nil
}

// GetByID retrieves a landmark by its ID.
func (r *LandmarkRepository) GetByID(id uint) (*models.Landmark, error) {
	var landmark models.Landmark
	err := r.db.First(&landmark, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: id %d", ErrLandmarkNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &landmark, nil
}

// GetAll retrieves the full catalog.
func (r *LandmarkRepository) GetAll() ([]models.Landmark, error) {
	var landmarks []models.Landmark
	err := r.db.Order("slug ASC").Find(&landmarks).Error
	return landmarks, err
}

// Upsert inserts or updates a landmark keyed by slug. Used by catalog
// ingestion at startup.
func (r *LandmarkRepository) Upsert(landmark *models.Landmark) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "slug"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "latitude", "longitude", "radius_meters",
			"difficulty", "base_xp", "category", "updated_at",
		}),
	}).Create(landmark).Error
}
