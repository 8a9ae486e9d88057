package repository

import (
	"time"

	"gorm.io/gorm/clause"

	"github.com/Fra44/game-based-learning/internal/models"
)

// ProgressRepository handles user progress aggregate operations.
type ProgressRepository struct {
	db *DB
}

// NewProgressRepository creates a new progress repository.
func NewProgressRepository(db *DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// GetOrCreateForUpdate retrieves a user's progress row with its row lock
// held, creating the zero-valued aggregate on first contact. The lock
// serializes concurrent discoveries by the same user across different
// landmarks; without it, two transactions could read the same aggregate and
// the second Save would overwrite the first. Must run inside the ledger
// transaction.
func (r *ProgressRepository) GetOrCreateForUpdate(userID uint) (*models.UserProgress, error) {
	// Concurrent first contact: the unique index makes one creator win,
	// everyone else falls through to the locked read below.
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&models.UserProgress{UserID: userID, Level: 1}).Error
	if err != nil {
		return nil, err
	}

	// The touch update takes the row lock. A blocked transaction resumes
	// after the holder commits, so the read that follows sees the latest
	// committed aggregate, not a stale snapshot.
	err = r.db.Model(&models.UserProgress{}).
		Where("user_id = ?", userID).
		Update("updated_at", time.Now()).Error
	if err != nil {
		return nil, err
	}

	var progress models.UserProgress
	if err := r.db.Where("user_id = ?", userID).First(&progress).Error; err != nil {
		return nil, err
	}
	return &progress, nil
}

// Get retrieves a user's progress row.
func (r *ProgressRepository) Get(userID uint) (*models.UserProgress, error) {
	var progress models.UserProgress
	err := r.db.Where("user_id = ?", userID).First(&progress).Error
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

// Save persists a mutated progress aggregate.
func (r *ProgressRepository) Save(progress *models.UserProgress) error {
	return r.db.Save(progress).Error
}

// List retrieves all progress aggregates.
func (r *ProgressRepository) List() ([]models.UserProgress, error) {
	var entries []models.UserProgress
	err := r.db.Find(&entries).Error
	return entries, err
}
