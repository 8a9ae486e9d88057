package repository

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Fra44/game-based-learning/internal/models"
)

// DiscoveryRepository handles the discovery ledger's database operations.
type DiscoveryRepository struct {
	db *DB
}

// NewDiscoveryRepository creates a new discovery repository.
func NewDiscoveryRepository(db *DB) *DiscoveryRepository {
	return &DiscoveryRepository{db: db}
}

// RecordIfAbsent performs the ledger's conditional insert. Concurrent
// callers racing on the same (user, landmark) pair see exactly one winner;
// the loser gets inserted=false and the winning record, never an error.
func (r *DiscoveryRepository) RecordIfAbsent(record *models.DiscoveryRecord) (bool, *models.DiscoveryRecord, error) {
	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "landmark_id"}},
		DoNothing: true,
	}).Create(record)
	if result.Error != nil {
		return false, nil, result.Error
	}
	if result.RowsAffected == 1 {
		return true, record, nil
	}

	existing, err := r.GetByUserAndLandmark(record.UserID, record.LandmarkID)
	if err != nil {
		return false, nil, err
	}
	return false, existing, nil
}

// GetByUserAndLandmark retrieves the record for a (user, landmark) pair.
func (r *DiscoveryRepository) GetByUserAndLandmark(userID, landmarkID uint) (*models.DiscoveryRecord, error) {
	var record models.DiscoveryRecord
	err := r.db.
		Where("user_id = ? AND landmark_id = ?", userID, landmarkID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Exists reports whether a record exists for the (user, landmark) pair.
func (r *DiscoveryRepository) Exists(userID, landmarkID uint) (bool, error) {
	_, err := r.GetByUserAndLandmark(userID, landmarkID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// FreezeOutcome persists the reward figures onto an inserted record so a
// replayed submission can return the original completion unchanged.
func (r *DiscoveryRepository) FreezeOutcome(record *models.DiscoveryRecord) error {
	return r.db.Model(record).Updates(map[string]interface{}{
		"xp_awarded":             record.XPAwarded,
		"total_xp_after":         record.TotalXPAfter,
		"was_first_global":       record.WasFirstGlobal,
		"rank_among_discoverers": record.RankAmongDiscoverers,
		"badges_awarded":         record.BadgesAwarded,
		"leveled_up":             record.LeveledUp,
		"new_level":              record.NewLevel,
	}).Error
}

// ListByUser retrieves all discoveries by a user, most recent first.
func (r *DiscoveryRepository) ListByUser(userID uint) ([]models.DiscoveryRecord, error) {
	var records []models.DiscoveryRecord
	err := r.db.
		Where("user_id = ?", userID).
		Order("discovered_at DESC").
		Find(&records).Error
	return records, err
}

// CountByUser returns the number of landmarks a user has discovered.
func (r *DiscoveryRepository) CountByUser(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.DiscoveryRecord{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}
