package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Fra44/game-based-learning/internal/models"
)

// StatsRepository owns per-landmark aggregates: the ordered discoverer list
// and the first-discoverer flag.
type StatsRepository struct {
	db *DB
}

// NewStatsRepository creates a new stats repository.
func NewStatsRepository(db *DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// RecordDiscoverer appends a discoverer to a landmark's list and settles the
// first-global-discovery flag. The counter increment takes the stats row
// lock, serializing concurrent discoverers of the same landmark; the flag is
// a compare-and-set on NULL, so it is set at most once regardless of how
// many submitters race. Must run inside the ledger transaction.
func (r *StatsRepository) RecordDiscoverer(landmarkID, userID uint, discoveredAt time.Time) (bool, int, error) {
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "landmark_id"}},
		DoNothing: true,
	}).Create(&models.LandmarkStats{LandmarkID: landmarkID}).Error
	if err != nil {
		return false, 0, err
	}

	err = r.db.Model(&models.LandmarkStats{}).
		Where("landmark_id = ?", landmarkID).
		Updates(map[string]interface{}{
			"discovery_count": gorm.Expr("discovery_count + 1"),
			"updated_at":      time.Now(),
		}).Error
	if err != nil {
		return false, 0, err
	}

	cas := r.db.Model(&models.LandmarkStats{}).
		Where("landmark_id = ? AND first_discoverer_id IS NULL", landmarkID).
		Updates(map[string]interface{}{
			"first_discoverer_id": userID,
			"first_discovered_at": discoveredAt,
		})
	if cas.Error != nil {
		return false, 0, cas.Error
	}
	isFirst := cas.RowsAffected == 1

	var stats models.LandmarkStats
	if err := r.db.Where("landmark_id = ?", landmarkID).First(&stats).Error; err != nil {
		return false, 0, err
	}

	err = r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "landmark_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(&models.LandmarkDiscoverer{
		LandmarkID:   landmarkID,
		UserID:       userID,
		DiscoveredAt: discoveredAt,
	}).Error
	if err != nil {
		return false, 0, err
	}

	return isFirst, stats.DiscoveryCount, nil
}

// GetByLandmark retrieves the aggregate stats for a landmark.
func (r *StatsRepository) GetByLandmark(landmarkID uint) (*models.LandmarkStats, error) {
	var stats models.LandmarkStats
	err := r.db.Where("landmark_id = ?", landmarkID).First(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// DiscoverersByLandmark retrieves a landmark's discoverers in discovery order.
func (r *StatsRepository) DiscoverersByLandmark(landmarkID uint) ([]models.LandmarkDiscoverer, error) {
	var discoverers []models.LandmarkDiscoverer
	err := r.db.
		Where("landmark_id = ?", landmarkID).
		Order("discovered_at ASC, id ASC").
		Find(&discoverers).Error
	return discoverers, err
}
