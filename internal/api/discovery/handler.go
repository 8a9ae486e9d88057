// Package discovery provides REST API handlers for the discovery ledger.
// It exposes the submission endpoint plus read surfaces for progress,
// badges, leaderboards and per-landmark discoverer lists.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Fra44/game-based-learning/internal/models"
	"github.com/Fra44/game-based-learning/internal/repository"
	"github.com/Fra44/game-based-learning/internal/service/discovery"
	"github.com/Fra44/game-based-learning/internal/service/leaderboard"
	"github.com/Fra44/game-based-learning/pkg/logger"
)

// SubmissionService interface for the discovery pipeline.
type SubmissionService interface {
	Submit(ctx context.Context, sub *models.DiscoverySubmission) (*models.DiscoveryOutcome, error)
}

// LeaderboardService interface for leaderboard operations.
type LeaderboardService interface {
	TopExplorers(ctx context.Context, limit int) ([]leaderboard.Entry, error)
	UserRank(ctx context.Context, userID uint) (int, error)
	LandmarkDiscoverers(ctx context.Context, landmarkID uint) ([]leaderboard.DiscovererEntry, error)
}

// ProgressReader interface for user progress reads.
type ProgressReader interface {
	Get(userID uint) (*models.UserProgress, error)
}

// BadgeReader interface for badge reads.
type BadgeReader interface {
	GetAll() ([]models.Badge, error)
	GetUserBadges(userID uint) ([]models.UserBadge, error)
}

// Handler handles discovery API requests.
type Handler struct {
	submissions SubmissionService
	leaderboard LeaderboardService
	progress    ProgressReader
	badges      BadgeReader
	log         *logger.Logger
}

// NewHandler creates a new discovery handler.
func NewHandler(
	coordinator *discovery.Coordinator,
	leaderboardService *leaderboard.Service,
	progressRepo *repository.ProgressRepository,
	badgeRepo *repository.BadgeRepository,
	log *logger.Logger,
) *Handler {
	return &Handler{
		submissions: coordinator,
		leaderboard: leaderboardService,
		progress:    progressRepo,
		badges:      badgeRepo,
		log:         log,
	}
}

// NewHandlerWithInterfaces creates a new discovery handler with interface dependencies (useful for testing).
func NewHandlerWithInterfaces(
	submissions SubmissionService,
	leaderboardService LeaderboardService,
	progress ProgressReader,
	badges BadgeReader,
	log *logger.Logger,
) *Handler {
	return &Handler{
		submissions: submissions,
		leaderboard: leaderboardService,
		progress:    progress,
		badges:      badges,
		log:         log,
	}
}

// submissionRequest is the JSON body of a discovery submission.
type submissionRequest struct {
	UserID           uint      `json:"user_id" binding:"required"`
	Landmark         string    `json:"landmark" binding:"required"`
	Latitude         float64   `json:"latitude"`
	Longitude        float64   `json:"longitude"`
	AccuracyMeters   float64   `json:"accuracy_meters"`
	Confidence       float64   `json:"confidence"`
	ClientTimestamp  time.Time `json:"client_timestamp" binding:"required"`
	IdempotencyToken string    `json:"idempotency_token"`
}

// SubmitDiscovery runs a discovery claim through the verification pipeline.
// POST /api/v1/discoveries.
//
// Rejections are expected, user-facing outcomes and return 200 with the
// rejection reason; faults return 4xx/503 so clients can tell a failed claim
// from a degraded service.
func (h *Handler) SubmitDiscovery(c *gin.Context) {
	var req submissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, fmt.Sprintf("invalid submission body: %v", err))
		return
	}

	sub := &models.DiscoverySubmission{
		UserID:           req.UserID,
		LandmarkSlug:     req.Landmark,
		Latitude:         req.Latitude,
		Longitude:        req.Longitude,
		AccuracyMeters:   req.AccuracyMeters,
		Confidence:       req.Confidence,
		ClientTimestamp:  req.ClientTimestamp,
		IdempotencyToken: req.IdempotencyToken,
	}

	outcome, err := h.submissions.Submit(c.Request.Context(), sub)
	if err != nil {
		switch {
		case errors.Is(err, discovery.ErrMalformedSubmission):
			h.errorResponse(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, discovery.ErrUnknownLandmark):
			h.errorResponse(c, http.StatusUnprocessableEntity, err.Error())
		default:
			h.log.Error().Err(err).Uint("user_id", req.UserID).Msg("Submission pipeline fault")
			h.faultResponse(c, "discovery service degraded, retry later")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"outcome":      outcome,
		"generated_at": time.Now().UTC(),
	})
}

// GetLeaderboard returns the global explorer leaderboard.
// GET /api/v1/leaderboard?limit=10.
func (h *Handler) GetLeaderboard(c *gin.Context) {
	limit, err := h.parseLimit(c, 10)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := h.leaderboard.TopExplorers(c.Request.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get leaderboard")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve leaderboard")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"leaderboard":   entries,
		"total_entries": len(entries),
		"generated_at":  time.Now().UTC(),
	})
}

// GetUserProgress returns a user's progress aggregate and global rank.
// GET /api/v1/users/:id/progress.
func (h *Handler) GetUserProgress(c *gin.Context) {
	userID, err := h.parseUserID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	progress, err := h.progress.Get(userID)
	if err != nil {
		h.errorResponse(c, http.StatusNotFound, "No progress recorded for user")
		return
	}

	rank, err := h.leaderboard.UserRank(c.Request.Context(), userID)
	if err != nil {
		h.log.Warn().Err(err).Uint("user_id", userID).Msg("Failed to get user rank")
		rank = 0
	}

	c.JSON(http.StatusOK, gin.H{
		"progress":     progress,
		"global_rank":  rank,
		"generated_at": time.Now().UTC(),
	})
}

// GetUserBadges returns badges earned by a specific user.
// GET /api/v1/users/:id/badges.
func (h *Handler) GetUserBadges(c *gin.Context) {
	userID, err := h.parseUserID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	userBadges, err := h.badges.GetUserBadges(userID)
	if err != nil {
		h.log.Error().Err(err).Uint("user_id", userID).Msg("Failed to get user badges")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve user badges")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":      userID,
		"badges":       userBadges,
		"total_badges": len(userBadges),
		"generated_at": time.Now().UTC(),
	})
}

// GetBadgeCatalog returns all available badges.
// GET /api/v1/badges.
func (h *Handler) GetBadgeCatalog(c *gin.Context) {
	catalogBadges, err := h.badges.GetAll()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get badge catalog")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve badge catalog")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"badges":       catalogBadges,
		"total_badges": len(catalogBadges),
		"generated_at": time.Now().UTC(),
	})
}

// GetLandmarkDiscoverers returns a landmark's ordered discoverer list.
// GET /api/v1/landmarks/:id/discoverers?limit=50.
func (h *Handler) GetLandmarkDiscoverers(c *gin.Context) {
	landmarkID, err := h.parseLandmarkID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	limit, err := h.parseLimit(c, 50)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	discoverers, err := h.leaderboard.LandmarkDiscoverers(c.Request.Context(), landmarkID)
	if err != nil {
		h.log.Error().Err(err).Uint("landmark_id", landmarkID).Msg("Failed to get discoverers")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve discoverers")
		return
	}

	total := len(discoverers)
	if limit > 0 && len(discoverers) > limit {
		discoverers = discoverers[:limit]
	}

	c.JSON(http.StatusOK, gin.H{
		"landmark_id":       landmarkID,
		"discoverers":       discoverers,
		"total_discoverers": total,
		"generated_at":      time.Now().UTC(),
	})
}

// Helper functions

// parseUserID extracts and validates the user ID from the URL parameter.
func (h *Handler) parseUserID(c *gin.Context) (uint, error) {
	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid user ID: %s", idStr)
	}
	return uint(id), nil
}

// parseLandmarkID extracts and validates the landmark ID from the URL parameter.
func (h *Handler) parseLandmarkID(c *gin.Context) (uint, error) {
	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid landmark ID: %s", idStr)
	}
	return uint(id), nil
}

// parseLimit extracts and validates the limit query parameter.
func (h *Handler) parseLimit(c *gin.Context, defaultLimit int) (int, error) {
	limitStr := c.Query("limit")
	if limitStr == "" {
		return defaultLimit, nil
	}

	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		return 0, fmt.Errorf("invalid limit parameter: %s", limitStr)
	}

	if limit < 1 {
		return 0, fmt.Errorf("limit must be greater than 0")
	}

	if limit > 1000 {
		return 0, fmt.Errorf("limit cannot exceed 1000")
	}

	return limit, nil
}

// errorResponse sends a standardized error response.
func (h *Handler) errorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		"error":     message,
		"timestamp": time.Now().UTC(),
	})
}

// faultResponse reports a degraded service, distinct from a rejection.
func (h *Handler) faultResponse(c *gin.Context, message string) {
	c.JSON(http.StatusServiceUnavailable, gin.H{
		"error":     message,
		"timestamp": time.Now().UTC(),
	})
}
