// Package api assembles the HTTP routing surface.
package api

import (
	"github.com/gin-gonic/gin"

	apidiscovery "github.com/Fra44/game-based-learning/internal/api/discovery"
)

// HealthChecker reports the health of a backing dependency.
type HealthChecker interface {
	Health() error
}

// NewRouter builds the gin engine with all API routes.
func NewRouter(handler *apidiscovery.Handler, environment string, db HealthChecker, redisPing func() error) *gin.Engine {
	if environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		status := 200
		dbStatus := "ok"
		redisStatus := "ok"
		if err := db.Health(); err != nil {
			dbStatus = err.Error()
			status = 503
		}
		if err := redisPing(); err != nil {
			redisStatus = err.Error()
			status = 503
		}
		c.JSON(status, gin.H{"database": dbStatus, "redis": redisStatus})
	})

	v1 := router.Group("/api/v1")
	{
		v1.POST("/discoveries", handler.SubmitDiscovery)
		v1.GET("/leaderboard", handler.GetLeaderboard)
		v1.GET("/users/:id/progress", handler.GetUserProgress)
		v1.GET("/users/:id/badges", handler.GetUserBadges)
		v1.GET("/badges", handler.GetBadgeCatalog)
		v1.GET("/landmarks/:id/discoverers", handler.GetLandmarkDiscoverers)
	}

	return router
}
