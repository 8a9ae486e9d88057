package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/Fra44/game-based-learning/internal/api"
	apidiscovery "github.com/Fra44/game-based-learning/internal/api/discovery"
	"github.com/Fra44/game-based-learning/internal/catalog"
	"github.com/Fra44/game-based-learning/internal/config"
	"github.com/Fra44/game-based-learning/internal/models"
	"github.com/Fra44/game-based-learning/internal/repository"
	"github.com/Fra44/game-based-learning/internal/service/antiabuse"
	svcdiscovery "github.com/Fra44/game-based-learning/internal/service/discovery"
	"github.com/Fra44/game-based-learning/internal/service/geo"
	"github.com/Fra44/game-based-learning/internal/service/leaderboard"
	"github.com/Fra44/game-based-learning/internal/service/recognition"
	"github.com/Fra44/game-based-learning/internal/service/rewards"
	"github.com/Fra44/game-based-learning/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	log := logger.Get()

	db, err := repository.NewDB(&cfg.Database.Postgres, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := db.AutoMigrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Database.Redis.Host, cfg.Database.Redis.Port),
		Password: cfg.Database.Redis.Password,
		DB:       cfg.Database.Redis.DB,
		PoolSize: cfg.Database.Redis.PoolSize,
	})
	defer redisClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	log.Info().
		Str("host", cfg.Database.Redis.Host).
		Int("port", cfg.Database.Redis.Port).
		Msg("Connected to Redis")

	store := repository.NewStore(db)

	if err := catalog.Seed(cfg.Catalog.Path, store.Landmarks, log); err != nil {
		log.Fatal().Err(err).Msg("Failed to load landmark catalog")
	}
	seedBadges(cfg.Badges, store.Badges, log)

	guard := antiabuse.NewGuard(redisClient, cfg.AntiAbuse, log)
	verifier := geo.NewVerifier(cfg.Verification.AccuracySlackFactor)
	gate := recognition.NewGate(cfg.Recognition)
	calculator := rewards.NewCalculator(cfg.Rewards, cfg.Badges)

	coordinator := svcdiscovery.NewCoordinator(store, guard, verifier, gate, calculator, log)
	leaderboardService := leaderboard.NewService(store.Progress, store.Badges, store.Stats, log)

	handler := apidiscovery.NewHandler(coordinator, leaderboardService, store.Progress, store.Badges, log)
	router := api.NewRouter(handler, cfg.Server.Environment, db, func() error {
		return redisClient.Ping(context.Background()).Err()
	})

	if cfg.Metrics.Prometheus.Enabled {
		go serveMetrics(cfg.Metrics.Prometheus, log)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("Discovery ledger listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Forced shutdown")
	}
}

// seedBadges upserts the configured badge table. Unknown or renamed badge
// definitions replace the stored rows; earned user badges are untouched.
func seedBadges(badges []config.BadgeConfig, repo *repository.BadgeRepository, log *logger.Logger) {
	for _, b := range badges {
		err := repo.Upsert(&models.Badge{
			Name:            b.Name,
			Description:     b.Description,
			Icon:            b.Icon,
			Category:        b.Category,
			MinDiscoveries:  b.MinDiscoveries,
			FirstGlobalOnly: b.FirstGlobalOnly,
		})
		if err != nil {
			log.Fatal().Err(err).Str("badge", b.Name).Msg("Failed to seed badge")
		}
	}
	log.Info().Int("badges", len(badges)).Msg("Badge table seeded")
}

func serveMetrics(cfg config.PrometheusConfig, log *logger.Logger) {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.Handler())
	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Info().Str("addr", addr).Str("path", cfg.Path).Msg("Prometheus exporter listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error().Err(err).Msg("Metrics server failed")
	}
}
