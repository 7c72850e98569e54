package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Werewolf05/Pulselytics/internal/config"
	"github.com/Werewolf05/Pulselytics/internal/db"
	"github.com/Werewolf05/Pulselytics/internal/handler"
	"github.com/Werewolf05/Pulselytics/internal/middleware"
	"github.com/Werewolf05/Pulselytics/internal/registry"
	"github.com/Werewolf05/Pulselytics/internal/repository"
	"github.com/Werewolf05/Pulselytics/internal/router"
	"github.com/Werewolf05/Pulselytics/internal/service"
)

func main() {
	cfg := config.Load()
	middleware.InitLogger(cfg.LogLevel, "pulselytics")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("database unavailable")
	}
	defer pool.Close()

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid redis url")
		}
		rdb = redis.NewClient(opts)
		defer rdb.Close()
	} else {
		log.Warn().Msg("redis disabled, caching is off")
	}

	reg, err := registry.New(cfg.ModelDir)
	if err != nil {
		log.Fatal().Err(err).Msg("model registry unavailable")
	}

	posts := repository.NewPostRepo(pool)
	cache := service.NewCacheService(rdb)
	anomalies := service.NewAnomalyService(reg, cfg.AnomalyContamination,
		cfg.AnomalyEstimators, cfg.MinDetectorSamples, cfg.RandomSeed)
	trends := service.NewTrendService(cfg.TrendWindow, cfg.TrendThresholdPct, cfg.DropWindow)
	predictor := service.NewPredictorService(reg, cfg.MinPredictorSamples, cfg.RandomSeed)
	insights := service.NewInsightService()

	metrics := handler.NewMetrics(pool)
	analytics := handler.NewAnalyticsHandler(posts, anomalies, trends, insights,
		cache, metrics, cfg.DropThreshold)
	models := handler.NewModelsHandler(posts, anomalies, predictor, reg, cache, metrics)
	health := handler.NewHealthHandler(posts, cache)

	app := fiber.New(fiber.Config{AppName: "pulselytics"})
	app.Use(recoverer.New())
	app.Use(middleware.Logger())
	app.Use(middleware.CORS(cfg.CORSOrigins))
	router.Setup(app, analytics, models, health, metrics)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Environment).Msg("server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown incomplete")
	}
}
