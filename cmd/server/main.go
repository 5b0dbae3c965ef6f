package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/HadilKochtane/galaxyofdrones-online/internal/battle"
	"github.com/HadilKochtane/galaxyofdrones-online/internal/catalog"
	"github.com/HadilKochtane/galaxyofdrones-online/internal/clock"
	"github.com/HadilKochtane/galaxyofdrones-online/internal/middleware"
	"github.com/HadilKochtane/galaxyofdrones-online/internal/movement"
	"github.com/HadilKochtane/galaxyofdrones-online/internal/notify"
	"github.com/HadilKochtane/galaxyofdrones-online/internal/planet"
	"github.com/HadilKochtane/galaxyofdrones-online/internal/player"
	"github.com/HadilKochtane/galaxyofdrones-online/internal/server"
	"github.com/HadilKochtane/galaxyofdrones-online/internal/shared/config"
	"github.com/HadilKochtane/galaxyofdrones-online/internal/shared/database"
	"github.com/HadilKochtane/galaxyofdrones-online/internal/shared/logger"
	sharedredis "github.com/HadilKochtane/galaxyofdrones-online/internal/shared/redis"
	"github.com/HadilKochtane/galaxyofdrones-online/internal/state"
	"github.com/HadilKochtane/galaxyofdrones-online/internal/transfer"
	"github.com/HadilKochtane/galaxyofdrones-online/internal/universe"
)

func main() {
	if err := config.Init(); err != nil {
		slog.Error("Failed to initialize configuration", "error", err)
		os.Exit(1)
	}

	logger.Init()
	log := slog.Default()
	log.Info("Starting Galaxy of Drones server",
		"environment", config.GlobalConfig.Server.Environment,
		"port", config.GlobalConfig.Server.Port,
	)

	db, err := database.Connect()
	if err != nil {
		log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", "error", err)
		}
	}()

	if err := db.RunMigrations(); err != nil {
		log.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	redisClient, err := sharedredis.Connect()
	if err != nil {
		log.Error("Failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Failed to close redis", "error", err)
			}
		}()
	}

	buildingCatalog, err := catalog.Load(config.GlobalConfig.Catalog.BuildingsPath)
	if err != nil {
		log.Error("Failed to load building catalog", "error", err)
		os.Exit(1)
	}
	log.Info("Building catalog loaded", "buildings", buildingCatalog.Len())

	clk := clock.System{}
	notifier := notify.New(redisClient, log)

	playerRepo := player.NewRepository(db, log)
	planetRepo := planet.NewRepository(db, log)
	movementRepo := movement.NewRepository(db, log)
	battleRepo := battle.NewRepository(db, log)

	planetService := planet.NewService(planetRepo, clk, log)
	aggregator := state.NewAggregator(db, planetRepo, playerRepo, buildingCatalog, clk, log)
	transferController := transfer.NewController(db, planetRepo, movementRepo, playerRepo, aggregator, notifier, log)
	battleResolver := battle.NewResolver(db, movementRepo, planetRepo, battleRepo, planetService, notifier, log)

	playerService := player.NewService(db, playerRepo, planetRepo, aggregator, notifier, clk, log)

	universeService := universe.NewService(db, planetRepo, log)

	ctx := context.Background()
	if err := universeService.EnsureGenerated(ctx); err != nil {
		log.Error("Failed to generate universe", "error", err)
		os.Exit(1)
	}

	routes := server.NewRoutes(db, playerService, playerRepo, planetService, planetRepo, movementRepo, battleRepo, battleResolver, transferController, clk, log)
	mux := routes.Setup()

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: config.GlobalConfig.RateLimit.RequestsPerSecond,
		BurstSize:         config.GlobalConfig.RateLimit.BurstSize,
		Enabled:           config.GlobalConfig.RateLimit.Enabled,
	})
	corsMiddleware := middleware.NewCORS()

	handler := corsMiddleware.Middleware(rateLimiter.Middleware(mux))

	srv := &http.Server{
		Addr:         ":" + config.GlobalConfig.Server.Port,
		Handler:      handler,
		ReadTimeout:  config.GlobalConfig.Server.ReadTimeout,
		WriteTimeout: config.GlobalConfig.Server.WriteTimeout,
		IdleTimeout:  config.GlobalConfig.Server.IdleTimeout,
	}

	go func() {
		log.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("Server stopped")
}
