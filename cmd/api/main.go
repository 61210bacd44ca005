package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/timmy/drawmatch/internal/api"
	"github.com/timmy/drawmatch/internal/api/middleware"
	"github.com/timmy/drawmatch/internal/config"
	"github.com/timmy/drawmatch/internal/logger"
	"github.com/timmy/drawmatch/internal/metrics"
	"github.com/timmy/drawmatch/internal/presence"
	"github.com/timmy/drawmatch/internal/repository"
	"github.com/timmy/drawmatch/internal/service"
	"github.com/timmy/drawmatch/internal/storage"
)

func main() {
	appLogger := logger.NewFromEnv(logger.LoadFromEnv("drawmatch-api"))
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	// Support CONFIG_PATH environment variable for production deployments
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}
	sqlDB, err := db.DB()
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to access database handle")
	}
	defer sqlDB.Close()

	promptRepo := repository.NewPromptRepository(db)
	leaderboardRepo := repository.NewLeaderboardRepository(db)
	m := metrics.Default()

	vision, err := service.NewVisionClient(ctx, &cfg.Vision)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize vision client")
	}

	evalCfg := &service.EvaluationConfig{
		Prompts:   promptRepo,
		Moderator: service.NewSafetyGate(vision, cfg.Moderation.MinConfidence, cfg.Vision.Timeout),
		Labeler:   service.NewLabelExtractor(vision, cfg.Vision.MaxLabels, cfg.Vision.MinConfidence, cfg.Vision.Timeout),
		Metrics:   m,
		FailOpen:  cfg.Moderation.FailOpen,
	}
	if cfg.Moderation.FailOpen {
		appLogger.Warn("Moderation is configured to fail open")
	}

	if cfg.Embedding.Enabled() {
		embedder, err := service.NewEmbedder(&cfg.Embedding)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to initialize embedding provider")
		}
		evalCfg.Embedder = embedder
		evalCfg.Policy = service.NewWeightedPolicy(service.NewPromptEmbeddingService(embedder, promptRepo))
	} else {
		appLogger.Warn("No embedding API key configured, drawings are scored by label overlap only")
	}

	if cfg.Scoring.Policy == "nearest" && evalCfg.Embedder != nil {
		index, err := repository.NewPromptVectorRepository(&repository.QdrantConnectionConfig{
			Host:            cfg.Qdrant.Host,
			Port:            cfg.Qdrant.Port,
			Collection:      cfg.Qdrant.Collection,
			APIKey:          cfg.Qdrant.APIKey,
			UseTLS:          cfg.Qdrant.UseTLS,
			VectorDimension: cfg.Embedding.Dimensions,
			Timeout:         cfg.Qdrant.Timeout,
		})
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to initialize Qdrant repository")
		}
		defer index.Close()
		if err := index.EnsureCollection(ctx); err != nil {
			appLogger.WithError(err).Fatal("Failed to ensure Qdrant collection")
		}
		evalCfg.Policy = service.NewNearestPromptPolicy(index, cfg.Qdrant.Timeout)
	}

	if cfg.Archive.Enabled {
		objectStorage, err := storage.NewStorage(&cfg.Archive)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to initialize drawing archive")
		}
		if err := objectStorage.EnsureBucket(ctx); err != nil {
			appLogger.WithError(err).Fatal("Failed to ensure archive bucket")
		}
		evalCfg.Archive = service.NewDrawingArchive(objectStorage, cfg.Vision.Timeout)
	}

	tracker := presence.NewTracker(
		presence.WithTTL(cfg.Presence.TTL),
		presence.WithSweepInterval(cfg.Presence.SweepInterval),
		presence.WithOnCount(m.SetActiveSessions),
	)
	go tracker.Run(ctx)
	appLogger.WithField("ttl", tracker.TTL().String()).Info("Presence tracker started")

	leaderboard := service.NewLeaderboardService(leaderboardRepo, service.NewNameFilter(cfg.Leaderboard.BlockedWords),
		&service.LeaderboardConfig{
			DefaultLimit: cfg.Leaderboard.DefaultLimit,
			MaxLimit:     cfg.Leaderboard.MaxLimit,
			Metrics:      m,
		})

	router := api.SetupRouter(&api.Services{
		Prompts:     service.NewPromptService(promptRepo),
		Evaluator:   service.NewEvaluationService(evalCfg),
		Leaderboard: leaderboard,
		Presence:    tracker,
		Database:    sqlDB,
	}, &api.RouterConfig{
		Mode: cfg.Server.Mode,
		CORS: middleware.CORSConfig{
			AllowedOrigins:  cfg.Server.CORS.AllowedOrigins,
			AllowAllOrigins: cfg.Server.CORS.AllowAllOrigins,
		},
		BodyLimitBytes: cfg.Server.BodyLimitBytes,
		Logger:         appLogger,
		Metrics:        m,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.WithFields(logger.Fields{
			"port":   cfg.Server.Port,
			"mode":   cfg.Server.Mode,
			"policy": cfg.Scoring.Policy,
			"vision": cfg.Vision.Provider,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("Server forced to shutdown")
	}

	appLogger.Info("Server exited")
}
