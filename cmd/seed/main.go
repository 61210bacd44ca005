package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/timmy/drawmatch/internal/config"
	"github.com/timmy/drawmatch/internal/logger"
	"github.com/timmy/drawmatch/internal/repository"
	"github.com/timmy/drawmatch/internal/seed"
	"github.com/timmy/drawmatch/internal/service"
)

func main() {
	// Initialize logger first (with defaults)
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "json",
		ServiceName: "drawmatch-seed",
	})
	logger.SetDefaultLogger(appLogger)

	// Parse command line flags
	reset := flag.Bool("reset", false, "Delete all prompts before seeding")
	embed := flag.Bool("embed", false, "Precompute name and description embeddings")
	index := flag.Bool("index", false, "Push description embeddings into the Qdrant prompt index")
	workers := flag.Int("workers", 4, "Concurrent embedding workers")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	appLogger.WithFields(logger.Fields{
		"reset":   *reset,
		"embed":   *embed,
		"index":   *index,
		"workers": *workers,
	}).Info("Starting prompt seeding")

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}
	promptRepo := repository.NewPromptRepository(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	seedCfg := &seed.Config{Workers: *workers}
	if *embed || *index {
		embedder, err := service.NewEmbedder(&cfg.Embedding)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to initialize embedding provider")
		}
		seedCfg.Embedder = service.NewPromptEmbeddingService(embedder, promptRepo)
	}
	if *index {
		qdrantRepo, err := repository.NewPromptVectorRepository(&repository.QdrantConnectionConfig{
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
		defer qdrantRepo.Close()
		if err := qdrantRepo.EnsureCollection(ctx); err != nil {
			appLogger.WithError(err).Fatal("Failed to ensure Qdrant collection")
		}
		seedCfg.Index = qdrantRepo
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("Received shutdown signal, canceling...")
		cancel()
	}()

	stats, err := seed.NewSeeder(promptRepo, seedCfg).Run(ctx, seed.DefaultCards(), seed.Options{
		Reset: *reset,
		Embed: *embed,
		Index: *index,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Seeding failed")
	}

	total, err := promptRepo.Count(ctx)
	if err != nil {
		appLogger.WithError(err).Warn("Failed to count prompts")
	}

	appLogger.WithFields(logger.Fields{
		"total":    total,
		"inserted": stats.Inserted,
		"updated":  stats.Updated,
		"skipped":  stats.Skipped,
		"embedded": stats.Embedded,
		"indexed":  stats.Indexed,
		"failed":   stats.Failed,
	}).Info("Seeding finished")
}
