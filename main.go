package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/camden-git/familytree/config"
	"github.com/camden-git/familytree/database"
	"github.com/camden-git/familytree/familyio"
	"github.com/camden-git/familytree/handlers"
	"github.com/camden-git/familytree/models"
	"github.com/camden-git/familytree/realtime"
	"github.com/camden-git/familytree/repository"
	"github.com/camden-git/familytree/services"
	"github.com/camden-git/familytree/workers"
)

func newLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// loadFamily reads the persisted tree, seeding an empty database from cfg.SeedFile
func loadFamily(cfg config.Config, repo *repository.FamilyRepository, logger *zap.Logger) (*models.FamilyData, error) {
	data, err := repo.Load()
	if err != nil {
		return nil, err
	}
	if data.PersonCount() == 0 && cfg.SeedFile != "" {
		logger.Info("seeding empty database", zap.String("file", cfg.SeedFile))
		seeded, err := familyio.LoadFile(cfg.SeedFile)
		if err != nil {
			return nil, err
		}
		if cfg.FamilyDescription != "" {
			seeded.Description = cfg.FamilyDescription
		}
		if err := repo.Save(seeded); err != nil {
			return nil, err
		}
		data = seeded
	}
	return data, nil
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Info: No .env file found or error loading: %v", err)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	for _, warning := range cfg.Warnings {
		logger.Warn("configuration", zap.String("warning", warning))
	}

	for _, p := range []string{cfg.MediaStoragePath, cfg.PortraitsPath, filepath.Dir(cfg.DatabasePath)} {
		if err := os.MkdirAll(p, 0755); err != nil {
			logger.Fatal("failed to create storage directory", zap.String("path", p), zap.Error(err))
		}
	}

	db, err := database.InitGormDB(cfg.DatabasePath, logger)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	if err := database.AutoMigrateModels(db); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}
	metaDB, err := database.InitDB(cfg.DatabasePath, logger)
	if err != nil {
		logger.Fatal("failed to initialize metadata store", zap.Error(err))
	}
	defer metaDB.Close()

	repo := repository.NewFamilyRepository(db, metaDB, logger)
	data, err := loadFamily(cfg, repo, logger)
	if err != nil {
		logger.Fatal("failed to load family tree", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := realtime.NewHub(logger)
	go hub.Run(ctx)

	tree := services.NewFamilyTree(data, services.WithLogger(logger), services.WithListener(hub.Listener()))
	logger.Info("family tree loaded",
		zap.Int("persons", data.PersonCount()),
		zap.Int("marriages", data.MarriageCount()),
		zap.String("database", cfg.DatabasePath),
	)

	portraits := workers.NewPortraitProcessor(cfg, repo, tree, logger)

	router, err := handlers.NewRouter(handlers.Dependencies{
		Cfg:       cfg,
		Tree:      tree,
		Repo:      repo,
		Portraits: portraits,
		WebSocket: hub.ServeWS,
		Logger:    logger,
	})
	if err != nil {
		logger.Fatal("failed to build router", zap.Error(err))
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 70 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	portraits.Stop()
}
