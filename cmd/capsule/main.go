// cmd/capsule/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amaanshakeel0998/capsule-medication-tracker/internal/adherence"
	"github.com/amaanshakeel0998/capsule-medication-tracker/internal/api"
	"github.com/amaanshakeel0998/capsule-medication-tracker/internal/config"
	"github.com/amaanshakeel0998/capsule-medication-tracker/internal/database"
	"go.uber.org/zap"
)

func main() {
	// Create logger
	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(os.Getenv("CAPSULE_CONFIG"))
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	var (
		history     adherence.HistoryStore
		models      adherence.ModelStore
		doses       api.DoseRecorder
		medications api.MedicationManager
		medsStore   adherence.MedicationStore
	)

	switch cfg.Engine.StorageMode {
	case "memory":
		// In-memory store for development and tests
		store := adherence.NewMemoryStore()
		history, models, doses, medications, medsStore = store, store, store, store, store
		logger.Info("using in-memory storage")

	case "postgres":
		pg, err := database.NewPostgres(database.Config{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			Database: cfg.Database.Database,
			SSLMode:  cfg.Database.SSLMode,
		})
		if err != nil {
			logger.Fatal("failed to connect to postgres", zap.Error(err))
		}
		defer func() { _ = pg.Close() }()

		setupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := pg.CreateTables(setupCtx); err != nil {
			cancel()
			logger.Fatal("failed to create tables", zap.Error(err))
		}
		cancel()

		doseStore := database.NewDoseStore(pg.DB(), cfg.Engine.DelayToleranceMinutes)
		medStore := database.NewMedicationStore(pg.DB())
		history = doseStore
		models = database.NewModelStore(pg.DB())
		doses = doseStore
		medications = medStore
		medsStore = medStore
		logger.Info("using postgres storage",
			zap.String("host", cfg.Database.Host),
			zap.String("database", cfg.Database.Database))

	default:
		logger.Fatal("invalid storage mode", zap.String("mode", cfg.Engine.StorageMode))
	}

	engine := adherence.NewEngine(history, medsStore, models, cfg.Engine.Trainer, logger)

	// Warm-start from the latest persisted model so predictions survive restarts.
	restoreCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := engine.RestoreModel(restoreCtx); err != nil {
		logger.Warn("failed to restore model", zap.Error(err))
	}
	cancel()

	server := api.NewServer(cfg, logger, engine, doses, medications)

	// Handle shutdown gracefully
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("shutdown error", zap.Error(err))
		}
		os.Exit(0)
	}()

	if err := server.Start(); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}
