package app

import (
	"fmt"
	"os"

	"gorm.io/gorm"

	"github.com/statusdeck/statusdeck-backend/internal/data/db"
	"github.com/statusdeck/statusdeck-backend/internal/data/repos/snapshots"
	httpapi "github.com/statusdeck/statusdeck-backend/internal/http"
	httpH "github.com/statusdeck/statusdeck-backend/internal/http/handlers"
	"github.com/statusdeck/statusdeck-backend/internal/importer"
	"github.com/statusdeck/statusdeck-backend/internal/platform/logger"
	"github.com/statusdeck/statusdeck-backend/internal/rag"
	"github.com/statusdeck/statusdeck-backend/internal/services"
)

type App struct {
	Log    *logger.Logger
	DB     *gorm.DB
	Server *httpapi.Server
	Cfg    Config
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading configuration...")
	cfg := LoadConfig(log)

	var storage *db.Service
	switch cfg.StorageBackend {
	case "sqlite":
		storage, err = db.NewSQLiteService(log, cfg.SQLitePath)
	default:
		storage, err = db.NewPostgresService(log)
	}
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init storage backend %q: %w", cfg.StorageBackend, err)
	}
	if err := storage.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	gdb := storage.DB()

	thresholds, err := rag.LoadThresholds(cfg.RAGThresholds)
	if err != nil {
		log.Warn("RAG thresholds load failed, using defaults", "error", err)
		thresholds = rag.DefaultThresholds()
	}
	evaluator := rag.NewEvaluator(thresholds)
	parser := importer.NewParser(log, cfg.ImportStrict, evaluator)

	snapshotRepo := snapshots.NewRepo(gdb, log)

	importService := services.NewImportService(gdb, log, parser, snapshotRepo)
	snapshotService := services.NewSnapshotService(gdb, log, snapshotRepo)

	server := httpapi.NewServer(httpapi.RouterConfig{
		Log:             log,
		AllowedOrigins:  cfg.AllowedOrigins,
		ImportHandler:   httpH.NewImportHandler(log, importService),
		SnapshotHandler: httpH.NewSnapshotHandler(log, snapshotService),
		HealthHandler:   httpH.NewHealthHandler(gdb),
	})

	return &App{Log: log, DB: gdb, Server: server, Cfg: cfg}, nil
}

func (a *App) Run() error {
	a.Log.Info("Server listening", "port", a.Cfg.Port, "backend", a.Cfg.StorageBackend)
	return a.Server.Run(":" + a.Cfg.Port)
}
