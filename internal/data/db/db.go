package db

import (
	"fmt"
	stdlog "log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/statusdeck/statusdeck-backend/internal/domain"
	"github.com/statusdeck/statusdeck-backend/internal/platform/logger"
	"github.com/statusdeck/statusdeck-backend/internal/utils"
)

// Service owns the GORM handle for whichever backend is configured. The
// pipeline only sees *gorm.DB through the repositories, so postgres and sqlite
// stay interchangeable.
type Service struct {
	db  *gorm.DB
	log *logger.Logger
}

func (s *Service) DB() *gorm.DB {
	return s.db
}

func newGormConfig() *gorm.Config {
	gormLog := gormLogger.New(
		stdlog.New(os.Stdout, "\r\n", stdlog.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	return &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLog,
	}
}

// NewPostgresService connects to postgres using the usual POSTGRES_* env vars.
func NewPostgresService(logg *logger.Logger) (*Service, error) {
	serviceLog := logg.With("service", "PostgresService")

	host := utils.GetEnv("POSTGRES_HOST", "localhost", logg)
	port := utils.GetEnv("POSTGRES_PORT", "5432", logg)
	user := utils.GetEnv("POSTGRES_USER", "postgres", logg)
	password := utils.GetEnv("POSTGRES_PASSWORD", "", logg)
	name := utils.GetEnv("POSTGRES_NAME", "statusdeck", logg)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, name)

	gdb, err := gorm.Open(postgres.Open(dsn), newGormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	serviceLog.Info("Connected to Postgres", "host", host, "db", name)
	return &Service{db: gdb, log: serviceLog}, nil
}

// NewSQLiteService opens an embedded sqlite database at path. ":memory:" is
// accepted for tests. WAL mode plus a busy timeout keeps concurrent writers
// retryable rather than immediately failing.
func NewSQLiteService(logg *logger.Logger, path string) (*Service, error) {
	serviceLog := logg.With("service", "SQLiteService")

	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("%s?_busy_timeout=5000&_journal_mode=WAL", path)
	}
	gdb, err := gorm.Open(sqlite.Open(dsn), newGormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	serviceLog.Info("Opened sqlite database", "path", path)
	return &Service{db: gdb, log: serviceLog}, nil
}

// AutoMigrateAll creates or updates every persisted table.
func (s *Service) AutoMigrateAll() error {
	return AutoMigrate(s.db)
}

func AutoMigrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&domain.Snapshot{},
		&domain.SnapshotHeaders{},
		&domain.SnapshotStatusRow{},
		&domain.SnapshotHighlight{},
		&domain.SnapshotMilestone{},
		&domain.SnapshotMetrics{},
		&domain.CurrentPointer{},
		&domain.VersionEvent{},
	)
}
