package database

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"yamdb/internal/config"
	"yamdb/internal/logging"
	"yamdb/internal/microservices/http-api/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Models lists every table in dependency order.
var Models = []any{
	&models.User{},
	&models.Category{},
	&models.Genre{},
	&models.Title{},
	&models.Review{},
	&models.Comment{},
}

// ConnectDB opens the configured database, verifies the connection and
// applies the schema.
func ConnectDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := Open(cfg.DatabaseDriver, cfg.DatabaseURL, newGormLogger(cfg.LogLevel))
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		_ = Close(db)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logging.Info().Str("driver", cfg.DatabaseDriver).Msg("Connected to the database successfully")
	return db, nil
}

// Open connects without migrating.
func Open(driver, dsn string, logger gormlogger.Interface) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(withForeignKeys(dsn))
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	if logger == nil {
		logger = gormlogger.Discard
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	if driver == "sqlite" {
		// a single writer keeps in-memory databases shared and avoids SQLITE_BUSY
		sqlDB.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == "sqlite" {
		// cascades and SET NULL on delete only hold with foreign keys on
		var enabled int
		if err := db.Raw("PRAGMA foreign_keys").Scan(&enabled).Error; err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("failed to read foreign_keys pragma: %w", err)
		}
		if enabled != 1 {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("sqlite foreign keys are disabled by the DSN %q", dsn)
		}
	}

	return db, nil
}

// withForeignKeys adds _foreign_keys=on to a go-sqlite3 DSN unless the DSN
// already sets it.
func withForeignKeys(dsn string) string {
	base, query, _ := strings.Cut(dsn, "?")
	values, err := url.ParseQuery(query)
	if err == nil && (values.Has("_foreign_keys") || values.Has("_fk")) {
		return dsn
	}
	if query == "" {
		return base + "?_foreign_keys=on"
	}
	return dsn + "&_foreign_keys=on"
}

// Migrate creates or updates every table, index and constraint.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models...); err != nil {
		return err
	}
	logging.Info().Msg("Database migrations applied successfully")
	return nil
}

func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type zerologWriter struct{}

func (zerologWriter) Printf(format string, args ...any) {
	logging.Info().Str("component", "gorm").Msgf(format, args...)
}

func newGormLogger(level string) gormlogger.Interface {
	logLevel := gormlogger.Warn
	switch level {
	case "trace", "debug":
		logLevel = gormlogger.Info
	case "error", "fatal", "panic":
		logLevel = gormlogger.Error
	}
	return gormlogger.New(zerologWriter{}, gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logLevel,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
