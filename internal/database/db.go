package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/docpipe/doc-chunk-service/internal/models"
)

// DB is the global database handle, set by Setup.
var DB *gorm.DB

// Config holds the database connection settings.
type Config struct {
	Type         string        // database type, currently only sqlite
	DSN          string        // data source name
	MaxOpenConns int           // connection pool: max open connections
	MaxIdleConns int           // connection pool: max idle connections
	MaxLifetime  time.Duration // connection pool: max connection lifetime
}

// DefaultConfig returns the default database configuration.
func DefaultConfig() *Config {
	return &Config{
		Type:         "sqlite",
		DSN:          "data/docchunk.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		MaxLifetime:  time.Hour,
	}
}

// Setup opens the database connection, configures the pool and migrates the
// schema.
func Setup(cfg *Config, log *logrus.Logger) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	var dialector gorm.Dialector
	switch cfg.Type {
	case "sqlite", "":
		if err := ensureDir(cfg.DSN); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
		dialector = sqlite.Open(cfg.DSN)
	default:
		return fmt.Errorf("unsupported database type: %s", cfg.Type)
	}

	gormLogger := logger.New(
		&logrusWriter{log},
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormLogger})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.MaxLifetime)

	DB = db
	if err := autoMigrate(); err != nil {
		return fmt.Errorf("failed to auto migrate: %w", err)
	}

	log.Info("Database connection established")
	return nil
}

// MustDB returns the global database handle and panics if Setup has not run.
func MustDB() *gorm.DB {
	if DB == nil {
		panic(errors.New("database is not initialized, call database.Setup first"))
	}
	return DB
}

// Close closes the database connection.
func Close() error {
	if DB == nil {
		return nil
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}
	return sqlDB.Close()
}

func autoMigrate() error {
	return DB.AutoMigrate(
		&models.Document{},
		&models.DocumentSegment{},
	)
}

func ensureDir(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0755)
}

// logrusWriter adapts logrus to gorm's logger interface.
type logrusWriter struct {
	logger *logrus.Logger
}

func (w *logrusWriter) Printf(format string, args ...interface{}) {
	w.logger.Tracef(format, args...)
}
