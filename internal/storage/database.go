package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Anirudh9794/container-service-extension/internal/errors"
	applogger "github.com/Anirudh9794/container-service-extension/internal/logger"
	"github.com/Anirudh9794/container-service-extension/internal/migrations"
)

// Database wraps the GORM database connection with additional functionality
type Database struct {
	db     *gorm.DB
	logger applogger.Interface
}

// Config holds database configuration
type Config struct {
	Path            string `yaml:"path"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime string `yaml:"conn_max_lifetime"`
	LogLevel        string `yaml:"log_level"`
}

// DefaultConfig returns default database configuration
func DefaultConfig() *Config {
	return &Config{
		Path:            "data/cse.db",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: "5m",
		LogLevel:        "warn",
	}
}

// New creates a new database connection and runs pending migrations
func New(config *Config, logger applogger.Interface) (*Database, error) {
	database, err := open(config, logger)
	if err != nil {
		return nil, err
	}

	if err := database.migrate(); err != nil {
		return nil, errors.Wrapf(err, "failed to migrate database")
	}

	logger.WithField("path", config.Path).Info("Database connection established")
	return database, nil
}

// NewWithoutMigration creates a new database connection without running
// migrations. Used by migration commands that manage migrations explicitly.
func NewWithoutMigration(config *Config, logger applogger.Interface) (*Database, error) {
	database, err := open(config, logger)
	if err != nil {
		return nil, err
	}

	logger.WithField("path", config.Path).Info("Database connection established (without migrations)")
	return database, nil
}

func open(config *Config, logger applogger.Interface) (*Database, error) {
	if config == nil {
		config = DefaultConfig()
	}

	if err := ensureDirExists(config.Path); err != nil {
		return nil, errors.Wrapf(err, "failed to create database directory")
	}

	db, err := gorm.Open(sqlite.Open(config.Path), &gorm.Config{
		Logger:         newGormLogAdapter(logger.WithField("component", "database"), config.LogLevel),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get underlying sql.DB")
	}

	sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	sqlDB.SetMaxIdleConns(config.MaxIdleConns)

	if config.ConnMaxLifetime != "" {
		duration, err := time.ParseDuration(config.ConnMaxLifetime)
		if err != nil {
			logger.Warnf("Invalid conn_max_lifetime '%s', using default 5m", config.ConnMaxLifetime)
			duration = 5 * time.Minute
		}
		sqlDB.SetConnMaxLifetime(duration)
	}

	return &Database{db: db, logger: logger}, nil
}

// DB returns the underlying GORM database instance
func (d *Database) DB() *gorm.DB {
	return d.db
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Health checks database connectivity
func (d *Database) Health() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// migrate runs database migrations
func (d *Database) migrate() error {
	d.logger.Info("Running database migrations")

	migrator := migrations.NewMigrator(d.db, d.logger)

	if err := migrator.ValidateMigrationOrder(); err != nil {
		return errors.Wrapf(err, "migration validation failed")
	}

	if err := migrator.Up(); err != nil {
		return errors.Wrapf(err, "failed to run migrations")
	}

	d.logger.Info("Database migrations completed successfully")
	return nil
}

func ensureDirExists(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// gormLogAdapter routes GORM's logger interface into the application logger
type gormLogAdapter struct {
	logger applogger.Interface
	level  gormlogger.LogLevel
}

func newGormLogAdapter(logger applogger.Interface, level string) *gormLogAdapter {
	l := gormlogger.Warn
	switch level {
	case "error":
		l = gormlogger.Error
	case "warn":
		l = gormlogger.Warn
	case "info":
		l = gormlogger.Info
	case "silent":
		l = gormlogger.Silent
	}
	return &gormLogAdapter{logger: logger, level: l}
}

func (a *gormLogAdapter) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	return &gormLogAdapter{logger: a.logger, level: level}
}

func (a *gormLogAdapter) Info(_ context.Context, msg string, args ...interface{}) {
	if a.level >= gormlogger.Info {
		a.logger.Infof(msg, args...)
	}
}

func (a *gormLogAdapter) Warn(_ context.Context, msg string, args ...interface{}) {
	if a.level >= gormlogger.Warn {
		a.logger.Warnf(msg, args...)
	}
}

func (a *gormLogAdapter) Error(_ context.Context, msg string, args ...interface{}) {
	if a.level >= gormlogger.Error {
		a.logger.Errorf(msg, args...)
	}
}

func (a *gormLogAdapter) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if a.level < gormlogger.Info && err == nil {
		return
	}
	sql, rows := fc()
	entry := a.logger.WithFields(map[string]interface{}{
		"elapsed": time.Since(begin).String(),
		"rows":    rows,
	})
	if err != nil && err != gorm.ErrRecordNotFound && a.level >= gormlogger.Error {
		entry.WithError(err).Error(fmt.Sprintf("query failed: %s", sql))
		return
	}
	if a.level >= gormlogger.Info {
		entry.Debug(sql)
	}
}
