package database

import (
	"fmt"
	"log/slog"

	"github.com/hugh/go-crm/internal/database/models"
	"github.com/hugh/go-crm/pkg/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var logLevels = map[string]logger.LogLevel{
	"silent": logger.Silent,
	"error":  logger.Error,
	"warn":   logger.Warn,
	"info":   logger.Info,
}

// Connect opens the postgres pool described by cfg.
func Connect(cfg *config.DatabaseConfig, log *slog.Logger) (*gorm.DB, error) {
	level, ok := logLevels[cfg.LogLevel]
	if !ok {
		level = logger.Warn
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(level),
		// Unique violations surface as gorm.ErrDuplicatedKey.
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening %s on %s: %w", cfg.Name, cfg.Host, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting underlying db: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime())

	log.Info("connected to database",
		"host", cfg.Host,
		"database", cfg.Name,
		"max_open_conns", cfg.MaxOpenConns,
		"log_level", cfg.LogLevel,
	)
	return db, nil
}

// AutoMigrate syncs the schema from the gorm models. Tests use it on sqlite;
// production schemas come from the SQL migrations in Migrate.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto-migrating %d models: %w", len(models.All()), err)
	}
	return nil
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
