package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/codyseavey/card-flip-checker/internal/models"
)

// Open connects to the ledger database and migrates the schema.
// driver is "sqlite" (dsn is a file path) or "postgres" (dsn is a URL).
func Open(driver, dsn string, log *zap.Logger, debug bool) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "", "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	level := logger.Warn
	if debug {
		level = logger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	log.Info("Database connected successfully", zap.String("driver", dialector.Name()))

	if err := db.AutoMigrate(&models.DailyProfit{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	log.Info("Database migration completed")
	return db, nil
}
