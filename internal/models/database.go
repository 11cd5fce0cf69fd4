package models

import (
	"fmt"

	"github.com/jcskyweavermedia/alamo-ai-manual-v2-sub000/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func InitDB(cfg *config.DatabaseConfig) error {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}

	DB = db
	return nil
}

// AutoMigrate creates the engine's read-side schema. All analytical tables
// except tracked_entities are written by the external sentiment-extraction
// pipeline; migration here only guarantees the shape this engine reads.
func AutoMigrate() error {
	return DB.AutoMigrate(
		&TrackedEntity{},
		&PeriodicRollup{},
		&SubCategoryScore{},
		&ReviewMention{},
		&ReviewAlert{},
	)
}

func GetDB() *gorm.DB {
	return DB
}
