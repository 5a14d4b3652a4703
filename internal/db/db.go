package db

import (
	"fmt"
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"news-assistant/internal/config"
	"news-assistant/internal/history"
)

var DB *gorm.DB

// Open connects to the configured database without migrating
func Open(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Database.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.Database.DSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.Database.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
	return gorm.Open(dialector, &gorm.Config{})
}

func Init(cfg *config.Config) error {
	db, err := Open(cfg)
	if err != nil {
		return err
	}

	// Auto-migrate summary history
	if err := history.Migrate(db); err != nil {
		return err
	}

	DB = db
	log.Printf("[DB] Database connected and migrated (driver: %s)", cfg.Database.Driver)
	return nil
}
