package cli

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/tbourn/go-gift-exchange/internal/config"
	"github.com/tbourn/go-gift-exchange/internal/repo"
)

// openDatabase opens the configured store and brings the schema up to date.
// Tracing is attached only when OpenTelemetry is enabled.
func openDatabase(cfg config.Config) (*gorm.DB, error) {
	dsn := cfg.DBPath
	if cfg.DBDriver == repo.DriverPostgres {
		dsn = cfg.DatabaseURL
	}
	db, err := repo.Open(cfg.DBDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.DBDriver, err)
	}
	if cfg.OTEL.Enabled {
		if err := repo.Instrument(db); err != nil {
			closeDatabase(db)
			return nil, fmt.Errorf("instrument database: %w", err)
		}
	}
	if err := repo.AutoMigrate(db); err != nil {
		closeDatabase(db)
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func closeDatabase(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
