package database

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	"github.com/school-system/gradebook/internal/config"
	"github.com/school-system/gradebook/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Connect(cfg *config.Config) (*gorm.DB, error) {
	var logLevel logger.LogLevel
	if cfg.IsDevelopment() {
		logLevel = logger.Info
	} else {
		logLevel = logger.Silent
	}

	dialector, err := dialectorFor(cfg.Database)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("driver", cfg.Database.Driver).
		Str("dsn", maskPassword(cfg.Database.DSN)).
		Msg("Attempting database connection")

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Database.Driver == "sqlite" {
		// sqlite allows a single writer
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
	}

	log.Info().Msg("Database connection successful")
	return db, nil
}

func dialectorFor(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "postgres":
		return postgres.Open(cfg.DSN), nil
	case "mysql":
		return mysql.Open(cfg.DSN), nil
	case "sqlite":
		return sqlite.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func maskPassword(dsn string) string {
	if len(dsn) > 20 {
		return dsn[:20] + "...***..."
	}
	return "***"
}

var lookupIndexes = []struct {
	name string
	ddl  string
}{
	{"idx_students_last_name", "CREATE INDEX IF NOT EXISTS idx_students_last_name ON students(last_name)"},
	{"idx_subjects_name", "CREATE INDEX IF NOT EXISTS idx_subjects_name ON subjects(subject_name)"},
}

func Migrate(db *gorm.DB) error {
	log.Info().Msg("Running migrations...")

	if err := db.AutoMigrate(
		&models.Student{},
		&models.Subject{},
		&models.Grade{},
	); err != nil {
		return err
	}

	// Lookup indexes for the name filters. MySQL rejects IF NOT EXISTS, so failures are logged, not fatal.
	for _, idx := range lookupIndexes {
		if err := db.Exec(idx.ddl).Error; err != nil {
			log.Warn().Err(err).Str("index", idx.name).Msg("Failed to create index")
		}
	}

	return nil
}
