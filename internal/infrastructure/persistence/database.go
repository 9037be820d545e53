package persistence

import (
	"fmt"
	"time"

	"github.com/salesrecon/backend/internal/infrastructure/config"
	applog "github.com/salesrecon/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database holds the analytical store connection
type Database struct {
	DB *gorm.DB
}

// NewDatabase opens the configured store. SQL statements are routed to zap
// through the gorm logger adapter.
func NewDatabase(cfg *config.DatabaseConfig, log *zap.Logger, logLevel logger.LogLevel) (*Database, error) {
	db, err := gorm.Open(dialector(cfg), &gorm.Config{
		Logger:                 applog.NewGormLogger(log, logLevel),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if cfg.Driver == "sqlite" {
		// One writer; an in-memory database also lives on a single connection.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{DB: db}, nil
}

func dialector(cfg *config.DatabaseConfig) gorm.Dialector {
	if cfg.Driver == "postgres" {
		return postgres.Open(cfg.DSN())
	}
	return sqlite.Open(cfg.DSN())
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Ping checks if the database connection is alive
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Ping()
}

// AutoMigrate creates or updates every pipeline table from the gorm models.
// Used for the embedded sqlite store and tests; server stores use migrations.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&RawOrderAModel{},
		&RawOrderBModel{},
		&CityDistrictModel{},
		&CityTranslationModel{},
		&DistrictTranslationModel{},
		&CurrencyRateModel{},
		&CanonicalOrderModel{},
		&QuarantinedRecordModel{},
		&CuratedOrderModel{},
		&ClusterAssignmentModel{},
	)
}
