// internal/database/connection.go
package database

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/javajoker/artmarket-backend/internal/config"
	"github.com/javajoker/artmarket-backend/internal/models"
)

var DB *gorm.DB

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var err error

	DB, err = gorm.Open(Dialector(cfg), GormConfig(cfg.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB
	sqlDB, err := DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool. An in-memory sqlite database exists per
	// connection, so it is pinned to one.
	if cfg.Driver == "sqlite" {
		cfg.MaxOpenConns = 1
		cfg.MaxIdleConns = 1
		cfg.MaxLifetime = 0
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"driver":   cfg.Driver,
		"host":     cfg.Host,
		"database": cfg.Database,
	}).Info("Database connection established")
	return DB, nil
}

// Dialector picks the GORM dialector for the configured driver. Postgres
// goes through the lib/pq database/sql driver; sqlite is the pure Go one
// used for local development and tests.
func Dialector(cfg config.DatabaseConfig) gorm.Dialector {
	if cfg.Driver == "sqlite" {
		return sqlite.Open(cfg.DSN())
	}
	return postgres.New(postgres.Config{
		DriverName: "postgres",
		DSN:        cfg.DSN(),
	})
}

// GormConfig maps DB_LOG_LEVEL onto the GORM logger.
func GormConfig(logLevel string) *gorm.Config {
	switch logLevel {
	case "silent":
		return &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	case "error":
		return &gorm.Config{Logger: logger.Default.LogMode(logger.Error)}
	case "warn":
		return &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}
	default:
		return &gorm.Config{Logger: logger.Default.LogMode(logger.Info)}
	}
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		logrus.WithError(err).Error("Error getting underlying sql.DB")
		return
	}

	if err := sqlDB.Close(); err != nil {
		logrus.WithError(err).Error("Error closing database connection")
	} else {
		logrus.Info("Database connection closed")
	}
}

func RunMigrations(db *gorm.DB) error {
	logrus.Info("Running database migrations...")

	err := db.AutoMigrate(
		&models.User{},
		&models.Listing{},
		&models.Offer{},
		&models.Post{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Create indexes
	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	logrus.Info("Database migrations completed")
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		// Listing indexes
		"CREATE INDEX IF NOT EXISTS idx_listings_owner_created ON listings(owner_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_listings_category_price ON listings(category, price)",
		"CREATE INDEX IF NOT EXISTS idx_listings_created_at ON listings(created_at DESC)",

		// Offer indexes
		"CREATE INDEX IF NOT EXISTS idx_offers_listing_status ON offers(listing_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_offers_bidder_created ON offers(bidder_id, created_at DESC)",

		// Post indexes
		"CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at DESC)",

		// Audit indexes
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_user_action ON audit_logs(user_id, action)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_resource ON audit_logs(resource_type, resource_id)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_created ON audit_logs(created_at DESC)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			logrus.WithError(err).WithField("index", index).Warn("Failed to create index")
		}
	}

	// At most one accepted offer per listing. Offer acceptance depends on
	// this, so a failure here fails the migration.
	if err := db.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_offers_one_accepted ON offers(listing_id) " +
			"WHERE status = 'accepted' AND deleted_at IS NULL",
	).Error; err != nil {
		return fmt.Errorf("failed to create accepted offer index: %w", err)
	}

	if db.Dialector.Name() == "postgres" {
		search := "CREATE INDEX IF NOT EXISTS idx_listings_search ON listings " +
			"USING GIN(to_tsvector('english', title || ' ' || coalesce(artist, '')))"
		if err := db.Exec(search).Error; err != nil {
			logrus.WithError(err).Warn("Failed to create listing search index")
		}
	}

	return nil
}

// Transaction helper
func WithTransaction(db *gorm.DB, fn func(*gorm.DB) error) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}
