package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/clientdesk-api/config"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"moul.io/zapgorm2"
)

// Connect opens the Postgres connection pool and applies pool settings
func Connect(cfg config.DBConfig, log *zap.Logger) (*gorm.DB, error) {
	if cfg.URL == "" {
		return nil, errors.New("database URL cannot be empty")
	}

	db, err := gorm.Open(postgres.Open(cfg.URL), &gorm.Config{
		Logger: NewGormLogger(log),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get and configure the underlying SQL DB
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get SQL DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	var version string
	if err := db.Raw("SELECT version()").Scan(&version).Error; err == nil {
		log.Info("connected to database", zap.String("version", version))
	}

	return db, nil
}

// NewGormLogger routes gorm's query log through zap
func NewGormLogger(log *zap.Logger) logger.Interface {
	l := zapgorm2.New(log.Named("gorm"))
	l.SlowThreshold = time.Second
	l.IgnoreRecordNotFoundError = true
	l.SetAsDefault()
	return l.LogMode(logger.Warn)
}

// Close releases the pool behind db
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
