package database

import (
	"fmt"

	"github.com/clientdesk-api/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Models lists every table in migration order
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Project{},
		&models.Activity{},
		&models.FeedbackToken{},
		&models.Feedback{},
		&models.Notification{},
		&models.Payment{},
	}
}

// Migrate migrates the database schema
func Migrate(db *gorm.DB, log *zap.Logger) error {
	log.Info("migrating database schema")
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	log.Info("database schema migrated")
	return nil
}
