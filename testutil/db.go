// Package testutil provides an in-memory database and fixtures for tests
package testutil

import (
	"fmt"
	"testing"

	"github.com/clientdesk-api/database"
	"github.com/clientdesk-api/models"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a private in-memory SQLite database with the full schema.
// The pool holds one connection, so transactions run one at a time.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(database.Models()...); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// CreateUser inserts a user with the given role
func CreateUser(t *testing.T, db *gorm.DB, email string, role models.Role) models.User {
	t.Helper()
	user := models.User{Email: email, Password: "x", Role: role}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

// CreateProject inserts a project owned by userID. opts can adjust the
// project before insert.
func CreateProject(t *testing.T, db *gorm.DB, userID string, opts ...func(*models.Project)) models.Project {
	t.Helper()
	project := models.Project{
		UserID:   userID,
		Title:    "Company website",
		Status:   models.ProjectStatusPendingReview,
		Currency: "USD",
	}
	for _, opt := range opts {
		opt(&project)
	}
	if err := db.Create(&project).Error; err != nil {
		t.Fatalf("failed to create project: %v", err)
	}
	return project
}

// Count returns the number of rows of model matching the optional condition
func Count(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	q := db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Count(&n).Error; err != nil {
		t.Fatalf("failed to count: %v", err)
	}
	return n
}
