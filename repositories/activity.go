package repositories

import (
	"context"

	"github.com/clientdesk-api/models"
	"gorm.io/gorm"
)

// ActivityRepository appends to and reads project activity feeds
type ActivityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) WithTx(tx *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: tx}
}

func (r *ActivityRepository) Create(ctx context.Context, activity *models.Activity) error {
	return r.db.WithContext(ctx).Create(activity).Error
}

// FindByProjectID returns the newest entries first; limit <= 0 means all
func (r *ActivityRepository) FindByProjectID(ctx context.Context, projectID string, limit int) ([]models.Activity, error) {
	var activities []models.Activity
	db := r.db.WithContext(ctx).Where("project_id = ?", projectID).Order("created_at desc")
	if limit > 0 {
		db = db.Limit(limit)
	}
	result := db.Find(&activities)
	return activities, result.Error
}
