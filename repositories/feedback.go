package repositories

import (
	"context"
	"database/sql"

	"github.com/clientdesk-api/models"
	"gorm.io/gorm"
)

// FeedbackRepository handles database operations for submitted feedback
type FeedbackRepository struct {
	db *gorm.DB
}

func NewFeedbackRepository(db *gorm.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

func (r *FeedbackRepository) WithTx(tx *gorm.DB) *FeedbackRepository {
	return &FeedbackRepository{db: tx}
}

func (r *FeedbackRepository) Create(ctx context.Context, feedback *models.Feedback) error {
	return r.db.WithContext(ctx).Create(feedback).Error
}

func (r *FeedbackRepository) FindByProjectID(ctx context.Context, projectID string) ([]models.Feedback, error) {
	var feedback []models.Feedback
	result := r.db.WithContext(ctx).Where("project_id = ?", projectID).Order("created_at desc").Find(&feedback)
	return feedback, result.Error
}

func (r *FeedbackRepository) CountByProjectID(ctx context.Context, projectID string) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&models.Feedback{}).Where("project_id = ?", projectID).Count(&count)
	return count, result.Error
}

// AverageRating ignores feedback submitted without a rating. The second
// return value is false when no rated feedback exists.
func (r *FeedbackRepository) AverageRating(ctx context.Context, projectID string) (float64, bool, error) {
	var avg sql.NullFloat64
	row := r.db.WithContext(ctx).Model(&models.Feedback{}).
		Select("AVG(rating)").
		Where("project_id = ? AND rating IS NOT NULL", projectID).
		Row()
	if err := row.Scan(&avg); err != nil {
		return 0, false, err
	}
	return avg.Float64, avg.Valid, nil
}
