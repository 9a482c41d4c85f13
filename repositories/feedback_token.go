package repositories

import (
	"context"

	"github.com/clientdesk-api/models"
	"gorm.io/gorm"
)

// FeedbackTokenRepository handles database operations for feedback tokens
type FeedbackTokenRepository struct {
	db *gorm.DB
}

func NewFeedbackTokenRepository(db *gorm.DB) *FeedbackTokenRepository {
	return &FeedbackTokenRepository{db: db}
}

func (r *FeedbackTokenRepository) WithTx(tx *gorm.DB) *FeedbackTokenRepository {
	return &FeedbackTokenRepository{db: tx}
}

func (r *FeedbackTokenRepository) Create(ctx context.Context, token *models.FeedbackToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

// FindByToken looks a token up by its opaque string
func (r *FeedbackTokenRepository) FindByToken(ctx context.Context, token string) (models.FeedbackToken, error) {
	var t models.FeedbackToken
	result := r.db.WithContext(ctx).Where("token = ?", token).First(&t)
	return t, result.Error
}

// FindByProjectID lists every token ever issued for a project, newest first
func (r *FeedbackTokenRepository) FindByProjectID(ctx context.Context, projectID string) ([]models.FeedbackToken, error) {
	var tokens []models.FeedbackToken
	result := r.db.WithContext(ctx).Where("project_id = ?", projectID).Order("created_at desc").Find(&tokens)
	return tokens, result.Error
}

// MarkUsed flips is_used only if it is still false. The boolean reports
// whether this call won; a concurrent consumer that lost sees false.
func (r *FeedbackTokenRepository) MarkUsed(ctx context.Context, id string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.FeedbackToken{}).
		Where("id = ? AND is_used = ?", id, false).
		Update("is_used", true)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
