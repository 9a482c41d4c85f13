package repositories

import (
	"context"
	"time"

	"github.com/clientdesk-api/models"
	"gorm.io/gorm"
)

// PaymentRepository handles database operations for checkout payments
type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) WithTx(tx *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: tx}
}

func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *PaymentRepository) FindByOrderID(ctx context.Context, orderID string) (models.Payment, error) {
	var payment models.Payment
	result := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&payment)
	return payment, result.Error
}

func (r *PaymentRepository) FindByProjectID(ctx context.Context, projectID string) ([]models.Payment, error) {
	var payments []models.Payment
	result := r.db.WithContext(ctx).Where("project_id = ?", projectID).Order("created_at desc").Find(&payments)
	return payments, result.Error
}

// MarkCaptured moves a created payment to captured. It reports false when
// the payment was not in the created state, e.g. a duplicate capture.
func (r *PaymentRepository) MarkCaptured(ctx context.Context, id string, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, models.PaymentStatusCreated).
		Updates(map[string]interface{}{"status": models.PaymentStatusCaptured, "captured_at": at})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *PaymentRepository) MarkFailed(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, models.PaymentStatusCreated).
		Update("status", models.PaymentStatusFailed).Error
}
