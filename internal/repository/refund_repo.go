package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/vayupay/vayupay-backend/internal/domain"
)

// RefundRepository handles refund persistence
type RefundRepository struct {
	db *gorm.DB
}

// NewRefundRepository creates a new RefundRepository
func NewRefundRepository(db *gorm.DB) *RefundRepository {
	return &RefundRepository{db: db}
}

// Create inserts a new refund record
func (r *RefundRepository) Create(ctx context.Context, ref *domain.Refund) error {
	return dbFor(ctx, r.db).Create(ref).Error
}

// FindByID finds a refund scoped to its owning merchant
func (r *RefundRepository) FindByID(ctx context.Context, merchantID, refundID string) (*domain.Refund, error) {
	var ref domain.Refund
	err := dbFor(ctx, r.db).
		Where("merchant_id = ? AND id = ?", merchantID, refundID).
		First(&ref).Error
	return &ref, err
}

// FindByPaymentAndKey finds a refund by its idempotency scope
func (r *RefundRepository) FindByPaymentAndKey(ctx context.Context, paymentID, key string) (*domain.Refund, error) {
	var ref domain.Refund
	err := dbFor(ctx, r.db).
		Where("payment_id = ? AND idempotency_key = ?", paymentID, key).
		First(&ref).Error
	return &ref, err
}

// ListByPayment lists all refunds for a payment, oldest first
func (r *RefundRepository) ListByPayment(ctx context.Context, paymentID string) ([]domain.Refund, error) {
	var refunds []domain.Refund
	err := dbFor(ctx, r.db).
		Where("payment_id = ?", paymentID).
		Order("created_at ASC").
		Find(&refunds).Error
	return refunds, err
}
