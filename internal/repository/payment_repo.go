package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vayupay/vayupay-backend/internal/domain"
)

// PaymentRepository handles payment persistence
type PaymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new PaymentRepository
func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create inserts a new payment record
func (r *PaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	return dbFor(ctx, r.db).Create(p).Error
}

// FindByMerchantAndID finds a payment scoped to its owning merchant
func (r *PaymentRepository) FindByMerchantAndID(ctx context.Context, merchantID, paymentID string) (*domain.Payment, error) {
	var p domain.Payment
	err := dbFor(ctx, r.db).
		Where("merchant_id = ? AND id = ?", merchantID, paymentID).
		First(&p).Error
	return &p, err
}

// FindByMerchantAndIDForUpdate reads a payment with a SELECT ... FOR
// UPDATE row lock. Only meaningful inside TxManager.Do; the lock holds
// until the transaction ends and serializes concurrent mutations of the
// same payment.
func (r *PaymentRepository) FindByMerchantAndIDForUpdate(ctx context.Context, merchantID, paymentID string) (*domain.Payment, error) {
	var p domain.Payment
	err := dbFor(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("merchant_id = ? AND id = ?", merchantID, paymentID).
		First(&p).Error
	return &p, err
}

// Update updates a payment record
func (r *PaymentRepository) Update(ctx context.Context, p *domain.Payment) error {
	return dbFor(ctx, r.db).Save(p).Error
}

// ListByMerchant lists a merchant's payments with pagination, newest
// first, optionally filtered by status
func (r *PaymentRepository) ListByMerchant(ctx context.Context, merchantID string, status domain.PaymentStatus, page, perPage int) ([]domain.Payment, int64, error) {
	var payments []domain.Payment
	var total int64

	query := dbFor(ctx, r.db).Model(&domain.Payment{}).Where("merchant_id = ?", merchantID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	query.Count(&total)

	err := query.Order("created_at DESC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&payments).Error

	return payments, total, err
}
