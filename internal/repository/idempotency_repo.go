package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/vayupay/vayupay-backend/internal/domain"
)

// IdempotencyRepository handles idempotency record persistence.
// The unique constraint on (merchant_id, idempotency_key) is the
// authoritative guard against concurrent key reuse.
type IdempotencyRepository struct {
	db *gorm.DB
}

// NewIdempotencyRepository creates a new IdempotencyRepository
func NewIdempotencyRepository(db *gorm.DB) *IdempotencyRepository {
	return &IdempotencyRepository{db: db}
}

// Create inserts a new idempotency record. Returns gorm.ErrDuplicatedKey
// when another request already reserved the same (merchant, key) pair.
func (r *IdempotencyRepository) Create(ctx context.Context, rec *domain.IdempotencyRecord) error {
	return dbFor(ctx, r.db).Create(rec).Error
}

// FindByMerchantAndKey finds a record by its unique scope
func (r *IdempotencyRepository) FindByMerchantAndKey(ctx context.Context, merchantID, key string) (*domain.IdempotencyRecord, error) {
	var rec domain.IdempotencyRecord
	err := dbFor(ctx, r.db).
		Where("merchant_id = ? AND idempotency_key = ?", merchantID, key).
		First(&rec).Error
	return &rec, err
}

// DeleteExpired removes records past their reuse horizon. Best-effort
// housekeeping; correctness never depends on it.
func (r *IdempotencyRepository) DeleteExpired(ctx context.Context) (int64, error) {
	res := dbFor(ctx, r.db).
		Where("expires_at IS NOT NULL AND expires_at < NOW()").
		Delete(&domain.IdempotencyRecord{})
	return res.RowsAffected, res.Error
}
