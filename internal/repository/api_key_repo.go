package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/vayupay/vayupay-backend/internal/domain"
)

// APIKeyRepository handles API key persistence
type APIKeyRepository struct {
	db *gorm.DB
}

// NewAPIKeyRepository creates a new APIKeyRepository
func NewAPIKeyRepository(db *gorm.DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

// Create inserts a new API key record
func (r *APIKeyRepository) Create(ctx context.Context, k *domain.APIKey) error {
	return dbFor(ctx, r.db).Create(k).Error
}

// FindByHash finds an API key by its SHA-256 hash
func (r *APIKeyRepository) FindByHash(ctx context.Context, hash string) (*domain.APIKey, error) {
	var k domain.APIKey
	err := dbFor(ctx, r.db).Where("key_hash = ?", hash).First(&k).Error
	return &k, err
}

// TouchLastUsed records when the key last authenticated a request
func (r *APIKeyRepository) TouchLastUsed(ctx context.Context, id int64, at time.Time) error {
	return dbFor(ctx, r.db).Model(&domain.APIKey{}).
		Where("id = ?", id).
		Update("last_used_at", at).Error
}
