package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/vayupay/vayupay-backend/internal/domain"
)

// MerchantRepository handles merchant persistence
type MerchantRepository struct {
	db *gorm.DB
}

// NewMerchantRepository creates a new MerchantRepository
func NewMerchantRepository(db *gorm.DB) *MerchantRepository {
	return &MerchantRepository{db: db}
}

// Create inserts a new merchant record
func (r *MerchantRepository) Create(ctx context.Context, m *domain.Merchant) error {
	return dbFor(ctx, r.db).Create(m).Error
}

// FindByID finds a merchant by ID
func (r *MerchantRepository) FindByID(ctx context.Context, id string) (*domain.Merchant, error) {
	var m domain.Merchant
	err := dbFor(ctx, r.db).Where("id = ?", id).First(&m).Error
	return &m, err
}

// FindByEmail finds a merchant by email
func (r *MerchantRepository) FindByEmail(ctx context.Context, email string) (*domain.Merchant, error) {
	var m domain.Merchant
	err := dbFor(ctx, r.db).Where("email = ?", email).First(&m).Error
	return &m, err
}

// Update updates a merchant record
func (r *MerchantRepository) Update(ctx context.Context, m *domain.Merchant) error {
	return dbFor(ctx, r.db).Save(m).Error
}
