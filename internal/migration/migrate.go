package migration

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/vayupay/vayupay-backend/internal/domain"
	"github.com/vayupay/vayupay-backend/pkg/logger"
)

// Run applies the schema for all gateway tables
func Run(db *gorm.DB) error {
	models := []interface{}{
		&domain.Merchant{},
		&domain.APIKey{},
		&domain.Payment{},
		&domain.Refund{},
		&domain.IdempotencyRecord{},
		&domain.WebhookEvent{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	logger.GetLogger().Info().
		Int("tables", len(models)).
		Msg("Database migration completed")
	return nil
}
