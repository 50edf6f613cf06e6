package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/vayupay/vayupay-backend/internal/config"
	"github.com/vayupay/vayupay-backend/internal/domain"
	"github.com/vayupay/vayupay-backend/internal/migration"
	"github.com/vayupay/vayupay-backend/internal/repository"
	"github.com/vayupay/vayupay-backend/internal/service"
	pkglogger "github.com/vayupay/vayupay-backend/pkg/logger"
)

// Seeds a demo merchant with a webhook endpoint and prints its API key.
// The raw key is only visible in this output.
func main() {
	config.LoadDotEnv()

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	pkglogger.InitStructured(env)

	cfg, err := config.Load(fmt.Sprintf("configs/config.%s.yaml", env))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := openDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := migration.Run(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	merchants := service.NewMerchantService(
		repository.NewMerchantRepository(db),
		repository.NewAPIKeyRepository(db),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	merchant, err := merchants.Create(ctx, &domain.CreateMerchantRequest{
		Name:       "Demo Store",
		Email:      "demo@example.com",
		WebhookURL: os.Getenv("SEED_WEBHOOK_URL"),
	})
	if err != nil {
		log.Fatalf("Failed to create merchant: %v", err)
	}

	rawKey, _, err := merchants.IssueAPIKey(ctx, merchant.ID)
	if err != nil {
		log.Fatalf("Failed to issue API key: %v", err)
	}

	fmt.Printf("merchant_id:    %s\n", merchant.ID)
	fmt.Printf("api_key:        %s\n", rawKey)
	fmt.Printf("webhook_secret: %s\n", merchant.WebhookSecret)
}

func openDB(cfg *config.Config) (*gorm.DB, error) {
	mysqlCfg, err := mysqldriver.ParseDSN(cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("parse DSN: %w", err)
	}
	return gorm.Open(mysql.Open(mysqlCfg.FormatDSN()), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	})
}
