package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/vayupay/vayupay-backend/internal/config"
	"github.com/vayupay/vayupay-backend/internal/handler"
	"github.com/vayupay/vayupay-backend/internal/middleware"
	"github.com/vayupay/vayupay-backend/internal/migration"
	"github.com/vayupay/vayupay-backend/internal/repository"
	"github.com/vayupay/vayupay-backend/internal/routes"
	"github.com/vayupay/vayupay-backend/internal/service"
	"github.com/vayupay/vayupay-backend/internal/worker"
	pkglogger "github.com/vayupay/vayupay-backend/pkg/logger"
	pkgredis "github.com/vayupay/vayupay-backend/pkg/redis"
)

// @title           VayuPay Gateway API
// @version         1.0
// @description     Payment gateway simulator with deterministic scenarios and signed webhooks
//
// @host            localhost:8080
// @BasePath        /api/v1
//
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

// getConfigPath returns config file path based on APP_ENV environment variable
func getConfigPath() string {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf("configs/config.%s.yaml", env)
}

func main() {
	config.LoadDotEnv()

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	pkglogger.InitStructured(env)
	logr := pkglogger.GetLogger()

	cfg, err := config.Load(getConfigPath())
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := initDB(cfg)
	if err != nil {
		logr.Fatal().Err(err).Msg("Failed to connect to database")
	}
	if err := migration.Run(db); err != nil {
		logr.Fatal().Err(err).Msg("Migration failed")
	}

	redisClient, err := pkgredis.NewClient(
		cfg.Redis.Host,
		cfg.Redis.Port,
		cfg.Redis.Password,
		cfg.Redis.DB,
		cfg.Redis.PoolSize,
	)
	if err != nil {
		logr.Warn().Err(err).Msg("Redis unavailable, rate limiting disabled")
		redisClient = nil
	}

	// Repositories
	merchantRepo := repository.NewMerchantRepository(db)
	apiKeyRepo := repository.NewAPIKeyRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	refundRepo := repository.NewRefundRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)
	webhookEventRepo := repository.NewWebhookEventRepository(db)
	txManager := repository.NewTxManager(db)

	// Services
	merchantService := service.NewMerchantService(merchantRepo, apiKeyRepo)
	idempotencyService := service.NewIdempotencyService(idempotencyRepo)
	webhookService := service.NewWebhookService(webhookEventRepo)
	paymentService := service.NewPaymentService(
		paymentRepo, refundRepo, idempotencyService, webhookService, txManager)

	// Webhook delivery
	dispatcher := worker.NewDispatcher(
		webhookEventRepo, cfg.Webhook.SignatureHeader, cfg.Webhook.DeliveryTimeout)
	scheduler := worker.NewRetryScheduler(worker.SchedulerConfig{
		MaxAttempts: cfg.Webhook.MaxAttempts,
		BaseDelay:   cfg.Webhook.BaseDelay,
		Interval:    cfg.Webhook.ScanInterval,
	}, webhookService, merchantRepo, dispatcher)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	allowOrigins := cfg.CORS.AllowOrigins
	if allowOrigins == "" {
		allowOrigins = "*"
	}
	corsConfig := cors.Config{
		AllowOrigins:     splitAndTrim(allowOrigins, ","),
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-API-Key", "Idempotency-Key", "X-Request-ID"},
		AllowCredentials: false,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Remaining"},
		MaxAge:           86400,
	}
	router.Use(cors.New(corsConfig))

	router.Use(middleware.Metrics())
	router.Use(middleware.RequestLogger())

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "vayupay-backend",
			"time":    time.Now().Unix(),
		})
	})

	// Swagger UI
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes.Setup(router, routes.Handlers{
		Merchant: handler.NewMerchantHandler(merchantService),
		Payment:  handler.NewPaymentHandler(paymentService),
		Refund:   handler.NewRefundHandler(paymentService),
		Webhook:  handler.NewWebhookHandler(webhookService),
	}, merchantService, redisClient, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go scheduler.Run(ctx)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}
	go func() {
		logr.Info().Str("addr", srv.Addr).Str("env", env).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	logr.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error().Err(err).Msg("Server shutdown failed")
	}
}

// initDB opens the MySQL connection and tunes the pool
func initDB(cfg *config.Config) (*gorm.DB, error) {
	mysqlCfg, err := mysqldriver.ParseDSN(cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("parse DSN: %w", err)
	}

	gormLogLevel := gormlogger.Warn
	if cfg.IsDevelopment() {
		gormLogLevel = gormlogger.Info
	}

	// TranslateError maps MySQL duplicate-entry errors to
	// gorm.ErrDuplicatedKey, which the idempotency guard depends on.
	db, err := gorm.Open(mysql.Open(mysqlCfg.FormatDSN()), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormLogLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	return db, nil
}

func splitAndTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
