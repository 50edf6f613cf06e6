package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/vayupay/vayupay-backend/internal/config"
	"github.com/vayupay/vayupay-backend/internal/handler"
	"github.com/vayupay/vayupay-backend/internal/middleware"
	"github.com/vayupay/vayupay-backend/internal/service"
)

// Handlers bundles the HTTP handlers wired into the router
type Handlers struct {
	Merchant *handler.MerchantHandler
	Payment  *handler.PaymentHandler
	Refund   *handler.RefundHandler
	Webhook  *handler.WebhookHandler
}

// Setup registers all API routes. Merchant onboarding is open; the
// payment, refund and webhook audit surfaces require an API key.
func Setup(router *gin.Engine, h Handlers, merchants *service.MerchantService, redisClient *redis.Client, cfg *config.Config) {
	v1 := router.Group("/api/v1")

	rateCfg := middleware.DefaultRateLimitConfig()
	if cfg.RateLimit.RequestsPerMinute > 0 {
		rateCfg.RequestsPerMinute = cfg.RateLimit.RequestsPerMinute
	}
	v1.Use(middleware.RateLimit(redisClient, rateCfg))

	// Onboarding: no API key yet
	v1.POST("/merchants", h.Merchant.Create)
	v1.GET("/merchants/:id", h.Merchant.Get)
	v1.PUT("/merchants/:id/webhook", h.Merchant.UpdateWebhook)
	v1.POST("/merchants/:id/api-keys", h.Merchant.IssueAPIKey)

	authed := v1.Group("")
	authed.Use(middleware.APIKeyAuth(merchants))
	{
		payments := authed.Group("/payments")
		{
			payments.POST("", h.Payment.Create)
			payments.GET("", h.Payment.List)
			payments.GET("/:id", h.Payment.Get)
			payments.POST("/:id/authorize", h.Payment.Authorize)
			payments.POST("/:id/capture", h.Payment.Capture)
			payments.POST("/:id/refunds", h.Refund.Create)
			payments.GET("/:id/refunds", h.Refund.List)
		}

		webhooks := authed.Group("/webhooks")
		{
			webhooks.GET("/events", h.Webhook.List)
			webhooks.GET("/events/:id", h.Webhook.Get)
		}
	}
}
