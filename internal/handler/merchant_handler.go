package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vayupay/vayupay-backend/internal/common"
	"github.com/vayupay/vayupay-backend/internal/domain"
	"github.com/vayupay/vayupay-backend/internal/service"
)

// MerchantHandler exposes merchant registration and credential issuance.
// These endpoints are unauthenticated onboarding surfaces; everything
// else requires an API key.
type MerchantHandler struct {
	merchants *service.MerchantService
}

// NewMerchantHandler creates a new MerchantHandler
func NewMerchantHandler(merchants *service.MerchantService) *MerchantHandler {
	return &MerchantHandler{merchants: merchants}
}

// Create handles POST /api/v1/merchants
func (h *MerchantHandler) Create(c *gin.Context) {
	var req domain.CreateMerchantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.BindError(c, err)
		return
	}

	merchant, err := h.merchants.Create(c.Request.Context(), &req)
	if err != nil {
		common.ErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, http.StatusCreated, merchant.ToResponse(), nil)
}

// Get handles GET /api/v1/merchants/:id
func (h *MerchantHandler) Get(c *gin.Context) {
	merchant, err := h.merchants.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, http.StatusOK, merchant.ToResponse(), nil)
}

// UpdateWebhook handles PUT /api/v1/merchants/:id/webhook
func (h *MerchantHandler) UpdateWebhook(c *gin.Context) {
	var req struct {
		WebhookURL string `json:"webhook_url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.BindError(c, err)
		return
	}

	merchant, err := h.merchants.UpdateWebhook(c.Request.Context(), c.Param("id"), req.WebhookURL)
	if err != nil {
		common.ErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, http.StatusOK, merchant.ToResponse(), nil)
}

// IssueAPIKey handles POST /api/v1/merchants/:id/api-keys.
// The raw key appears in this response and nowhere else.
func (h *MerchantHandler) IssueAPIKey(c *gin.Context) {
	raw, key, err := h.merchants.IssueAPIKey(c.Request.Context(), c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, err)
		return
	}

	common.SuccessResponse(c, http.StatusCreated, &domain.APIKeyResponse{
		APIKey:    raw,
		KeyPrefix: key.KeyPrefix,
		CreatedAt: key.CreatedAt.UTC().Format(time.RFC3339),
	}, nil)
}
