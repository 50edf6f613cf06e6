package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vayupay/vayupay-backend/internal/common"
	"github.com/vayupay/vayupay-backend/internal/domain"
	"github.com/vayupay/vayupay-backend/internal/middleware"
	"github.com/vayupay/vayupay-backend/internal/service"
)

// WebhookHandler exposes the outbox audit trail so merchants can inspect
// what was (or will be) delivered to their endpoint.
type WebhookHandler struct {
	webhooks *service.WebhookService
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(webhooks *service.WebhookService) *WebhookHandler {
	return &WebhookHandler{webhooks: webhooks}
}

// List handles GET /api/v1/webhooks/events
func (h *WebhookHandler) List(c *gin.Context) {
	merchant := middleware.GetMerchant(c)
	page, perPage := pagination(c)

	events, total, err := h.webhooks.List(c.Request.Context(), merchant.ID, page, perPage)
	if err != nil {
		common.ErrorResponse(c, err)
		return
	}

	responses := make([]*domain.WebhookEventResponse, 0, len(events))
	for i := range events {
		responses = append(responses, events[i].ToResponse())
	}
	common.SuccessResponse(c, http.StatusOK, responses, &common.Meta{
		Page: page, Limit: perPage, Total: total,
	})
}

// Get handles GET /api/v1/webhooks/events/:id
func (h *WebhookHandler) Get(c *gin.Context) {
	merchant := middleware.GetMerchant(c)

	event, err := h.webhooks.Get(c.Request.Context(), merchant.ID, c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, http.StatusOK, event.ToResponse(), nil)
}
