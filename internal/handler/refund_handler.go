package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vayupay/vayupay-backend/internal/common"
	"github.com/vayupay/vayupay-backend/internal/domain"
	"github.com/vayupay/vayupay-backend/internal/middleware"
	"github.com/vayupay/vayupay-backend/internal/service"
)

// RefundHandler exposes refunds nested under payments
type RefundHandler struct {
	payments *service.PaymentService
}

// NewRefundHandler creates a new RefundHandler
func NewRefundHandler(payments *service.PaymentService) *RefundHandler {
	return &RefundHandler{payments: payments}
}

// Create handles POST /api/v1/payments/:id/refunds
// @Summary Refund a captured payment
// @Tags refunds
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "Idempotency key"
// @Param request body domain.CreateRefundRequest true "Refund details"
// @Success 201 {object} domain.RefundResponse
// @Router /api/v1/payments/{id}/refunds [post]
func (h *RefundHandler) Create(c *gin.Context) {
	var req domain.CreateRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.BindError(c, err)
		return
	}

	merchant := middleware.GetMerchant(c)
	idemKey := c.GetHeader(idempotencyKeyHeader)

	refund, replayed, err := h.payments.Refund(c.Request.Context(), merchant, c.Param("id"), &req, idemKey)
	if err != nil {
		common.ErrorResponse(c, err)
		return
	}

	status := http.StatusCreated
	if replayed {
		status = http.StatusOK
	}
	common.SuccessResponse(c, status, refund.ToResponse(), nil)
}

// List handles GET /api/v1/payments/:id/refunds
func (h *RefundHandler) List(c *gin.Context) {
	merchant := middleware.GetMerchant(c)

	refunds, err := h.payments.ListRefunds(c.Request.Context(), merchant.ID, c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, err)
		return
	}

	responses := make([]*domain.RefundResponse, 0, len(refunds))
	for i := range refunds {
		responses = append(responses, refunds[i].ToResponse())
	}
	common.SuccessResponse(c, http.StatusOK, responses, nil)
}
