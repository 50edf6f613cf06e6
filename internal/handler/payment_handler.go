package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vayupay/vayupay-backend/internal/common"
	"github.com/vayupay/vayupay-backend/internal/domain"
	"github.com/vayupay/vayupay-backend/internal/middleware"
	"github.com/vayupay/vayupay-backend/internal/service"
)

const idempotencyKeyHeader = "Idempotency-Key"

// PaymentHandler exposes the payment lifecycle over HTTP
type PaymentHandler struct {
	payments *service.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(payments *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// Create handles POST /api/v1/payments
// @Summary Create a payment
// @Tags payments
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "Idempotency key"
// @Param request body domain.CreatePaymentRequest true "Payment details"
// @Success 201 {object} domain.PaymentResponse
// @Router /api/v1/payments [post]
func (h *PaymentHandler) Create(c *gin.Context) {
	var req domain.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.BindError(c, err)
		return
	}

	merchant := middleware.GetMerchant(c)
	idemKey := c.GetHeader(idempotencyKeyHeader)

	payment, replayed, err := h.payments.Create(c.Request.Context(), merchant, &req, idemKey)
	if err != nil {
		common.ErrorResponse(c, err)
		return
	}

	status := http.StatusCreated
	if replayed {
		status = http.StatusOK
	} else {
		middleware.CountPaymentCreated(string(payment.Status))
	}
	common.SuccessResponse(c, status, payment.ToResponse(), nil)
}

// Get handles GET /api/v1/payments/:id
func (h *PaymentHandler) Get(c *gin.Context) {
	merchant := middleware.GetMerchant(c)

	payment, err := h.payments.Get(c.Request.Context(), merchant.ID, c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, http.StatusOK, payment.ToResponse(), nil)
}

// List handles GET /api/v1/payments
func (h *PaymentHandler) List(c *gin.Context) {
	merchant := middleware.GetMerchant(c)
	page, perPage := pagination(c)
	status := domain.PaymentStatus(c.Query("status"))

	payments, total, err := h.payments.List(c.Request.Context(), merchant.ID, status, page, perPage)
	if err != nil {
		common.ErrorResponse(c, err)
		return
	}

	responses := make([]*domain.PaymentResponse, 0, len(payments))
	for i := range payments {
		responses = append(responses, payments[i].ToResponse())
	}
	common.SuccessResponse(c, http.StatusOK, responses, &common.Meta{
		Page: page, Limit: perPage, Total: total,
	})
}

// Authorize handles POST /api/v1/payments/:id/authorize
func (h *PaymentHandler) Authorize(c *gin.Context) {
	merchant := middleware.GetMerchant(c)

	payment, err := h.payments.Authorize(c.Request.Context(), merchant.ID, c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, http.StatusOK, payment.ToResponse(), nil)
}

// Capture handles POST /api/v1/payments/:id/capture
func (h *PaymentHandler) Capture(c *gin.Context) {
	merchant := middleware.GetMerchant(c)

	payment, err := h.payments.Capture(c.Request.Context(), merchant, c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, http.StatusOK, payment.ToResponse(), nil)
}

// pagination extracts page/limit query parameters with sane bounds
func pagination(c *gin.Context) (page, perPage int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	perPage, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return page, perPage
}
