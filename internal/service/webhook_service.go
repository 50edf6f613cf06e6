package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vayupay/vayupay-backend/internal/common"
	"github.com/vayupay/vayupay-backend/internal/domain"
	"github.com/vayupay/vayupay-backend/pkg/logger"
)

// WebhookEventStore is the outbox persistence surface
type WebhookEventStore interface {
	Create(ctx context.Context, e *domain.WebhookEvent) error
	FindByID(ctx context.Context, merchantID, eventID string) (*domain.WebhookEvent, error)
	ListDue(ctx context.Context, maxAttempts, limit int) ([]domain.WebhookEvent, error)
	ListByMerchant(ctx context.Context, merchantID string, page, perPage int) ([]domain.WebhookEvent, int64, error)
}

// WebhookService owns the webhook outbox. Events are enqueued in the same
// transaction as the state change they announce; delivery happens later
// and never affects the outcome of the originating request.
type WebhookService struct {
	events WebhookEventStore
	now    func() time.Time
}

// NewWebhookService creates a new WebhookService
func NewWebhookService(events WebhookEventStore) *WebhookService {
	return &WebhookService{events: events, now: time.Now}
}

// eventEnvelope is the wire shape delivered to merchant endpoints
type eventEnvelope struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	CreatedAt string          `json:"created_at"`
	Data      json.RawMessage `json:"data"`
}

type paymentEventData struct {
	*domain.PaymentResponse
	Error  *eventErrorData        `json:"error,omitempty"`
	Refund *domain.RefundResponse `json:"refund,omitempty"`
}

type eventErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Enqueue snapshots the payment into an immutable outbox entry. The
// payload is frozen at enqueue time so later payment mutations never leak
// into an already-announced event. Events for merchants without a webhook
// URL are still recorded for the audit trail; the dispatcher skips them.
func (s *WebhookService) Enqueue(ctx context.Context, merchant *domain.Merchant, eventType domain.WebhookEventType, payment *domain.Payment, refund *domain.Refund) (*domain.WebhookEvent, error) {
	eventID := uuid.NewString()
	createdAt := s.now()

	data := paymentEventData{PaymentResponse: payment.ToResponse()}
	if payment.FailureCode != "" {
		data.Error = &eventErrorData{Code: payment.FailureCode, Message: payment.FailureMessage}
	}
	if refund != nil {
		data.Refund = refund.ToResponse()
	}

	dataJSON, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal event data: %w", err)
	}
	body, err := json.Marshal(eventEnvelope{
		ID:        eventID,
		Type:      string(eventType),
		CreatedAt: createdAt.UTC().Format(time.RFC3339),
		Data:      dataJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal event envelope: %w", err)
	}

	paymentID := payment.ID
	event := &domain.WebhookEvent{
		ID:         eventID,
		MerchantID: merchant.ID,
		PaymentID:  &paymentID,
		EventType:  eventType,
		Payload:    string(body),
		TargetURL:  merchant.WebhookURL,
		Status:     domain.WebhookStatusPending,
	}
	if err := s.events.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("enqueue webhook event: %w", err)
	}

	logger.GetLogger().Debug().
		Str("event_id", event.ID).
		Str("event_type", string(eventType)).
		Str("payment_id", payment.ID).
		Msg("Webhook event enqueued")
	return event, nil
}

// ListDue returns events ready for a delivery attempt
func (s *WebhookService) ListDue(ctx context.Context, maxAttempts, limit int) ([]domain.WebhookEvent, error) {
	return s.events.ListDue(ctx, maxAttempts, limit)
}

// Get returns one outbox entry for audit
func (s *WebhookService) Get(ctx context.Context, merchantID, eventID string) (*domain.WebhookEvent, error) {
	event, err := s.events.FindByID(ctx, merchantID, eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NewNotFound("webhook event not found: %s", eventID)
		}
		return nil, common.NewInternal(err)
	}
	return event, nil
}

// List returns a merchant's outbox entries for audit, newest first
func (s *WebhookService) List(ctx context.Context, merchantID string, page, perPage int) ([]domain.WebhookEvent, int64, error) {
	events, total, err := s.events.ListByMerchant(ctx, merchantID, page, perPage)
	if err != nil {
		return nil, 0, common.NewInternal(err)
	}
	return events, total, nil
}
