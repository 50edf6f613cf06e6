package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/vayupay/vayupay-backend/internal/domain"
)

type mockWebhookEventStore struct {
	mock.Mock
}

func (m *mockWebhookEventStore) Create(ctx context.Context, e *domain.WebhookEvent) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *mockWebhookEventStore) FindByID(ctx context.Context, merchantID, eventID string) (*domain.WebhookEvent, error) {
	args := m.Called(ctx, merchantID, eventID)
	if e := args.Get(0); e != nil {
		return e.(*domain.WebhookEvent), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockWebhookEventStore) ListDue(ctx context.Context, maxAttempts, limit int) ([]domain.WebhookEvent, error) {
	args := m.Called(ctx, maxAttempts, limit)
	return args.Get(0).([]domain.WebhookEvent), args.Error(1)
}

func (m *mockWebhookEventStore) ListByMerchant(ctx context.Context, merchantID string, page, perPage int) ([]domain.WebhookEvent, int64, error) {
	args := m.Called(ctx, merchantID, page, perPage)
	return args.Get(0).([]domain.WebhookEvent), args.Get(1).(int64), args.Error(2)
}

func TestEnqueue_SnapshotsPayment(t *testing.T) {
	store := new(mockWebhookEventStore)
	store.On("Create", mock.Anything, mock.Anything).Return(nil)

	svc := NewWebhookService(store)
	svc.now = func() time.Time { return time.Unix(1700000000, 0) }

	captured := time.Unix(1699999990, 0)
	payment := &domain.Payment{
		ID:         "pay_1",
		MerchantID: "m1",
		Amount:     10000,
		Currency:   "INR",
		Status:     domain.PaymentStatusCaptured,
		CapturedAt: &captured,
	}

	event, err := svc.Enqueue(context.Background(), testMerchant(), domain.EventPaymentSucceeded, payment, nil)
	assert.NoError(t, err)

	assert.Equal(t, "m1", event.MerchantID)
	assert.Equal(t, "pay_1", *event.PaymentID)
	assert.Equal(t, domain.EventPaymentSucceeded, event.EventType)
	assert.Equal(t, "https://example.com/hooks", event.TargetURL)
	assert.Equal(t, domain.WebhookStatusPending, event.Status)

	var envelope struct {
		ID        string `json:"id"`
		Type      string `json:"type"`
		CreatedAt string `json:"created_at"`
		Data      struct {
			ID     string `json:"id"`
			Amount int64  `json:"amount"`
			Status string `json:"status"`
			Error  *struct {
				Code string `json:"code"`
			} `json:"error"`
		} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal([]byte(event.Payload), &envelope))
	assert.Equal(t, event.ID, envelope.ID)
	assert.Equal(t, "payment.succeeded", envelope.Type)
	assert.Equal(t, "pay_1", envelope.Data.ID)
	assert.Equal(t, int64(10000), envelope.Data.Amount)
	assert.Equal(t, "CAPTURED", envelope.Data.Status)
	assert.Nil(t, envelope.Data.Error)
}

func TestEnqueue_FailedPaymentCarriesError(t *testing.T) {
	store := new(mockWebhookEventStore)
	store.On("Create", mock.Anything, mock.Anything).Return(nil)

	svc := NewWebhookService(store)
	payment := &domain.Payment{
		ID:             "pay_1",
		Status:         domain.PaymentStatusFailed,
		FailureCode:    "FRAUD_DETECTED",
		FailureMessage: "Transaction flagged as fraudulent",
	}

	event, err := svc.Enqueue(context.Background(), testMerchant(), domain.EventPaymentFailed, payment, nil)
	assert.NoError(t, err)

	var envelope struct {
		Data struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal([]byte(event.Payload), &envelope))
	assert.Equal(t, "FRAUD_DETECTED", envelope.Data.Error.Code)
	assert.Equal(t, "Transaction flagged as fraudulent", envelope.Data.Error.Message)
}

func TestEnqueue_RefundAttached(t *testing.T) {
	store := new(mockWebhookEventStore)
	store.On("Create", mock.Anything, mock.Anything).Return(nil)

	svc := NewWebhookService(store)
	payment := &domain.Payment{ID: "pay_1", Status: domain.PaymentStatusRefunded, Amount: 10000, RefundedAmount: 10000}
	refund := &domain.Refund{ID: "ref_1", PaymentID: "pay_1", Amount: 10000, Status: domain.RefundStatusProcessed}

	event, err := svc.Enqueue(context.Background(), testMerchant(), domain.EventPaymentRefunded, payment, refund)
	assert.NoError(t, err)

	var envelope struct {
		Data struct {
			Refund struct {
				ID     string `json:"id"`
				Amount int64  `json:"amount"`
			} `json:"refund"`
		} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal([]byte(event.Payload), &envelope))
	assert.Equal(t, "ref_1", envelope.Data.Refund.ID)
	assert.Equal(t, int64(10000), envelope.Data.Refund.Amount)
}

func TestEnqueue_NoWebhookURLStillRecorded(t *testing.T) {
	store := new(mockWebhookEventStore)
	store.On("Create", mock.Anything, mock.MatchedBy(func(e *domain.WebhookEvent) bool {
		return e.TargetURL == ""
	})).Return(nil)

	merchant := testMerchant()
	merchant.WebhookURL = ""

	svc := NewWebhookService(store)
	event, err := svc.Enqueue(context.Background(), merchant, domain.EventPaymentSucceeded,
		&domain.Payment{ID: "pay_1", Status: domain.PaymentStatusCaptured}, nil)

	assert.NoError(t, err)
	assert.False(t, event.Deliverable())
	store.AssertExpectations(t)
}
