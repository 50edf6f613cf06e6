package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/vayupay/vayupay-backend/internal/domain"
)

type mockEventSource struct {
	mock.Mock
}

func (m *mockEventSource) ListDue(ctx context.Context, maxAttempts, limit int) ([]domain.WebhookEvent, error) {
	args := m.Called(ctx, maxAttempts, limit)
	return args.Get(0).([]domain.WebhookEvent), args.Error(1)
}

type mockMerchantSource struct {
	mock.Mock
}

func (m *mockMerchantSource) FindByID(ctx context.Context, id string) (*domain.Merchant, error) {
	args := m.Called(ctx, id)
	if merchant := args.Get(0); merchant != nil {
		return merchant.(*domain.Merchant), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockDeliverer struct {
	mock.Mock
}

func (m *mockDeliverer) Deliver(ctx context.Context, event *domain.WebhookEvent, targetURL, secret string) (DeliveryResult, error) {
	args := m.Called(ctx, event, targetURL, secret)
	return args.Get(0).(DeliveryResult), args.Error(1)
}

func TestBackoff(t *testing.T) {
	base := 2 * time.Second

	assert.Equal(t, time.Duration(0), Backoff(base, 0))
	assert.Equal(t, 2*time.Second, Backoff(base, 1))
	assert.Equal(t, 4*time.Second, Backoff(base, 2))
	assert.Equal(t, 8*time.Second, Backoff(base, 3))
	assert.Equal(t, 16*time.Second, Backoff(base, 4))
}

func testSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		MaxAttempts: 5,
		BaseDelay:   time.Millisecond,
		Interval:    10 * time.Second,
		BatchSize:   100,
	}
}

func TestRunOnce_DeliversDueEvents(t *testing.T) {
	events := new(mockEventSource)
	merchants := new(mockMerchantSource)
	deliverer := new(mockDeliverer)

	due := []domain.WebhookEvent{
		{ID: "evt_1", MerchantID: "m1", TargetURL: "https://a.example/hook", AttemptCount: 0},
		{ID: "evt_2", MerchantID: "m1", TargetURL: "https://a.example/hook", AttemptCount: 2},
	}
	events.On("ListDue", mock.Anything, 5, 100).Return(due, nil)
	merchants.On("FindByID", mock.Anything, "m1").
		Return(&domain.Merchant{ID: "m1", WebhookSecret: "whsec_m1"}, nil)
	deliverer.On("Deliver", mock.Anything, mock.Anything, "https://a.example/hook", "whsec_m1").
		Return(DeliveryResult{Delivered: true}, nil).Twice()

	s := NewRetryScheduler(testSchedulerConfig(), events, merchants, deliverer)
	err := s.RunOnce(context.Background())

	assert.NoError(t, err)
	deliverer.AssertExpectations(t)
}

func TestRunOnce_SkipsEventWhenMerchantLookupFails(t *testing.T) {
	events := new(mockEventSource)
	merchants := new(mockMerchantSource)
	deliverer := new(mockDeliverer)

	due := []domain.WebhookEvent{
		{ID: "evt_1", MerchantID: "gone", TargetURL: "https://a.example/hook"},
		{ID: "evt_2", MerchantID: "m1", TargetURL: "https://b.example/hook"},
	}
	events.On("ListDue", mock.Anything, 5, 100).Return(due, nil)
	merchants.On("FindByID", mock.Anything, "gone").Return(nil, errors.New("record not found"))
	merchants.On("FindByID", mock.Anything, "m1").
		Return(&domain.Merchant{ID: "m1", WebhookSecret: "whsec_m1"}, nil)
	deliverer.On("Deliver", mock.Anything, mock.Anything, "https://b.example/hook", "whsec_m1").
		Return(DeliveryResult{Delivered: true}, nil).Once()

	s := NewRetryScheduler(testSchedulerConfig(), events, merchants, deliverer)
	err := s.RunOnce(context.Background())

	assert.NoError(t, err)
	deliverer.AssertNumberOfCalls(t, "Deliver", 1)
}

func TestRunOnce_ListError(t *testing.T) {
	events := new(mockEventSource)
	listErr := errors.New("db gone")
	events.On("ListDue", mock.Anything, 5, 100).Return([]domain.WebhookEvent(nil), listErr)

	s := NewRetryScheduler(testSchedulerConfig(), events, new(mockMerchantSource), new(mockDeliverer))
	err := s.RunOnce(context.Background())

	assert.ErrorIs(t, err, listErr)
}

func TestRunOnce_CancelledMidBatch(t *testing.T) {
	events := new(mockEventSource)
	deliverer := new(mockDeliverer)

	due := []domain.WebhookEvent{
		{ID: "evt_1", MerchantID: "m1", TargetURL: "https://a.example/hook", AttemptCount: 3},
	}
	events.On("ListDue", mock.Anything, 5, 100).Return(due, nil)

	cfg := testSchedulerConfig()
	cfg.BaseDelay = time.Minute // long backoff so cancellation wins

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewRetryScheduler(cfg, events, new(mockMerchantSource), deliverer)
	err := s.RunOnce(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	deliverer.AssertNotCalled(t, "Deliver", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRunOnce_FinishesCurrentEventOnCancel(t *testing.T) {
	events := new(mockEventSource)
	merchants := new(mockMerchantSource)
	deliverer := new(mockDeliverer)

	due := []domain.WebhookEvent{
		{ID: "evt_1", MerchantID: "m1", TargetURL: "https://a.example/hook", AttemptCount: 0},
		{ID: "evt_2", MerchantID: "m1", TargetURL: "https://a.example/hook", AttemptCount: 0},
	}
	events.On("ListDue", mock.Anything, 5, 100).Return(due, nil)
	merchants.On("FindByID", mock.Anything, "m1").
		Return(&domain.Merchant{ID: "m1", WebhookSecret: "whsec_m1"}, nil)

	ctx, cancel := context.WithCancel(context.Background())

	// Shutdown arrives while the first delivery is in flight. The
	// attempt and its bookkeeping still see a live context; the second
	// event is left for the next cycle.
	var deliveryCtxAlive bool
	deliverer.On("Deliver", mock.Anything, mock.Anything, "https://a.example/hook", "whsec_m1").
		Run(func(args mock.Arguments) {
			cancel()
			deliveryCtxAlive = args.Get(0).(context.Context).Err() == nil
		}).
		Return(DeliveryResult{Delivered: true}, nil).Once()

	s := NewRetryScheduler(testSchedulerConfig(), events, merchants, deliverer)
	err := s.RunOnce(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, deliveryCtxAlive)
	deliverer.AssertNumberOfCalls(t, "Deliver", 1)
}

func TestRun_StopsOnCancel(t *testing.T) {
	events := new(mockEventSource)
	events.On("ListDue", mock.Anything, 5, 100).Return([]domain.WebhookEvent{}, nil)

	cfg := testSchedulerConfig()
	cfg.Interval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	s := NewRetryScheduler(cfg, events, new(mockMerchantSource), new(mockDeliverer))

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancellation")
	}
}
