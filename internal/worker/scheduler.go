package worker

import (
	"context"
	"time"

	"github.com/vayupay/vayupay-backend/internal/domain"
	"github.com/vayupay/vayupay-backend/pkg/logger"
)

// EventSource lists outbox entries due for delivery
type EventSource interface {
	ListDue(ctx context.Context, maxAttempts, limit int) ([]domain.WebhookEvent, error)
}

// MerchantSource resolves the webhook secret and endpoint owner
type MerchantSource interface {
	FindByID(ctx context.Context, id string) (*domain.Merchant, error)
}

// Deliverer performs one delivery attempt
type Deliverer interface {
	Deliver(ctx context.Context, event *domain.WebhookEvent, targetURL, secret string) (DeliveryResult, error)
}

// SchedulerConfig tunes the retry loop
type SchedulerConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Interval    time.Duration
	BatchSize   int
}

// RetryScheduler drains the webhook outbox. Each cycle picks up pending
// and failed events under the attempt ceiling, waits out each event's
// backoff, and hands it to the dispatcher. One bad event never stalls
// the rest of the batch.
type RetryScheduler struct {
	cfg        SchedulerConfig
	events     EventSource
	merchants  MerchantSource
	dispatcher Deliverer
}

// NewRetryScheduler creates a new RetryScheduler
func NewRetryScheduler(cfg SchedulerConfig, events EventSource, merchants MerchantSource, dispatcher Deliverer) *RetryScheduler {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &RetryScheduler{cfg: cfg, events: events, merchants: merchants, dispatcher: dispatcher}
}

// Backoff is the delay before the next attempt of an event that already
// failed attemptCount times: base doubled per prior failure. A fresh
// event is due immediately.
func Backoff(base time.Duration, attemptCount int) time.Duration {
	if attemptCount < 1 {
		return 0
	}
	return base * time.Duration(1<<(attemptCount-1))
}

// RunOnce executes a single scheduler cycle. Returns ctx.Err() when
// cancelled mid-batch; events not yet attempted stay due for the next
// cycle.
func (s *RetryScheduler) RunOnce(ctx context.Context) error {
	events, err := s.events.ListDue(ctx, s.cfg.MaxAttempts, s.cfg.BatchSize)
	if err != nil {
		return err
	}

	for i := range events {
		event := &events[i]

		if !sleepCtx(ctx, Backoff(s.cfg.BaseDelay, event.AttemptCount)) {
			return ctx.Err()
		}

		// Once an event is picked up its attempt runs to completion,
		// including the bookkeeping write. Cancellation takes effect
		// between events.
		eventCtx := context.WithoutCancel(ctx)

		merchant, err := s.merchants.FindByID(eventCtx, event.MerchantID)
		if err != nil {
			logger.GetLogger().Error().
				Err(err).
				Str("event_id", event.ID).
				Str("merchant_id", event.MerchantID).
				Msg("Skipping webhook event: merchant lookup failed")
			continue
		}

		if _, err := s.dispatcher.Deliver(eventCtx, event, event.TargetURL, merchant.WebhookSecret); err != nil {
			logger.GetLogger().Error().
				Err(err).
				Str("event_id", event.ID).
				Msg("Webhook delivery bookkeeping failed")
		}
	}
	return nil
}

// Run executes scheduler cycles until ctx is cancelled
func (s *RetryScheduler) Run(ctx context.Context) {
	logger.GetLogger().Info().
		Dur("interval", s.cfg.Interval).
		Int("max_attempts", s.cfg.MaxAttempts).
		Msg("Webhook retry scheduler started")

	for {
		if err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
			logger.GetLogger().Error().Err(err).Msg("Scheduler cycle failed")
		}

		select {
		case <-ctx.Done():
			logger.GetLogger().Info().Msg("Webhook retry scheduler stopped")
			return
		case <-time.After(s.cfg.Interval):
		}
	}
}

// sleepCtx waits for d, returning false if ctx is cancelled first
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
