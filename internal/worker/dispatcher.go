package worker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vayupay/vayupay-backend/internal/domain"
	"github.com/vayupay/vayupay-backend/pkg/logger"
	"github.com/vayupay/vayupay-backend/pkg/signer"
)

var (
	webhookDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_deliveries_total",
			Help: "Total webhook delivery attempts by outcome",
		},
		[]string{"outcome"},
	)

	webhookDeliveryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "webhook_delivery_duration_seconds",
			Help:    "Webhook delivery attempt duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)
)

// AttemptRecorder persists the outcome of a delivery attempt
type AttemptRecorder interface {
	RecordAttempt(ctx context.Context, e *domain.WebhookEvent) error
}

// DeliveryResult is the outcome of one delivery attempt
type DeliveryResult struct {
	Delivered  bool
	StatusCode *int
}

// Dispatcher performs signed webhook deliveries. An endpoint rejecting or
// timing out is a recorded outcome, not an error; Deliver only errors
// when bookkeeping itself fails.
type Dispatcher struct {
	client          *http.Client
	events          AttemptRecorder
	signatureHeader string
	now             func() time.Time
}

// NewDispatcher creates a Dispatcher with a bounded per-attempt timeout
func NewDispatcher(events AttemptRecorder, signatureHeader string, timeout time.Duration) *Dispatcher {
	return &Dispatcher{
		client:          &http.Client{Timeout: timeout},
		events:          events,
		signatureHeader: signatureHeader,
		now:             time.Now,
	}
}

// Deliver POSTs the event payload to the target URL, signed with the
// merchant's webhook secret. The signature covers the exact bytes of the
// stored payload joined with the attempt timestamp, so receivers can
// verify both integrity and freshness.
func (d *Dispatcher) Deliver(ctx context.Context, event *domain.WebhookEvent, targetURL, secret string) (DeliveryResult, error) {
	body := []byte(event.Payload)
	signature := signer.Sign(secret, body, d.now())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, targetURL, bytes.NewReader(body))
	if err != nil {
		return DeliveryResult{}, fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(d.signatureHeader, signature)
	req.Header.Set("X-Webhook-ID", event.ID)

	start := d.now()
	resp, doErr := d.client.Do(req)
	webhookDeliveryDuration.Observe(d.now().Sub(start).Seconds())

	attemptAt := d.now()
	event.AttemptCount++
	event.LastAttemptAt = &attemptAt

	var result DeliveryResult
	if doErr != nil {
		// Network failure: no status code to record
		event.LastStatusCode = nil
		event.Status = domain.WebhookStatusFailed
		webhookDeliveriesTotal.WithLabelValues("network_error").Inc()
		logger.GetLogger().Warn().
			Err(doErr).
			Str("event_id", event.ID).
			Str("target_url", targetURL).
			Int("attempt", event.AttemptCount).
			Msg("Webhook delivery failed")
	} else {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		code := resp.StatusCode
		event.LastStatusCode = &code
		result.StatusCode = &code

		if code >= 200 && code < 300 {
			event.Status = domain.WebhookStatusDelivered
			event.DeliveredAt = &attemptAt
			result.Delivered = true
			webhookDeliveriesTotal.WithLabelValues("delivered").Inc()
			logger.GetLogger().Info().
				Str("event_id", event.ID).
				Str("event_type", string(event.EventType)).
				Int("status_code", code).
				Int("attempt", event.AttemptCount).
				Msg("Webhook delivered")
		} else {
			event.Status = domain.WebhookStatusFailed
			webhookDeliveriesTotal.WithLabelValues("rejected").Inc()
			logger.GetLogger().Warn().
				Str("event_id", event.ID).
				Str("target_url", targetURL).
				Int("status_code", code).
				Int("attempt", event.AttemptCount).
				Msg("Webhook rejected by endpoint")
		}
	}

	if err := d.events.RecordAttempt(ctx, event); err != nil {
		return result, fmt.Errorf("record delivery attempt: %w", err)
	}
	return result, nil
}
