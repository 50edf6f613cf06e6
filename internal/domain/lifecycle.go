package domain

import (
	"time"

	"github.com/vayupay/vayupay-backend/internal/common"
)

// paymentTransitions is the only legal transition table.
// CAPTURED and REFUNDED can never become FAILED; FAILED and REFUNDED are terminal.
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusCreated:    {PaymentStatusAuthorized, PaymentStatusFailed},
	PaymentStatusAuthorized: {PaymentStatusCaptured, PaymentStatusFailed},
	PaymentStatusCaptured:   {PaymentStatusRefunded},
	PaymentStatusFailed:     {},
	PaymentStatusRefunded:   {},
}

// CanTransition reports whether from -> to is a legal status change
func CanTransition(from, to PaymentStatus) bool {
	for _, next := range paymentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition returns a copy of p moved to the next status, with lifecycle
// timestamps stamped. It never mutates p, so the caller decides when the
// new state is persisted. An illegal transition returns an invalid_state
// error and the original payment untouched.
func Transition(p Payment, to PaymentStatus, at time.Time) (Payment, error) {
	if !CanTransition(p.Status, to) {
		return p, common.NewInvalidState(
			"cannot transition payment from %s to %s", p.Status, to)
	}

	next := p
	next.Status = to
	next.UpdatedAt = at

	switch to {
	case PaymentStatusAuthorized:
		next.AuthorizedAt = &at
	case PaymentStatusCaptured:
		next.CapturedAt = &at
	}
	return next, nil
}

// EventForStatus maps a payment status to the webhook event announcing it.
// Authorization has no event type of its own; ok=false means no event.
func EventForStatus(status PaymentStatus) (WebhookEventType, bool) {
	switch status {
	case PaymentStatusCreated:
		return EventPaymentCreated, true
	case PaymentStatusCaptured:
		return EventPaymentSucceeded, true
	case PaymentStatusFailed:
		return EventPaymentFailed, true
	case PaymentStatusRefunded:
		return EventPaymentRefunded, true
	}
	return "", false
}
