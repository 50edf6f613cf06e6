package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vayupay/vayupay-backend/internal/common"
)

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to PaymentStatus }{
		{PaymentStatusCreated, PaymentStatusAuthorized},
		{PaymentStatusCreated, PaymentStatusFailed},
		{PaymentStatusAuthorized, PaymentStatusCaptured},
		{PaymentStatusAuthorized, PaymentStatusFailed},
		{PaymentStatusCaptured, PaymentStatusRefunded},
	}
	for _, tc := range allowed {
		assert.True(t, CanTransition(tc.from, tc.to), "%s -> %s should be allowed", tc.from, tc.to)
	}

	denied := []struct{ from, to PaymentStatus }{
		{PaymentStatusCreated, PaymentStatusCaptured},
		{PaymentStatusCreated, PaymentStatusRefunded},
		{PaymentStatusCaptured, PaymentStatusFailed},
		{PaymentStatusCaptured, PaymentStatusAuthorized},
		{PaymentStatusRefunded, PaymentStatusFailed},
		{PaymentStatusFailed, PaymentStatusAuthorized},
		{PaymentStatusFailed, PaymentStatusFailed},
		{PaymentStatusRefunded, PaymentStatusRefunded},
	}
	for _, tc := range denied {
		assert.False(t, CanTransition(tc.from, tc.to), "%s -> %s should be denied", tc.from, tc.to)
	}
}

func TestTransition_StampsTimestamps(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := Payment{ID: "pay_1", Status: PaymentStatusCreated}

	authorized, err := Transition(p, PaymentStatusAuthorized, at)
	assert.NoError(t, err)
	assert.Equal(t, PaymentStatusAuthorized, authorized.Status)
	assert.NotNil(t, authorized.AuthorizedAt)
	assert.Equal(t, at, *authorized.AuthorizedAt)
	assert.Nil(t, authorized.CapturedAt)

	captured, err := Transition(authorized, PaymentStatusCaptured, at.Add(time.Minute))
	assert.NoError(t, err)
	assert.Equal(t, PaymentStatusCaptured, captured.Status)
	assert.NotNil(t, captured.CapturedAt)
	assert.Equal(t, at.Add(time.Minute), *captured.CapturedAt)
}

func TestTransition_DoesNotMutateInput(t *testing.T) {
	p := Payment{ID: "pay_1", Status: PaymentStatusCreated}

	_, err := Transition(p, PaymentStatusAuthorized, time.Now())
	assert.NoError(t, err)
	assert.Equal(t, PaymentStatusCreated, p.Status)
	assert.Nil(t, p.AuthorizedAt)
}

func TestTransition_IllegalMove(t *testing.T) {
	p := Payment{ID: "pay_1", Status: PaymentStatusCaptured}

	got, err := Transition(p, PaymentStatusFailed, time.Now())
	assert.Error(t, err)
	assert.Equal(t, common.KindInvalidState, common.KindOf(err))
	assert.Equal(t, PaymentStatusCaptured, got.Status)
}

func TestEventForStatus(t *testing.T) {
	et, ok := EventForStatus(PaymentStatusCaptured)
	assert.True(t, ok)
	assert.Equal(t, EventPaymentSucceeded, et)

	et, ok = EventForStatus(PaymentStatusFailed)
	assert.True(t, ok)
	assert.Equal(t, EventPaymentFailed, et)

	_, ok = EventForStatus(PaymentStatusAuthorized)
	assert.False(t, ok)
}

func TestScenarioFailure(t *testing.T) {
	code, message, failed := ScenarioFailure(ScenarioInsufficientFunds)
	assert.True(t, failed)
	assert.Equal(t, "INSUFFICIENT_FUNDS", code)
	assert.Equal(t, "Insufficient funds in account", message)

	_, _, failed = ScenarioFailure(ScenarioSuccess)
	assert.False(t, failed)

	_, _, failed = ScenarioFailure(Scenario(""))
	assert.False(t, failed)
}

func TestRefundableAmount(t *testing.T) {
	p := Payment{Amount: 10000, RefundedAmount: 4000}
	assert.Equal(t, int64(6000), p.RefundableAmount())
}
