package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vayupay/vayupay-backend/internal/common"
	"github.com/vayupay/vayupay-backend/internal/domain"
	"github.com/vayupay/vayupay-backend/internal/repository"
	"github.com/vayupay/vayupay-backend/pkg/logger"
)

// PaymentStore is the payment persistence surface
type PaymentStore interface {
	Create(ctx context.Context, p *domain.Payment) error
	FindByMerchantAndID(ctx context.Context, merchantID, paymentID string) (*domain.Payment, error)
	FindByMerchantAndIDForUpdate(ctx context.Context, merchantID, paymentID string) (*domain.Payment, error)
	Update(ctx context.Context, p *domain.Payment) error
	ListByMerchant(ctx context.Context, merchantID string, status domain.PaymentStatus, page, perPage int) ([]domain.Payment, int64, error)
}

// RefundStore is the refund persistence surface
type RefundStore interface {
	Create(ctx context.Context, r *domain.Refund) error
	FindByPaymentAndKey(ctx context.Context, paymentID, key string) (*domain.Refund, error)
	ListByPayment(ctx context.Context, paymentID string) ([]domain.Refund, error)
}

// IdempotencyGuard classifies retried requests and reserves keys
type IdempotencyGuard interface {
	Check(ctx context.Context, merchantID, key, requestHash string) (Outcome, error)
	Reserve(ctx context.Context, merchantID, key, requestHash, resourceID string) error
	ResolveRace(ctx context.Context, merchantID, key, requestHash string) (string, error)
}

// OutboxEnqueuer records webhook events alongside state changes
type OutboxEnqueuer interface {
	Enqueue(ctx context.Context, merchant *domain.Merchant, eventType domain.WebhookEventType, payment *domain.Payment, refund *domain.Refund) (*domain.WebhookEvent, error)
}

// PaymentService owns the payment lifecycle. Every state change, its
// webhook event and any idempotency reservation commit in one
// transaction, so the outbox never announces a state that was rolled
// back. Mutations re-read the payment under a row lock inside that
// transaction, so concurrent requests for the same payment serialize
// and each validates against the balance and status the previous writer
// committed.
type PaymentService struct {
	payments PaymentStore
	refunds  RefundStore
	guard    IdempotencyGuard
	outbox   OutboxEnqueuer
	tx       repository.TxManager
	now      func() time.Time
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(payments PaymentStore, refunds RefundStore, guard IdempotencyGuard, outbox OutboxEnqueuer, tx repository.TxManager) *PaymentService {
	return &PaymentService{
		payments: payments,
		refunds:  refunds,
		guard:    guard,
		outbox:   outbox,
		tx:       tx,
		now:      time.Now,
	}
}

// Create creates a payment and settles it according to the requested
// scenario. Without a scenario the payment authorizes and captures
// immediately. The returned bool reports whether this was an idempotent
// replay of an earlier request.
func (s *PaymentService) Create(ctx context.Context, merchant *domain.Merchant, req *domain.CreatePaymentRequest, idemKey string) (*domain.Payment, bool, error) {
	if req.Amount <= 0 {
		return nil, false, common.NewValidation("amount must be a positive integer in minor units")
	}
	if len(req.Currency) != 3 {
		return nil, false, common.NewValidation("currency must be a 3-letter ISO code")
	}
	scenario := domain.Scenario(req.Simulate)
	if req.Simulate != "" && !domain.ValidScenario(scenario) {
		return nil, false, common.NewValidation("unknown simulation scenario: %s", req.Simulate)
	}

	var requestHash string
	if idemKey != "" {
		hash, err := Fingerprint(req)
		if err != nil {
			return nil, false, common.NewInternal(err)
		}
		requestHash = hash

		outcome, err := s.guard.Check(ctx, merchant.ID, idemKey, requestHash)
		if err != nil {
			return nil, false, err
		}
		if outcome.Kind == OutcomeReplay {
			existing, err := s.findPayment(ctx, merchant.ID, outcome.ResourceID)
			if err != nil {
				return nil, false, err
			}
			return existing, true, nil
		}
	}

	now := s.now()
	payment := domain.Payment{
		ID:            uuid.NewString(),
		MerchantID:    merchant.ID,
		Amount:        req.Amount,
		Currency:      strings.ToUpper(req.Currency),
		Status:        domain.PaymentStatusCreated,
		Description:   req.Description,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		Scenario:      scenario,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	settled, err := settle(payment, scenario, now)
	if err != nil {
		return nil, false, common.NewInternal(err)
	}
	eventType, _ := domain.EventForStatus(settled.Status)

	txErr := s.tx.Do(ctx, func(ctx context.Context) error {
		if err := s.payments.Create(ctx, &settled); err != nil {
			return err
		}
		if _, err := s.outbox.Enqueue(ctx, merchant, eventType, &settled, nil); err != nil {
			return err
		}
		if idemKey != "" {
			return s.guard.Reserve(ctx, merchant.ID, idemKey, requestHash, settled.ID)
		}
		return nil
	})
	if txErr != nil {
		if idemKey != "" && errors.Is(txErr, gorm.ErrDuplicatedKey) {
			resourceID, err := s.guard.ResolveRace(ctx, merchant.ID, idemKey, requestHash)
			if err != nil {
				return nil, false, err
			}
			existing, err := s.findPayment(ctx, merchant.ID, resourceID)
			if err != nil {
				return nil, false, err
			}
			return existing, true, nil
		}
		return nil, false, txError(txErr)
	}

	logger.GetLogger().Info().
		Str("payment_id", settled.ID).
		Str("merchant_id", merchant.ID).
		Int64("amount", settled.Amount).
		Str("currency", settled.Currency).
		Str("status", string(settled.Status)).
		Msg("Payment created")
	return &settled, false, nil
}

// settle drives a fresh payment through the scenario outcome. Success
// (or no scenario) authorizes and captures; failure scenarios move the
// payment straight to failed with the scenario's error attached.
func settle(p domain.Payment, scenario domain.Scenario, at time.Time) (domain.Payment, error) {
	if code, message, failed := domain.ScenarioFailure(scenario); failed {
		next, err := domain.Transition(p, domain.PaymentStatusFailed, at)
		if err != nil {
			return p, err
		}
		next.FailureCode = code
		next.FailureMessage = message
		return next, nil
	}

	next, err := domain.Transition(p, domain.PaymentStatusAuthorized, at)
	if err != nil {
		return p, err
	}
	return domain.Transition(next, domain.PaymentStatusCaptured, at)
}

// Get returns a payment scoped to its merchant
func (s *PaymentService) Get(ctx context.Context, merchantID, paymentID string) (*domain.Payment, error) {
	return s.findPayment(ctx, merchantID, paymentID)
}

// List returns a merchant's payments, optionally filtered by status
func (s *PaymentService) List(ctx context.Context, merchantID string, status domain.PaymentStatus, page, perPage int) ([]domain.Payment, int64, error) {
	payments, total, err := s.payments.ListByMerchant(ctx, merchantID, status, page, perPage)
	if err != nil {
		return nil, 0, common.NewInternal(err)
	}
	return payments, total, nil
}

// Authorize moves a created payment to authorized. Authorization alone
// emits no webhook event; merchants learn the outcome at capture or
// failure.
func (s *PaymentService) Authorize(ctx context.Context, merchantID, paymentID string) (*domain.Payment, error) {
	var next domain.Payment
	txErr := s.tx.Do(ctx, func(ctx context.Context) error {
		payment, err := s.lockPayment(ctx, merchantID, paymentID)
		if err != nil {
			return err
		}
		next, err = domain.Transition(*payment, domain.PaymentStatusAuthorized, s.now())
		if err != nil {
			return err
		}
		return s.payments.Update(ctx, &next)
	})
	if txErr != nil {
		return nil, txError(txErr)
	}

	logger.GetLogger().Info().
		Str("payment_id", next.ID).
		Msg("Payment authorized")
	return &next, nil
}

// Capture settles an authorized payment and announces payment.succeeded.
// The locked re-read makes a concurrent duplicate capture fail the
// status check, so exactly one succeeded event is ever enqueued.
func (s *PaymentService) Capture(ctx context.Context, merchant *domain.Merchant, paymentID string) (*domain.Payment, error) {
	var next domain.Payment
	txErr := s.tx.Do(ctx, func(ctx context.Context) error {
		payment, err := s.lockPayment(ctx, merchant.ID, paymentID)
		if err != nil {
			return err
		}
		next, err = domain.Transition(*payment, domain.PaymentStatusCaptured, s.now())
		if err != nil {
			return err
		}
		if err := s.payments.Update(ctx, &next); err != nil {
			return err
		}
		eventType, _ := domain.EventForStatus(next.Status)
		_, err = s.outbox.Enqueue(ctx, merchant, eventType, &next, nil)
		return err
	})
	if txErr != nil {
		return nil, txError(txErr)
	}

	logger.GetLogger().Info().
		Str("payment_id", next.ID).
		Int64("amount", next.Amount).
		Msg("Payment captured")
	return &next, nil
}

// Fail marks a payment as failed with the given error and announces
// payment.failed. Captured and refunded payments cannot fail.
func (s *PaymentService) Fail(ctx context.Context, merchant *domain.Merchant, paymentID, code, message string) (*domain.Payment, error) {
	var next domain.Payment
	txErr := s.tx.Do(ctx, func(ctx context.Context) error {
		payment, err := s.lockPayment(ctx, merchant.ID, paymentID)
		if err != nil {
			return err
		}
		next, err = domain.Transition(*payment, domain.PaymentStatusFailed, s.now())
		if err != nil {
			return err
		}
		next.FailureCode = code
		next.FailureMessage = message
		if err := s.payments.Update(ctx, &next); err != nil {
			return err
		}
		eventType, _ := domain.EventForStatus(next.Status)
		_, err = s.outbox.Enqueue(ctx, merchant, eventType, &next, nil)
		return err
	})
	if txErr != nil {
		return nil, txError(txErr)
	}

	logger.GetLogger().Info().
		Str("payment_id", next.ID).
		Str("failure_code", code).
		Msg("Payment failed")
	return &next, nil
}

// Refund refunds a captured payment, fully or partially. A zero amount
// refunds the remaining balance; a full refund moves the payment to
// refunded. The returned bool reports an idempotent replay.
// The state and balance checks run against the row-locked payment inside
// the transaction, so overlapping refunds serialize and their combined
// total can never exceed the captured amount.
func (s *PaymentService) Refund(ctx context.Context, merchant *domain.Merchant, paymentID string, req *domain.CreateRefundRequest, idemKey string) (*domain.Refund, bool, error) {
	if req.Amount < 0 {
		return nil, false, common.NewValidation("refund amount must not be negative")
	}

	var requestHash string
	if idemKey != "" {
		hash, err := Fingerprint(req)
		if err != nil {
			return nil, false, common.NewInternal(err)
		}
		requestHash = hash

		existing, err := s.refunds.FindByPaymentAndKey(ctx, paymentID, idemKey)
		if err == nil {
			if existing.RequestHash != requestHash {
				return nil, false, common.NewIdempotencyConflict(
					"idempotency key %q was already used with a different payload", idemKey)
			}
			return existing, true, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, common.NewInternal(err)
		}
	}

	now := s.now()
	refund := &domain.Refund{
		ID:          uuid.NewString(),
		PaymentID:   paymentID,
		MerchantID:  merchant.ID,
		Reason:      req.Reason,
		Status:      domain.RefundStatusProcessed,
		RequestHash: requestHash,
		CreatedAt:   now,
	}
	if idemKey != "" {
		refund.IdempotencyKey = &idemKey
	}

	var updated domain.Payment
	txErr := s.tx.Do(ctx, func(ctx context.Context) error {
		payment, err := s.lockPayment(ctx, merchant.ID, paymentID)
		if err != nil {
			return err
		}
		if payment.Status != domain.PaymentStatusCaptured {
			return common.NewInvalidState(
				"cannot refund a payment in status %s", payment.Status)
		}

		amount := req.Amount
		remaining := payment.RefundableAmount()
		if amount == 0 {
			amount = remaining
		}
		if amount > remaining {
			return common.NewAmountExceeded(
				"refund amount %d exceeds refundable balance %d", amount, remaining)
		}
		refund.Amount = amount
		refund.Currency = payment.Currency

		if err := s.refunds.Create(ctx, refund); err != nil {
			return err
		}

		updated = *payment
		updated.RefundedAmount += amount
		updated.UpdatedAt = now
		if updated.RefundedAmount == updated.Amount {
			updated, err = domain.Transition(updated, domain.PaymentStatusRefunded, now)
			if err != nil {
				return err
			}
		}
		if err := s.payments.Update(ctx, &updated); err != nil {
			return err
		}
		_, err = s.outbox.Enqueue(ctx, merchant, domain.EventPaymentRefunded, &updated, refund)
		return err
	})
	if txErr != nil {
		if idemKey != "" && errors.Is(txErr, gorm.ErrDuplicatedKey) {
			winner, err := s.refunds.FindByPaymentAndKey(ctx, paymentID, idemKey)
			if err != nil {
				return nil, false, common.NewInternal(fmt.Errorf("re-read refund: %w", err))
			}
			if winner.RequestHash != requestHash {
				return nil, false, common.NewIdempotencyConflict(
					"idempotency key %q was already used with a different payload", idemKey)
			}
			return winner, true, nil
		}
		return nil, false, txError(txErr)
	}

	logger.GetLogger().Info().
		Str("payment_id", paymentID).
		Str("refund_id", refund.ID).
		Int64("amount", refund.Amount).
		Bool("full_refund", updated.Status == domain.PaymentStatusRefunded).
		Msg("Payment refunded")
	return refund, false, nil
}

// ListRefunds lists all refunds for a merchant's payment
func (s *PaymentService) ListRefunds(ctx context.Context, merchantID, paymentID string) ([]domain.Refund, error) {
	if _, err := s.findPayment(ctx, merchantID, paymentID); err != nil {
		return nil, err
	}
	refunds, err := s.refunds.ListByPayment(ctx, paymentID)
	if err != nil {
		return nil, common.NewInternal(err)
	}
	return refunds, nil
}

func (s *PaymentService) findPayment(ctx context.Context, merchantID, paymentID string) (*domain.Payment, error) {
	payment, err := s.payments.FindByMerchantAndID(ctx, merchantID, paymentID)
	if err != nil {
		return nil, mapPaymentErr(err, paymentID)
	}
	return payment, nil
}

// lockPayment reads a payment with a row lock; only valid inside
// TxManager.Do.
func (s *PaymentService) lockPayment(ctx context.Context, merchantID, paymentID string) (*domain.Payment, error) {
	payment, err := s.payments.FindByMerchantAndIDForUpdate(ctx, merchantID, paymentID)
	if err != nil {
		return nil, mapPaymentErr(err, paymentID)
	}
	return payment, nil
}

func mapPaymentErr(err error, paymentID string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return common.NewNotFound("payment not found: %s", paymentID)
	}
	return common.NewInternal(err)
}

// txError preserves domain errors surfaced from inside a transaction and
// wraps everything else as internal.
func txError(err error) error {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return common.NewInternal(err)
}
