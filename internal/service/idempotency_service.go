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
	"github.com/vayupay/vayupay-backend/pkg/signer"
)

// Idempotency record TTL: keys may be reused after this horizon
const idempotencyTTL = 24 * time.Hour

// OutcomeKind classifies an idempotency check
type OutcomeKind int

const (
	// OutcomeFresh means no record exists; the caller proceeds to create
	// the resource and reserve the key in the same transaction.
	OutcomeFresh OutcomeKind = iota
	// OutcomeReplay means the identical request was already executed;
	// the caller returns the previously created resource.
	OutcomeReplay
)

// Outcome is the result of an idempotency check
type Outcome struct {
	Kind        OutcomeKind
	ResourceID  string
	RequestHash string
}

// IdempotencyStore is the persistence surface the guard needs
type IdempotencyStore interface {
	Create(ctx context.Context, rec *domain.IdempotencyRecord) error
	FindByMerchantAndKey(ctx context.Context, merchantID, key string) (*domain.IdempotencyRecord, error)
}

// IdempotencyService guards mutating requests against unsafe retries.
// Keys are scoped per merchant; the storage layer's unique constraint on
// (merchant_id, key) closes the race between concurrent fresh requests.
type IdempotencyService struct {
	records IdempotencyStore
	now     func() time.Time
}

// NewIdempotencyService creates a new IdempotencyService
func NewIdempotencyService(records IdempotencyStore) *IdempotencyService {
	return &IdempotencyService{records: records, now: time.Now}
}

// Fingerprint reduces a request payload to a canonical, field-order
// independent hash. The payload is re-marshalled through generic maps so
// encoding/json emits keys sorted at every nesting level.
func Fingerprint(payload any) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return "", fmt.Errorf("normalize payload: %w", err)
	}
	canonical, err := json.Marshal(generic)
	if err != nil {
		return "", fmt.Errorf("canonicalize payload: %w", err)
	}
	return signer.Hash(canonical), nil
}

// Check classifies a request as Fresh or Replay, or rejects it with an
// idempotency_conflict error when the key was already used with a
// different payload. Expired records are treated as Fresh.
func (s *IdempotencyService) Check(ctx context.Context, merchantID, key, requestHash string) (Outcome, error) {
	rec, err := s.records.FindByMerchantAndKey(ctx, merchantID, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Outcome{Kind: OutcomeFresh, RequestHash: requestHash}, nil
		}
		return Outcome{}, common.NewInternal(err)
	}

	if rec.Expired(s.now()) {
		return Outcome{Kind: OutcomeFresh, RequestHash: requestHash}, nil
	}

	if rec.RequestHash != requestHash {
		return Outcome{}, common.NewIdempotencyConflict(
			"idempotency key %q was already used with a different payload", key)
	}
	return Outcome{Kind: OutcomeReplay, ResourceID: rec.ResourceID, RequestHash: requestHash}, nil
}

// Reserve stores the key-to-resource association. Must run inside the
// same transaction that creates the resource; a gorm.ErrDuplicatedKey
// from here means a concurrent request won the race and the caller must
// fall back to ResolveRace after rollback.
func (s *IdempotencyService) Reserve(ctx context.Context, merchantID, key, requestHash, resourceID string) error {
	expires := s.now().Add(idempotencyTTL)
	return s.records.Create(ctx, &domain.IdempotencyRecord{
		ID:          uuid.NewString(),
		MerchantID:  merchantID,
		Key:         key,
		RequestHash: requestHash,
		ResourceID:  resourceID,
		ExpiresAt:   &expires,
	})
}

// ResolveRace re-reads the record a concurrent winner inserted and
// resolves the losing request to a replay or a conflict. Never errors
// spuriously: the record must exist once a duplicate-key failure occurred.
func (s *IdempotencyService) ResolveRace(ctx context.Context, merchantID, key, requestHash string) (string, error) {
	rec, err := s.records.FindByMerchantAndKey(ctx, merchantID, key)
	if err != nil {
		return "", common.NewInternal(fmt.Errorf("re-read idempotency record: %w", err))
	}
	if rec.RequestHash != requestHash {
		return "", common.NewIdempotencyConflict(
			"idempotency key %q was already used with a different payload", key)
	}
	return rec.ResourceID, nil
}
