package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"github.com/vayupay/vayupay-backend/internal/common"
	"github.com/vayupay/vayupay-backend/internal/domain"
)

type mockIdempotencyStore struct {
	mock.Mock
}

func (m *mockIdempotencyStore) Create(ctx context.Context, rec *domain.IdempotencyRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *mockIdempotencyStore) FindByMerchantAndKey(ctx context.Context, merchantID, key string) (*domain.IdempotencyRecord, error) {
	args := m.Called(ctx, merchantID, key)
	if rec := args.Get(0); rec != nil {
		return rec.(*domain.IdempotencyRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestFingerprint_FieldOrderIndependent(t *testing.T) {
	a, err := Fingerprint(map[string]any{"amount": 10000, "currency": "INR"})
	assert.NoError(t, err)
	b, err := Fingerprint(map[string]any{"currency": "INR", "amount": 10000})
	assert.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestFingerprint_DistinguishesPayloads(t *testing.T) {
	a, _ := Fingerprint(map[string]any{"amount": 10000})
	b, _ := Fingerprint(map[string]any{"amount": 10001})

	assert.NotEqual(t, a, b)
}

func TestIdempotencyCheck_Fresh(t *testing.T) {
	store := new(mockIdempotencyStore)
	store.On("FindByMerchantAndKey", mock.Anything, "m1", "key-1").
		Return(nil, gorm.ErrRecordNotFound)

	svc := NewIdempotencyService(store)
	outcome, err := svc.Check(context.Background(), "m1", "key-1", "hash-a")

	assert.NoError(t, err)
	assert.Equal(t, OutcomeFresh, outcome.Kind)
}

func TestIdempotencyCheck_Replay(t *testing.T) {
	store := new(mockIdempotencyStore)
	store.On("FindByMerchantAndKey", mock.Anything, "m1", "key-1").
		Return(&domain.IdempotencyRecord{
			MerchantID:  "m1",
			Key:         "key-1",
			RequestHash: "hash-a",
			ResourceID:  "pay_1",
		}, nil)

	svc := NewIdempotencyService(store)
	outcome, err := svc.Check(context.Background(), "m1", "key-1", "hash-a")

	assert.NoError(t, err)
	assert.Equal(t, OutcomeReplay, outcome.Kind)
	assert.Equal(t, "pay_1", outcome.ResourceID)
}

func TestIdempotencyCheck_Conflict(t *testing.T) {
	store := new(mockIdempotencyStore)
	store.On("FindByMerchantAndKey", mock.Anything, "m1", "key-1").
		Return(&domain.IdempotencyRecord{
			MerchantID:  "m1",
			Key:         "key-1",
			RequestHash: "hash-a",
			ResourceID:  "pay_1",
		}, nil)

	svc := NewIdempotencyService(store)
	_, err := svc.Check(context.Background(), "m1", "key-1", "hash-DIFFERENT")

	assert.Error(t, err)
	assert.Equal(t, common.KindIdempotencyConflict, common.KindOf(err))
}

func TestIdempotencyCheck_ExpiredRecordIsFresh(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	store := new(mockIdempotencyStore)
	store.On("FindByMerchantAndKey", mock.Anything, "m1", "key-1").
		Return(&domain.IdempotencyRecord{
			MerchantID:  "m1",
			Key:         "key-1",
			RequestHash: "hash-OLD",
			ResourceID:  "pay_old",
			ExpiresAt:   &past,
		}, nil)

	svc := NewIdempotencyService(store)
	outcome, err := svc.Check(context.Background(), "m1", "key-1", "hash-new")

	assert.NoError(t, err)
	assert.Equal(t, OutcomeFresh, outcome.Kind)
}

func TestResolveRace(t *testing.T) {
	store := new(mockIdempotencyStore)
	store.On("FindByMerchantAndKey", mock.Anything, "m1", "key-1").
		Return(&domain.IdempotencyRecord{
			RequestHash: "hash-a",
			ResourceID:  "pay_winner",
		}, nil)

	svc := NewIdempotencyService(store)

	id, err := svc.ResolveRace(context.Background(), "m1", "key-1", "hash-a")
	assert.NoError(t, err)
	assert.Equal(t, "pay_winner", id)

	_, err = svc.ResolveRace(context.Background(), "m1", "key-1", "hash-b")
	assert.Equal(t, common.KindIdempotencyConflict, common.KindOf(err))
}
