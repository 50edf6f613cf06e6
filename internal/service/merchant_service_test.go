package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"github.com/vayupay/vayupay-backend/internal/common"
	"github.com/vayupay/vayupay-backend/internal/domain"
	"github.com/vayupay/vayupay-backend/pkg/signer"
)

type mockMerchantStore struct {
	mock.Mock
}

func (m *mockMerchantStore) Create(ctx context.Context, merchant *domain.Merchant) error {
	args := m.Called(ctx, merchant)
	return args.Error(0)
}

func (m *mockMerchantStore) FindByID(ctx context.Context, id string) (*domain.Merchant, error) {
	args := m.Called(ctx, id)
	if merchant := args.Get(0); merchant != nil {
		return merchant.(*domain.Merchant), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockMerchantStore) FindByEmail(ctx context.Context, email string) (*domain.Merchant, error) {
	args := m.Called(ctx, email)
	if merchant := args.Get(0); merchant != nil {
		return merchant.(*domain.Merchant), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockMerchantStore) Update(ctx context.Context, merchant *domain.Merchant) error {
	args := m.Called(ctx, merchant)
	return args.Error(0)
}

type mockAPIKeyStore struct {
	mock.Mock
}

func (m *mockAPIKeyStore) Create(ctx context.Context, k *domain.APIKey) error {
	args := m.Called(ctx, k)
	return args.Error(0)
}

func (m *mockAPIKeyStore) FindByHash(ctx context.Context, hash string) (*domain.APIKey, error) {
	args := m.Called(ctx, hash)
	if k := args.Get(0); k != nil {
		return k.(*domain.APIKey), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAPIKeyStore) TouchLastUsed(ctx context.Context, id int64, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func TestCreateMerchant_WithWebhookURL(t *testing.T) {
	merchants := new(mockMerchantStore)
	merchants.On("FindByEmail", mock.Anything, "shop@example.com").Return(nil, gorm.ErrRecordNotFound)
	merchants.On("Create", mock.Anything, mock.MatchedBy(func(m *domain.Merchant) bool {
		return m.IsActive && strings.HasPrefix(m.WebhookSecret, "whsec_")
	})).Return(nil)

	svc := NewMerchantService(merchants, new(mockAPIKeyStore))
	merchant, err := svc.Create(context.Background(), &domain.CreateMerchantRequest{
		Name:       "Shop",
		Email:      "Shop@Example.com",
		WebhookURL: "https://shop.example/hooks",
	})

	assert.NoError(t, err)
	assert.Equal(t, "shop@example.com", merchant.Email)
	assert.NotEmpty(t, merchant.WebhookSecret)
	merchants.AssertExpectations(t)
}

func TestCreateMerchant_NoWebhookURLNoSecret(t *testing.T) {
	merchants := new(mockMerchantStore)
	merchants.On("FindByEmail", mock.Anything, mock.Anything).Return(nil, gorm.ErrRecordNotFound)
	merchants.On("Create", mock.Anything, mock.Anything).Return(nil)

	svc := NewMerchantService(merchants, new(mockAPIKeyStore))
	merchant, err := svc.Create(context.Background(), &domain.CreateMerchantRequest{
		Name:  "Shop",
		Email: "shop@example.com",
	})

	assert.NoError(t, err)
	assert.Empty(t, merchant.WebhookSecret)
}

func TestCreateMerchant_DuplicateEmail(t *testing.T) {
	merchants := new(mockMerchantStore)
	merchants.On("FindByEmail", mock.Anything, "shop@example.com").
		Return(&domain.Merchant{ID: "m1", Email: "shop@example.com"}, nil)

	svc := NewMerchantService(merchants, new(mockAPIKeyStore))
	_, err := svc.Create(context.Background(), &domain.CreateMerchantRequest{
		Name:  "Shop",
		Email: "shop@example.com",
	})

	assert.Equal(t, common.KindValidation, common.KindOf(err))
}

func TestIssueAPIKey(t *testing.T) {
	merchants := new(mockMerchantStore)
	apiKeys := new(mockAPIKeyStore)
	merchants.On("FindByID", mock.Anything, "m1").Return(&domain.Merchant{ID: "m1", IsActive: true}, nil)

	var storedHash string
	apiKeys.On("Create", mock.Anything, mock.MatchedBy(func(k *domain.APIKey) bool {
		storedHash = k.KeyHash
		return k.MerchantID == "m1" && strings.HasPrefix(k.KeyPrefix, "pk_")
	})).Return(nil)

	svc := NewMerchantService(merchants, apiKeys)
	raw, key, err := svc.IssueAPIKey(context.Background(), "m1")

	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(raw, "pk_"))
	assert.Equal(t, raw[:10], key.KeyPrefix)
	assert.Equal(t, signer.Hash([]byte(raw)), storedHash)
}

func TestAuthenticate(t *testing.T) {
	merchants := new(mockMerchantStore)
	apiKeys := new(mockAPIKeyStore)

	raw := "pk_valid_key"
	apiKeys.On("FindByHash", mock.Anything, signer.Hash([]byte(raw))).
		Return(&domain.APIKey{ID: 7, MerchantID: "m1"}, nil)
	merchants.On("FindByID", mock.Anything, "m1").
		Return(&domain.Merchant{ID: "m1", IsActive: true}, nil)
	apiKeys.On("TouchLastUsed", mock.Anything, int64(7), mock.Anything).Return(nil)

	svc := NewMerchantService(merchants, apiKeys)
	merchant, err := svc.Authenticate(context.Background(), raw)

	assert.NoError(t, err)
	assert.Equal(t, "m1", merchant.ID)
}

func TestAuthenticate_UnknownKey(t *testing.T) {
	apiKeys := new(mockAPIKeyStore)
	apiKeys.On("FindByHash", mock.Anything, mock.Anything).Return(nil, gorm.ErrRecordNotFound)

	svc := NewMerchantService(new(mockMerchantStore), apiKeys)
	_, err := svc.Authenticate(context.Background(), "pk_bogus")

	assert.Equal(t, common.KindUnauthorized, common.KindOf(err))
}

func TestAuthenticate_MissingKey(t *testing.T) {
	svc := NewMerchantService(new(mockMerchantStore), new(mockAPIKeyStore))
	_, err := svc.Authenticate(context.Background(), "")
	assert.Equal(t, common.KindUnauthorized, common.KindOf(err))
}

func TestAuthenticate_InactiveMerchant(t *testing.T) {
	merchants := new(mockMerchantStore)
	apiKeys := new(mockAPIKeyStore)

	apiKeys.On("FindByHash", mock.Anything, mock.Anything).
		Return(&domain.APIKey{ID: 7, MerchantID: "m1"}, nil)
	merchants.On("FindByID", mock.Anything, "m1").
		Return(&domain.Merchant{ID: "m1", IsActive: false}, nil)

	svc := NewMerchantService(merchants, apiKeys)
	_, err := svc.Authenticate(context.Background(), "pk_key")

	assert.Equal(t, common.KindUnauthorized, common.KindOf(err))
}
