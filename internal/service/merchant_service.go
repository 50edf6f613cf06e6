package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vayupay/vayupay-backend/internal/common"
	"github.com/vayupay/vayupay-backend/internal/domain"
	"github.com/vayupay/vayupay-backend/pkg/logger"
	"github.com/vayupay/vayupay-backend/pkg/signer"
)

// MerchantStore is the merchant persistence surface
type MerchantStore interface {
	Create(ctx context.Context, m *domain.Merchant) error
	FindByID(ctx context.Context, id string) (*domain.Merchant, error)
	FindByEmail(ctx context.Context, email string) (*domain.Merchant, error)
	Update(ctx context.Context, m *domain.Merchant) error
}

// APIKeyStore is the API key persistence surface
type APIKeyStore interface {
	Create(ctx context.Context, k *domain.APIKey) error
	FindByHash(ctx context.Context, hash string) (*domain.APIKey, error)
	TouchLastUsed(ctx context.Context, id int64, at time.Time) error
}

// MerchantService manages merchant accounts and API key credentials
type MerchantService struct {
	merchants MerchantStore
	apiKeys   APIKeyStore
	now       func() time.Time
}

// NewMerchantService creates a new MerchantService
func NewMerchantService(merchants MerchantStore, apiKeys APIKeyStore) *MerchantService {
	return &MerchantService{merchants: merchants, apiKeys: apiKeys, now: time.Now}
}

// Create registers a merchant. A webhook signing secret is generated when
// a webhook URL is configured; the secret is returned in the model but
// never serialized in API responses.
func (s *MerchantService) Create(ctx context.Context, req *domain.CreateMerchantRequest) (*domain.Merchant, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if _, err := s.merchants.FindByEmail(ctx, email); err == nil {
		return nil, common.NewValidation("merchant with email %s already exists", email)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.NewInternal(err)
	}

	merchant := &domain.Merchant{
		ID:         uuid.NewString(),
		Name:       req.Name,
		Email:      email,
		WebhookURL: req.WebhookURL,
		IsActive:   true,
	}
	if merchant.WebhookURL != "" {
		merchant.WebhookSecret = signer.GenerateWebhookSecret()
	}

	if err := s.merchants.Create(ctx, merchant); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, common.NewValidation("merchant with email %s already exists", email)
		}
		return nil, common.NewInternal(err)
	}

	logger.GetLogger().Info().
		Str("merchant_id", merchant.ID).
		Str("email", merchant.Email).
		Msg("Merchant created")
	return merchant, nil
}

// Get returns a merchant by ID
func (s *MerchantService) Get(ctx context.Context, id string) (*domain.Merchant, error) {
	merchant, err := s.merchants.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NewNotFound("merchant not found: %s", id)
		}
		return nil, common.NewInternal(err)
	}
	return merchant, nil
}

// UpdateWebhook changes a merchant's webhook endpoint. Setting a URL on a
// merchant without a signing secret generates one; clearing the URL keeps
// the secret so re-enabling does not invalidate in-flight verifier setups.
func (s *MerchantService) UpdateWebhook(ctx context.Context, id, webhookURL string) (*domain.Merchant, error) {
	merchant, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	merchant.WebhookURL = webhookURL
	if webhookURL != "" && merchant.WebhookSecret == "" {
		merchant.WebhookSecret = signer.GenerateWebhookSecret()
	}
	if err := s.merchants.Update(ctx, merchant); err != nil {
		return nil, common.NewInternal(err)
	}
	return merchant, nil
}

// IssueAPIKey mints a new API key for a merchant. The raw key is returned
// exactly once; only its hash is persisted.
func (s *MerchantService) IssueAPIKey(ctx context.Context, merchantID string) (string, *domain.APIKey, error) {
	merchant, err := s.Get(ctx, merchantID)
	if err != nil {
		return "", nil, err
	}

	raw := signer.GenerateAPIKey()
	key := &domain.APIKey{
		MerchantID: merchant.ID,
		KeyHash:    signer.Hash([]byte(raw)),
		KeyPrefix:  raw[:10],
		CreatedAt:  s.now(),
	}
	if err := s.apiKeys.Create(ctx, key); err != nil {
		return "", nil, common.NewInternal(err)
	}

	logger.GetLogger().Info().
		Str("merchant_id", merchant.ID).
		Str("key_prefix", key.KeyPrefix).
		Msg("API key issued")
	return raw, key, nil
}

// Authenticate resolves a raw API key to its active merchant.
// Lookup is by hash so raw keys never touch storage. Last-used tracking
// is best effort and never fails the request.
func (s *MerchantService) Authenticate(ctx context.Context, rawKey string) (*domain.Merchant, error) {
	if rawKey == "" {
		return nil, common.NewUnauthorized("missing API key")
	}

	key, err := s.apiKeys.FindByHash(ctx, signer.Hash([]byte(rawKey)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NewUnauthorized("invalid API key")
		}
		return nil, common.NewInternal(err)
	}

	merchant, err := s.merchants.FindByID(ctx, key.MerchantID)
	if err != nil {
		return nil, common.NewUnauthorized("invalid API key")
	}
	if !merchant.IsActive {
		return nil, common.NewUnauthorized("merchant account is disabled")
	}

	if err := s.apiKeys.TouchLastUsed(ctx, key.ID, s.now()); err != nil {
		logger.GetLogger().Warn().Err(err).
			Int64("api_key_id", key.ID).
			Msg("Failed to update API key last_used_at")
	}
	return merchant, nil
}
