package domain

import "time"

// Merchant represents an API consumer of the gateway.
// A merchant owns API keys, webhook configuration, payments and refunds.
type Merchant struct {
	ID            string    `gorm:"column:id;primaryKey;size:36" json:"id"`
	Name          string    `gorm:"column:name;size:255" json:"name"`
	Email         string    `gorm:"column:email;uniqueIndex;size:255" json:"email"`
	WebhookURL    string    `gorm:"column:webhook_url;size:2048" json:"webhook_url,omitempty"`
	WebhookSecret string    `gorm:"column:webhook_secret;size:255" json:"-"`
	IsActive      bool      `gorm:"column:is_active;default:true" json:"is_active"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Merchant) TableName() string {
	return "merchants"
}

// APIKey is a hashed credential a merchant authenticates with.
// Only the SHA-256 hash is stored; the raw key is shown once at issuance.
type APIKey struct {
	ID         int64      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	MerchantID string     `gorm:"column:merchant_id;index;size:36" json:"merchant_id"`
	KeyHash    string     `gorm:"column:key_hash;uniqueIndex;size:64" json:"-"`
	KeyPrefix  string     `gorm:"column:key_prefix;size:16" json:"key_prefix"`
	LastUsedAt *time.Time `gorm:"column:last_used_at" json:"last_used_at,omitempty"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (APIKey) TableName() string {
	return "api_keys"
}

// CreateMerchantRequest registers a new merchant
type CreateMerchantRequest struct {
	Name       string `json:"name" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	WebhookURL string `json:"webhook_url"`
}

// MerchantResponse is the public merchant representation
type MerchantResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	WebhookURL string `json:"webhook_url,omitempty"`
	IsActive   bool   `json:"is_active"`
	CreatedAt  string `json:"created_at"`
}

// APIKeyResponse carries a freshly issued key. The raw key appears only here.
type APIKeyResponse struct {
	APIKey    string `json:"api_key"`
	KeyPrefix string `json:"key_prefix"`
	CreatedAt string `json:"created_at"`
}

// ToResponse converts Merchant to its API representation
func (m *Merchant) ToResponse() *MerchantResponse {
	return &MerchantResponse{
		ID:         m.ID,
		Name:       m.Name,
		Email:      m.Email,
		WebhookURL: m.WebhookURL,
		IsActive:   m.IsActive,
		CreatedAt:  m.CreatedAt.UTC().Format(time.RFC3339),
	}
}
