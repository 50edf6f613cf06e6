package domain

import "time"

// IdempotencyRecord pins a client-supplied key to the request payload hash
// and the resource that request created. The (merchant_id, key) pair is
// unique at the storage layer; that constraint is what serializes
// concurrent requests reusing the same key.
type IdempotencyRecord struct {
	ID          string     `gorm:"column:id;primaryKey;size:36" json:"id"`
	MerchantID  string     `gorm:"column:merchant_id;uniqueIndex:uq_idempotency_merchant_key;size:36" json:"merchant_id"`
	Key         string     `gorm:"column:idempotency_key;uniqueIndex:uq_idempotency_merchant_key;size:255" json:"key"`
	RequestHash string     `gorm:"column:request_hash;size:64" json:"-"`
	ResourceID  string     `gorm:"column:resource_id;size:36" json:"resource_id"`
	ExpiresAt   *time.Time `gorm:"column:expires_at" json:"expires_at,omitempty"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (IdempotencyRecord) TableName() string {
	return "idempotency_records"
}

// Expired reports whether the record's reuse horizon has passed.
// Expiry is best-effort; a nil ExpiresAt never expires.
func (r *IdempotencyRecord) Expired(now time.Time) bool {
	return r.ExpiresAt != nil && now.After(*r.ExpiresAt)
}
