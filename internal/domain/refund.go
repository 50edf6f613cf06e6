package domain

import "time"

// RefundStatus refund outcome states
type RefundStatus string

const (
	RefundStatusProcessed RefundStatus = "processed"
	RefundStatusFailed    RefundStatus = "failed"
)

// Refund represents a refund issued against a captured payment.
// The (payment_id, idempotency_key) pair is unique so concurrent retries
// of the same refund request cannot double-apply.
type Refund struct {
	ID             string       `gorm:"column:id;primaryKey;size:36" json:"id"`
	PaymentID      string       `gorm:"column:payment_id;uniqueIndex:uq_refunds_payment_idem;size:36" json:"payment_id"`
	MerchantID     string       `gorm:"column:merchant_id;index;size:36" json:"merchant_id"`
	Amount         int64        `gorm:"column:amount" json:"amount"`
	Currency       string       `gorm:"column:currency;size:3" json:"currency"`
	Reason         string       `gorm:"column:reason;size:255" json:"reason,omitempty"`
	Status         RefundStatus `gorm:"column:status;size:32" json:"status"`
	IdempotencyKey *string      `gorm:"column:idempotency_key;uniqueIndex:uq_refunds_payment_idem;size:255" json:"-"`
	RequestHash    string       `gorm:"column:request_hash;size:64" json:"-"`
	CreatedAt      time.Time    `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Refund) TableName() string {
	return "refunds"
}

// CreateRefundRequest refunds a captured payment, fully or partially.
// Amount 0 means the full remaining refundable balance.
type CreateRefundRequest struct {
	Amount int64  `json:"amount"`
	Reason string `json:"reason"`
}

// RefundResponse is the public refund representation
type RefundResponse struct {
	ID        string `json:"id"`
	PaymentID string `json:"payment_id"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Reason    string `json:"reason,omitempty"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

// ToResponse converts Refund to its API representation
func (r *Refund) ToResponse() *RefundResponse {
	return &RefundResponse{
		ID:        r.ID,
		PaymentID: r.PaymentID,
		Amount:    r.Amount,
		Currency:  r.Currency,
		Reason:    r.Reason,
		Status:    string(r.Status),
		CreatedAt: r.CreatedAt.UTC().Format(time.RFC3339),
	}
}
