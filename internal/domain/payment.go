package domain

import "time"

// PaymentStatus payment lifecycle states
type PaymentStatus string

const (
	PaymentStatusCreated    PaymentStatus = "CREATED"
	PaymentStatusAuthorized PaymentStatus = "AUTHORIZED"
	PaymentStatusCaptured   PaymentStatus = "CAPTURED"
	PaymentStatusFailed     PaymentStatus = "FAILED"
	PaymentStatusRefunded   PaymentStatus = "REFUNDED"
)

// Scenario deterministic simulation scenarios selectable at creation
type Scenario string

const (
	ScenarioSuccess           Scenario = "success"
	ScenarioInsufficientFunds Scenario = "insufficient_funds"
	ScenarioNetworkTimeout    Scenario = "network_timeout"
	ScenarioFraudDetected     Scenario = "fraud_detected"
	ScenarioBankError         Scenario = "bank_error"
)

// ScenarioFailure maps a failure scenario to its code and message.
// Returns ok=false for the success scenario.
func ScenarioFailure(s Scenario) (code, message string, ok bool) {
	switch s {
	case ScenarioInsufficientFunds:
		return "INSUFFICIENT_FUNDS", "Insufficient funds in account", true
	case ScenarioNetworkTimeout:
		return "NETWORK_TIMEOUT", "Payment gateway timeout", true
	case ScenarioFraudDetected:
		return "FRAUD_DETECTED", "Transaction flagged as fraudulent", true
	case ScenarioBankError:
		return "BANK_ERROR", "Bank rejected the transaction", true
	}
	return "", "", false
}

// ValidScenario reports whether s is a known simulation scenario
func ValidScenario(s Scenario) bool {
	switch s {
	case ScenarioSuccess, ScenarioInsufficientFunds, ScenarioNetworkTimeout,
		ScenarioFraudDetected, ScenarioBankError:
		return true
	}
	return false
}

// Payment represents a single payment transaction.
// Amount and currency are immutable after creation; status only moves
// forward through the lifecycle transition table.
type Payment struct {
	ID             string        `gorm:"column:id;primaryKey;size:36" json:"id"`
	MerchantID     string        `gorm:"column:merchant_id;index:idx_payments_merchant_status;size:36" json:"merchant_id"`
	Amount         int64         `gorm:"column:amount" json:"amount"`
	Currency       string        `gorm:"column:currency;size:3" json:"currency"`
	Status         PaymentStatus `gorm:"column:status;index:idx_payments_merchant_status;size:32" json:"status"`
	Description    string        `gorm:"column:description;size:255" json:"description,omitempty"`
	CustomerEmail  string        `gorm:"column:customer_email;size:255" json:"customer_email,omitempty"`
	CustomerPhone  string        `gorm:"column:customer_phone;size:32" json:"customer_phone,omitempty"`
	Scenario       Scenario      `gorm:"column:scenario;size:64" json:"scenario,omitempty"`
	FailureCode    string        `gorm:"column:failure_code;size:64" json:"failure_code,omitempty"`
	FailureMessage string        `gorm:"column:failure_message;size:255" json:"failure_message,omitempty"`
	RefundedAmount int64         `gorm:"column:refunded_amount;default:0" json:"refunded_amount"`
	AuthorizedAt   *time.Time    `gorm:"column:authorized_at" json:"authorized_at,omitempty"`
	CapturedAt     *time.Time    `gorm:"column:captured_at" json:"captured_at,omitempty"`
	CreatedAt      time.Time     `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time     `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Payment) TableName() string {
	return "payments"
}

// RefundableAmount is the balance still available for refunds
func (p *Payment) RefundableAmount() int64 {
	return p.Amount - p.RefundedAmount
}

// CreatePaymentRequest creates a new payment
type CreatePaymentRequest struct {
	Amount        int64  `json:"amount" binding:"required"`
	Currency      string `json:"currency" binding:"required"`
	Description   string `json:"description"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`
	Simulate      string `json:"simulate"`
}

// PaymentResponse is the public payment representation
type PaymentResponse struct {
	ID             string `json:"id"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	Status         string `json:"status"`
	Description    string `json:"description,omitempty"`
	FailureCode    string `json:"failure_code,omitempty"`
	FailureMessage string `json:"failure_message,omitempty"`
	RefundedAmount int64  `json:"refunded_amount"`
	AuthorizedAt   string `json:"authorized_at,omitempty"`
	CapturedAt     string `json:"captured_at,omitempty"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

// ToResponse converts Payment to its API representation
func (p *Payment) ToResponse() *PaymentResponse {
	resp := &PaymentResponse{
		ID:             p.ID,
		Amount:         p.Amount,
		Currency:       p.Currency,
		Status:         string(p.Status),
		Description:    p.Description,
		FailureCode:    p.FailureCode,
		FailureMessage: p.FailureMessage,
		RefundedAmount: p.RefundedAmount,
		CreatedAt:      p.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:      p.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if p.AuthorizedAt != nil {
		resp.AuthorizedAt = p.AuthorizedAt.UTC().Format(time.RFC3339)
	}
	if p.CapturedAt != nil {
		resp.CapturedAt = p.CapturedAt.UTC().Format(time.RFC3339)
	}
	return resp
}
