package domain

import "time"

// WebhookEventType fixed set of event types sent to merchants
type WebhookEventType string

const (
	EventPaymentCreated   WebhookEventType = "payment.created"
	EventPaymentSucceeded WebhookEventType = "payment.succeeded"
	EventPaymentFailed    WebhookEventType = "payment.failed"
	EventPaymentRefunded  WebhookEventType = "payment.refunded"
)

// WebhookDeliveryStatus delivery state of an outbox entry
type WebhookDeliveryStatus string

const (
	WebhookStatusPending   WebhookDeliveryStatus = "pending"
	WebhookStatusDelivered WebhookDeliveryStatus = "delivered"
	WebhookStatusFailed    WebhookDeliveryStatus = "failed"
)

// WebhookEvent is one outbox entry: a domain event awaiting signed delivery
// to a merchant endpoint. Rows are created by the mutation path in the same
// transaction as the state change they announce; only the dispatcher
// mutates the delivery-outcome fields. Rows are never deleted (audit).
type WebhookEvent struct {
	ID             string                `gorm:"column:id;primaryKey;size:36" json:"id"`
	MerchantID     string                `gorm:"column:merchant_id;index;size:36" json:"merchant_id"`
	PaymentID      *string               `gorm:"column:payment_id;index;size:36" json:"payment_id,omitempty"`
	EventType      WebhookEventType      `gorm:"column:event_type;size:64" json:"event_type"`
	Payload        string                `gorm:"column:payload;type:text" json:"payload"`
	TargetURL      string                `gorm:"column:target_url;size:2048" json:"target_url"`
	Status         WebhookDeliveryStatus `gorm:"column:status;index:idx_webhook_events_delivery,priority:1;default:pending;size:32" json:"status"`
	AttemptCount   int                   `gorm:"column:attempt_count;index:idx_webhook_events_delivery,priority:2;default:0" json:"attempt_count"`
	LastStatusCode *int                  `gorm:"column:last_status_code" json:"last_status_code,omitempty"`
	LastAttemptAt  *time.Time            `gorm:"column:last_attempt_at" json:"last_attempt_at,omitempty"`
	DeliveredAt    *time.Time            `gorm:"column:delivered_at" json:"delivered_at,omitempty"`
	CreatedAt      time.Time             `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (WebhookEvent) TableName() string {
	return "webhook_events"
}

// Deliverable reports whether the event has a destination to send to.
// Events enqueued for merchants without a webhook URL are recorded for
// audit but never dispatched.
func (e *WebhookEvent) Deliverable() bool {
	return e.TargetURL != ""
}

// WebhookEventResponse is the audit representation of an outbox entry
type WebhookEventResponse struct {
	ID             string `json:"id"`
	PaymentID      string `json:"payment_id,omitempty"`
	EventType      string `json:"event_type"`
	Status         string `json:"status"`
	AttemptCount   int    `json:"attempt_count"`
	LastStatusCode *int   `json:"last_status_code,omitempty"`
	LastAttemptAt  string `json:"last_attempt_at,omitempty"`
	DeliveredAt    string `json:"delivered_at,omitempty"`
	CreatedAt      string `json:"created_at"`
}

// ToResponse converts WebhookEvent to its audit representation
func (e *WebhookEvent) ToResponse() *WebhookEventResponse {
	resp := &WebhookEventResponse{
		ID:             e.ID,
		EventType:      string(e.EventType),
		Status:         string(e.Status),
		AttemptCount:   e.AttemptCount,
		LastStatusCode: e.LastStatusCode,
		CreatedAt:      e.CreatedAt.UTC().Format(time.RFC3339),
	}
	if e.PaymentID != nil {
		resp.PaymentID = *e.PaymentID
	}
	if e.LastAttemptAt != nil {
		resp.LastAttemptAt = e.LastAttemptAt.UTC().Format(time.RFC3339)
	}
	if e.DeliveredAt != nil {
		resp.DeliveredAt = e.DeliveredAt.UTC().Format(time.RFC3339)
	}
	return resp
}
