package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/vayupay/vayupay-backend/internal/domain"
)

// WebhookEventRepository handles outbox persistence. The mutation path
// only ever inserts rows; the dispatcher only ever updates delivery
// outcome fields. Rows are never deleted.
type WebhookEventRepository struct {
	db *gorm.DB
}

// NewWebhookEventRepository creates a new WebhookEventRepository
func NewWebhookEventRepository(db *gorm.DB) *WebhookEventRepository {
	return &WebhookEventRepository{db: db}
}

// Create inserts a new outbox entry
func (r *WebhookEventRepository) Create(ctx context.Context, e *domain.WebhookEvent) error {
	return dbFor(ctx, r.db).Create(e).Error
}

// FindByID finds an outbox entry scoped to its merchant
func (r *WebhookEventRepository) FindByID(ctx context.Context, merchantID, eventID string) (*domain.WebhookEvent, error) {
	var e domain.WebhookEvent
	err := dbFor(ctx, r.db).
		Where("merchant_id = ? AND id = ?", merchantID, eventID).
		First(&e).Error
	return &e, err
}

// ListDue returns undelivered entries still under the attempt ceiling that
// have somewhere to go, oldest attempt first so no event is starved.
// MySQL sorts NULL last_attempt_at first, which puts never-attempted
// events at the front.
func (r *WebhookEventRepository) ListDue(ctx context.Context, maxAttempts, limit int) ([]domain.WebhookEvent, error) {
	var events []domain.WebhookEvent
	err := dbFor(ctx, r.db).
		Where("status <> ? AND attempt_count < ? AND target_url <> ''",
			domain.WebhookStatusDelivered, maxAttempts).
		Order("last_attempt_at ASC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

// RecordAttempt persists the outcome of one delivery attempt. Only the
// delivery fields are written; the payload and identity columns stay
// untouched.
func (r *WebhookEventRepository) RecordAttempt(ctx context.Context, e *domain.WebhookEvent) error {
	return dbFor(ctx, r.db).Model(&domain.WebhookEvent{}).
		Where("id = ?", e.ID).
		Updates(map[string]interface{}{
			"status":           e.Status,
			"attempt_count":    e.AttemptCount,
			"last_status_code": e.LastStatusCode,
			"last_attempt_at":  e.LastAttemptAt,
			"delivered_at":     e.DeliveredAt,
		}).Error
}

// ListByMerchant lists a merchant's outbox entries with pagination, newest first
func (r *WebhookEventRepository) ListByMerchant(ctx context.Context, merchantID string, page, perPage int) ([]domain.WebhookEvent, int64, error) {
	var events []domain.WebhookEvent
	var total int64

	query := dbFor(ctx, r.db).Model(&domain.WebhookEvent{}).Where("merchant_id = ?", merchantID)
	query.Count(&total)

	err := query.Order("created_at DESC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&events).Error

	return events, total, err
}
