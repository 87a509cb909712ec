package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

const (
	OutboxStatusPending = "pending"
	OutboxStatusSent    = "sent"
	OutboxStatusFailed  = "failed"
)

type OutboxEvent struct {
	ID            string
	RequestID     string
	AggregateType string
	AggregateID   string
	EventType     string
	Topic         string
	Payload       []byte
	Status        string
	RetryCount    int
	NextRetryAt   time.Time
}

// OutboxRepository persists events in the same transaction as the state
// change that caused them; a poller ships them to kafka afterwards.
type OutboxRepository interface {
	WithTx(tx *gorm.DB) OutboxRepository
	Create(ctx context.Context, event OutboxEvent) error
	ListPending(ctx context.Context, limit int) ([]OutboxEvent, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, reason string) error
}

type outboxRepository struct {
	db *gorm.DB
}

func NewOutboxRepository(db *gorm.DB) OutboxRepository {
	return &outboxRepository{db: db}
}

func (r *outboxRepository) WithTx(tx *gorm.DB) OutboxRepository {
	return &outboxRepository{db: tx}
}

func (r *outboxRepository) Create(ctx context.Context, event OutboxEvent) error {
	if err := ValidateOutboxEvent(event); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Exec(`
        INSERT INTO outbox_events (
            id, request_id, aggregate_type, aggregate_id, event_type, topic, payload, status
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `,
		event.ID, event.RequestID, event.AggregateType,
		event.AggregateID, event.EventType, event.Topic, event.Payload, event.Status,
	).Error
}

func (r *outboxRepository) ListPending(ctx context.Context, limit int) ([]OutboxEvent, error) {
	var events []OutboxEvent
	err := r.db.WithContext(ctx).Raw(`
SELECT
	id::text,
	request_id,
	aggregate_type,
	aggregate_id::text,
	event_type,
	topic,
	payload,
	status,
	retry_count,
	COALESCE(next_retry_at, created_at) AS next_retry_at
FROM outbox_events
WHERE status IN (?, ?)
	AND (next_retry_at IS NULL OR next_retry_at <= NOW())
ORDER BY created_at ASC
LIMIT ?
`, OutboxStatusPending, OutboxStatusFailed, limit).Scan(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *outboxRepository) MarkSent(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Exec(`
UPDATE outbox_events
SET
	status = ?,
	processed_at = NOW(),
	error_message = NULL,
	updated_at = NOW()
WHERE id = ?
`, OutboxStatusSent, id).Error
}

func (r *outboxRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	return r.db.WithContext(ctx).Exec(`
UPDATE outbox_events
SET
	status = ?,
	retry_count = retry_count + 1,
	error_message = LEFT(?, 500),
	next_retry_at = NOW() + (LEAST(retry_count + 1, 10) * INTERVAL '15 seconds'),
	updated_at = NOW()
WHERE id = ?
`, OutboxStatusFailed, reason, id).Error
}

func ValidateOutboxEvent(event OutboxEvent) error {
	if event.ID == "" {
		return errors.New("outbox id is required")
	}
	if event.Topic == "" {
		return errors.New("outbox topic is required")
	}
	if len(event.Payload) == 0 {
		return errors.New("outbox payload is required")
	}
	switch event.Status {
	case OutboxStatusPending, OutboxStatusSent, OutboxStatusFailed:
		return nil
	default:
		return fmt.Errorf("invalid outbox status: %s", event.Status)
	}
}
