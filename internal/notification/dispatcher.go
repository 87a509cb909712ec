package notification

import (
	"context"
	"encoding/json"

	"go-leaveflow/internal/events"
	"go-leaveflow/internal/messaging/kafka"
	"go-leaveflow/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Dispatcher is fire-and-forget: delivery problems are logged, never
// propagated into the workflow that triggered them.
type Dispatcher interface {
	WithTx(tx *gorm.DB) Dispatcher
	SendLeaveApprovalNotification(ctx context.Context, ev events.LeaveApprovalRequestedEvent)
	SendLeaveStatusUpdate(ctx context.Context, ev events.LeaveStatusChangedEvent)
}

// outboxDispatcher enqueues notification events through the transactional
// outbox, so a committed decision and its notification cannot diverge, while
// a failed enqueue still cannot fail the decision.
type outboxDispatcher struct {
	outbox kafka.OutboxRepository
	logger *zap.Logger
}

func NewOutboxDispatcher(outbox kafka.OutboxRepository, logger ...*zap.Logger) Dispatcher {
	l := zap.L().Named("notification.dispatcher")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("notification.dispatcher")
	}
	return &outboxDispatcher{outbox: outbox, logger: l}
}

func (d *outboxDispatcher) WithTx(tx *gorm.DB) Dispatcher {
	return &outboxDispatcher{outbox: d.outbox.WithTx(tx), logger: d.logger}
}

func (d *outboxDispatcher) SendLeaveApprovalNotification(ctx context.Context, ev events.LeaveApprovalRequestedEvent) {
	d.enqueue(ctx, events.TopicLeaveApprovalRequested, events.EventTypeLeaveApprovalRequested, ev.LeaveRequestID, ev)
}

func (d *outboxDispatcher) SendLeaveStatusUpdate(ctx context.Context, ev events.LeaveStatusChangedEvent) {
	d.enqueue(ctx, events.TopicLeaveStatusChanged, events.EventTypeLeaveStatusChanged, ev.LeaveRequestID, ev)
}

func (d *outboxDispatcher) enqueue(ctx context.Context, topic, eventType, aggregateID string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		d.logger.Error("marshal notification event failed",
			zap.String("event_type", eventType), zap.Error(err))
		return
	}

	event := kafka.OutboxEvent{
		ID:            uuid.New().String(),
		RequestID:     contextutil.GetRequestID(ctx),
		AggregateType: "leave_request",
		AggregateID:   aggregateID,
		EventType:     eventType,
		Topic:         topic,
		Payload:       raw,
		Status:        kafka.OutboxStatusPending,
	}

	if err := d.outbox.Create(ctx, event); err != nil {
		d.logger.Error("enqueue notification event failed",
			zap.String("event_type", eventType),
			zap.String("aggregate_id", aggregateID),
			zap.Error(err),
		)
		return
	}

	d.logger.Debug("notification event enqueued",
		zap.String("event_type", eventType),
		zap.String("aggregate_id", aggregateID),
	)
}
