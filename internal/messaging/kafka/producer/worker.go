package producer

import (
	"context"
	"time"

	"go-leaveflow/internal/messaging/kafka"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const drainBatchSize = 50

// ProcessOutboxEvents polls the outbox and ships pending notification events
// to kafka until the context is cancelled. Each tick drains the queue in
// batches so a burst of decisions does not wait a full interval per batch.
func ProcessOutboxEvents(
	ctx context.Context,
	repo kafka.OutboxRepository,
	writer *kafkago.Writer,
	logger *zap.Logger,
	pollInterval time.Duration,
) {
	if pollInterval <= 0 {
		pollInterval = 3 * time.Second
	}

	log := logger.Named("kafka.producer.worker")
	log.Info("outbox worker started", zap.Duration("poll_interval", pollInterval))

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("outbox worker stopped")
			return
		case <-ticker.C:
			drainOutbox(ctx, repo, writer, log)
		}
	}
}

func drainOutbox(ctx context.Context, repo kafka.OutboxRepository, writer *kafkago.Writer, log *zap.Logger) {
	for {
		events, err := repo.ListPending(ctx, drainBatchSize)
		if err != nil {
			log.Error("list pending outbox events failed", zap.Error(err))
			return
		}
		if len(events) == 0 {
			return
		}

		for _, event := range events {
			shipEvent(ctx, repo, writer, log, event)
		}

		// A short page means the queue is drained.
		if len(events) < drainBatchSize {
			return
		}
	}
}

func shipEvent(ctx context.Context, repo kafka.OutboxRepository, writer *kafkago.Writer, log *zap.Logger, event kafka.OutboxEvent) {
	fields := []zap.Field{
		zap.String("outbox_id", event.ID),
		zap.String("event_type", event.EventType),
		zap.String("topic", event.Topic),
	}

	if err := publishEvent(ctx, writer, event); err != nil {
		log.Error("publish outbox event failed", append(fields, zap.Error(err))...)
		// Failed rows stay in the queue and come back with a retry delay.
		if markErr := repo.MarkFailed(ctx, event.ID, err.Error()); markErr != nil {
			log.Error("mark outbox failed errored", append(fields, zap.Error(markErr))...)
		}
		return
	}

	if err := repo.MarkSent(ctx, event.ID); err != nil {
		// The event went out but the row stays pending; the consumer side
		// must tolerate the duplicate.
		log.Error("mark outbox sent failed", append(fields, zap.Error(err))...)
		return
	}

	log.Debug("outbox event sent", fields...)
}
