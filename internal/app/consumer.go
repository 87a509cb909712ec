package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"go-leaveflow/internal/events"
	"go-leaveflow/internal/messaging/kafka/consumer"
	"go-leaveflow/internal/notification"
)

// RunConsumer reads notification events off kafka and delivers them until
// interrupted. Delivery is best-effort; a failed send is logged and the
// message committed anyway.
func RunConsumer() error {
	logger := zap.L().Named("app.consumer")

	kafkaBroker := os.Getenv("KAFKA_BROKER")
	if kafkaBroker == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}

	mailer := notification.NewLogMailer()

	approvalReader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        []string{kafkaBroker},
		Topic:          events.TopicLeaveApprovalRequested,
		GroupID:        "go-leaveflow-notifications",
		CommitInterval: 0,
		StartOffset:    kafkago.FirstOffset,
	})
	defer approvalReader.Close()

	statusReader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        []string{kafkaBroker},
		Topic:          events.TopicLeaveStatusChanged,
		GroupID:        "go-leaveflow-notifications",
		CommitInterval: 0,
		StartOffset:    kafkago.FirstOffset,
	})
	defer statusReader.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go consumer.ConsumeApprovalRequests(ctx, approvalReader, mailer, logger)
	consumer.ConsumeStatusUpdates(ctx, statusReader, mailer, logger)

	logger.Info("consumer shutting down")
	return nil
}
