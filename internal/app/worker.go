package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"go-leaveflow/internal/messaging/kafka"
	"go-leaveflow/internal/messaging/kafka/producer"
	"go-leaveflow/internal/shared/connection"
)

// RunWorker ships pending outbox events to kafka until interrupted.
func RunWorker() error {
	logger := zap.L().Named("app.worker")

	broker := os.Getenv("KAFKA_BROKER")
	if broker == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}

	db, err := connection.ConnectGORMWithRetry(
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_SSLMODE"),
		5,
	)
	if err != nil {
		return err
	}

	writer, err := connection.ConnectKafkaWithRetry(broker, 5)
	if err != nil {
		return err
	}
	defer writer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	producer.ProcessOutboxEvents(ctx, kafka.NewOutboxRepository(db), writer, logger, 3*time.Second)

	logger.Info("worker shutting down")
	return nil
}
