package connection

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const retryDelay = 5 * time.Second

// retry runs attempt up to maxRetries times with a fixed delay between
// failures. Infrastructure comes up in arbitrary order under compose, so
// every connector tolerates a slow peer.
func retry(what string, maxRetries int, attempt func() error) error {
	var lastErr error
	for i := 1; i <= maxRetries; i++ {
		if lastErr = attempt(); lastErr == nil {
			return nil
		}
		zap.L().Warn(what+" connect failed",
			zap.Int("attempt", i),
			zap.Int("max_retries", maxRetries),
			zap.Error(lastErr),
		)
		time.Sleep(retryDelay)
	}
	return fmt.Errorf("%s connection failed after %d retries: %w", what, maxRetries, lastErr)
}

func ConnectGORMWithRetry(
	host, user, password, dbname, port, sslmode string,
	maxRetries int,
) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		host, user, password, dbname, port, sslmode,
	)

	var db *gorm.DB
	err := retry("database", maxRetries, func() error {
		opened, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err != nil {
			return err
		}
		sqlDB, err := opened.DB()
		if err != nil {
			return err
		}
		if err := sqlDB.Ping(); err != nil {
			return err
		}
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(time.Hour)
		db = opened
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("gorm connected to database")
	return db, nil
}

func ConnectRedisWithRetry(addr string, maxRetries int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})

	err := retry("redis", maxRetries, func() error {
		return rdb.Ping(context.Background()).Err()
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("connected to redis", zap.String("addr", addr))
	return rdb, nil
}

// ConnectKafkaWithRetry dials the broker until it answers, then returns a
// writer. The topic comes from each message, not the writer.
func ConnectKafkaWithRetry(broker string, maxRetries int) (*kafkago.Writer, error) {
	err := retry("kafka", maxRetries, func() error {
		conn, err := kafkago.Dial("tcp", broker)
		if err != nil {
			return err
		}
		return conn.Close()
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("connected to kafka", zap.String("broker", broker))
	return &kafkago.Writer{
		Addr:         kafkago.TCP(broker),
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}, nil
}
