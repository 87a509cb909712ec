package app

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"go-leaveflow/internal/shared/connection"
)

// BuildApp connects the infrastructure and registers every module on the
// router. A misconfigured role catalog is fatal here, before any request is
// served.
func BuildApp(router *gin.Engine) error {
	logger := zap.L().Named("app")

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
		return fmt.Errorf("connect database: %w", err)
	}
	logger.Info("database connection established")

	// Redis is optional: without it the auth cache runs in-process.
	var rdb *redis.Client
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		rdb, err = connection.ConnectRedisWithRetry(addr, 5)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		logger.Info("redis connection established")
	} else {
		logger.Info("REDIS_ADDR not set, using in-memory auth cache")
	}

	return registerModules(router, db, rdb)
}
