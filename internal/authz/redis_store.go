package authz

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisKeyPrefix = "authz:user:"

// RedisStore backs the resolver cache with Redis so multiple instances share
// one authorization view. Failures degrade to cache misses; they never
// surface to the authorization decision.
type RedisStore struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewRedisStore(rdb *redis.Client, logger ...*zap.Logger) *RedisStore {
	l := zap.L().Named("authz.redis_store")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("authz.redis_store")
	}
	return &RedisStore{rdb: rdb, logger: l}
}

func (s *RedisStore) Get(ctx context.Context, key string) (*AuthData, bool) {
	raw, err := s.rdb.Get(ctx, redisKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		s.logger.Warn("redis get failed, treating as miss", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	var data AuthData
	if err := json.Unmarshal(raw, &data); err != nil {
		s.logger.Warn("redis entry corrupt, evicting", zap.String("key", key), zap.Error(err))
		_ = s.rdb.Del(ctx, redisKeyPrefix+key).Err()
		return nil, false
	}
	return &data, true
}

func (s *RedisStore) Set(ctx context.Context, key string, data *AuthData, ttl time.Duration) {
	raw, err := json.Marshal(data)
	if err != nil {
		s.logger.Error("marshal auth data failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.rdb.Set(ctx, redisKeyPrefix+key, raw, ttl).Err(); err != nil {
		s.logger.Warn("redis set failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *RedisStore) Delete(ctx context.Context, key string) {
	if err := s.rdb.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		s.logger.Warn("redis delete failed", zap.String("key", key), zap.Error(err))
	}
}
