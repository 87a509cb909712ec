package authz_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"go-leaveflow/internal/authz"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
)

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	key := "authz:user:u1"
	data := &authz.AuthData{
		User:                 authz.Subject{ID: "u1", LegacyRole: "employee"},
		EffectiveRoles:       []string{"employee"},
		EffectivePermissions: []string{"create:leave_request"},
	}

	t.Run("get hit", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		store := authz.NewRedisStore(rdb)

		raw, err := json.Marshal(data)
		assert.NoError(t, err)
		mock.ExpectGet(key).SetVal(string(raw))

		got, ok := store.Get(ctx, "u1")
		assert.True(t, ok)
		assert.Equal(t, data, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("get miss on nil", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		store := authz.NewRedisStore(rdb)

		mock.ExpectGet(key).RedisNil()

		_, ok := store.Get(ctx, "u1")
		assert.False(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("get error degrades to miss", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		store := authz.NewRedisStore(rdb)

		mock.ExpectGet(key).SetErr(assert.AnError)

		_, ok := store.Get(ctx, "u1")
		assert.False(t, ok)
	})

	t.Run("corrupt entry evicted and treated as miss", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		store := authz.NewRedisStore(rdb)

		mock.ExpectGet(key).SetVal("{not json")
		mock.ExpectDel(key).SetVal(1)

		_, ok := store.Get(ctx, "u1")
		assert.False(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("set writes json with ttl", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		store := authz.NewRedisStore(rdb)

		raw, err := json.Marshal(data)
		assert.NoError(t, err)
		mock.ExpectSet(key, raw, 10*time.Minute).SetVal("OK")

		store.Set(ctx, "u1", data, 10*time.Minute)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("delete", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		store := authz.NewRedisStore(rdb)

		mock.ExpectDel(key).SetVal(1)

		store.Delete(ctx, "u1")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
