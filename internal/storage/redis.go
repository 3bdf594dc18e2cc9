package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisCommander はRedisStorageが使用するgo-redisのコマンドの部分集合。
// *redis.Clientがこれを満たす。
type redisCommander interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisStorage はRedisに保存するStorage実装。
// キーは "storefront:<namespace>:<key>" の形式で保存し、有効期限は設定しない。
type RedisStorage struct {
	client    redisCommander
	namespace string
}

// NewRedisStorage はRedisStorageを生成する。
func NewRedisStorage(client *redis.Client, namespace string) *RedisStorage {
	return &RedisStorage{client: client, namespace: namespace}
}

func (r *RedisStorage) redisKey(key string) string {
	return "storefront:" + r.namespace + ":" + key
}

// Get はキーに対応する値を返す。
func (r *RedisStorage) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.Get(ctx, r.redisKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get storage value from redis: %w", err)
	}
	return v, true, nil
}

// Set はキーに値を保存する。
func (r *RedisStorage) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.redisKey(key), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set storage value in redis: %w", err)
	}
	return nil
}

// Remove はキーを削除する。
func (r *RedisStorage) Remove(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.redisKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to remove storage value from redis: %w", err)
	}
	return nil
}

// compile-time interface check
var _ Storage = (*RedisStorage)(nil)
