package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	fieldData      = "data"
	fieldStale     = "stale"
	fieldUpdatedAt = "updated_at"
)

// RedisBackend stores each key as a hash with data, stale and updated_at fields,
// so several local instances can share one snapshot list.
type RedisBackend struct {
	client *redis.Client
	prefix string
}

// DialRedis connects and pings the configured server.
func DialRedis(ctx context.Context, opts BackendOptions) (*RedisBackend, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.RedisAddress,
		Password:     opts.RedisPassword,
		DB:           opts.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return NewRedisBackend(client, opts.KeyPrefix), nil
}

func NewRedisBackend(client *redis.Client, prefix string) *RedisBackend {
	return &RedisBackend{client: client, prefix: prefix}
}

func (r *RedisBackend) key(key string) string {
	return r.prefix + key
}

func (r *RedisBackend) Get(ctx context.Context, key string) (Entry, bool, error) {
	values, err := r.client.HGetAll(ctx, r.key(key)).Result()
	if err != nil {
		return Entry{}, false, err
	}
	data, ok := values[fieldData]
	if !ok {
		return Entry{}, false, nil
	}

	entry := Entry{Data: []byte(data), Stale: values[fieldStale] == "1"}
	if nanos, err := strconv.ParseInt(values[fieldUpdatedAt], 10, 64); err == nil {
		entry.UpdatedAt = time.Unix(0, nanos)
	}
	return entry, true, nil
}

func (r *RedisBackend) Set(ctx context.Context, key string, entry Entry) error {
	stale := "0"
	if entry.Stale {
		stale = "1"
	}
	return r.client.HSet(ctx, r.key(key),
		fieldData, entry.Data,
		fieldStale, stale,
		fieldUpdatedAt, strconv.FormatInt(entry.UpdatedAt.UnixNano(), 10),
	).Err()
}

func (r *RedisBackend) Invalidate(ctx context.Context, key string) error {
	exists, err := r.client.Exists(ctx, r.key(key)).Result()
	if err != nil {
		return err
	}
	if exists == 0 {
		return nil
	}
	return r.client.HSet(ctx, r.key(key), fieldStale, "1").Err()
}

func (r *RedisBackend) Close() error {
	return r.client.Close()
}
