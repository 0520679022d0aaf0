package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces extraction entries inside a shared redis.
const keyPrefix = "extract:"

// Redis stores entries in redis with an optional TTL. It shares the JSON
// record shape with the disk backend.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool) {
	val, err := r.client.Get(ctx, keyPrefix+key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("cache read failed", "key", key, "error", err)
		}
		return "", false
	}

	var e entry
	if err := json.Unmarshal([]byte(val), &e); err != nil {
		slog.Warn("cache entry corrupt", "key", key, "error", err)
		return "", false
	}
	return e.Text, true
}

func (r *Redis) Set(ctx context.Context, key, text string) {
	data, err := json.Marshal(entry{Text: text})
	if err != nil {
		slog.Warn("cache encode failed", "key", key, "error", err)
		return
	}
	if err := r.client.Set(ctx, keyPrefix+key, data, r.ttl).Err(); err != nil {
		slog.Warn("cache write failed", "key", key, "error", err)
	}
}
