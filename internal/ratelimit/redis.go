package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a fixed-window limiter shared across instances: INCR on a
// per-key window counter with a TTL on first touch. Fails open on redis
// errors so a cache outage cannot take requests down with it.
type Redis struct {
	client *redis.Client
	limit  int
	window time.Duration
}

func NewRedis(client *redis.Client, perMinute int) *Redis {
	return &Redis{client: client, limit: perMinute, window: time.Minute}
}

func (r *Redis) Allow(ctx context.Context, key string) (bool, error) {
	window := time.Now().Unix() / int64(r.window.Seconds())
	redisKey := fmt.Sprintf("ratelimit:%s:%d", key, window)

	count, err := r.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return true, err
	}
	if count == 1 {
		// First hit in this window owns the expiry
		r.client.Expire(ctx, redisKey, r.window)
	}
	return count <= int64(r.limit), nil
}
