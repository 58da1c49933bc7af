package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionPrefix = "session:"

// RedisSessions keeps session tokens in Redis with a TTL.
type RedisSessions struct {
	rdb *redis.Client
}

// NewRedisSessions returns a SessionStore backed by rdb.
func NewRedisSessions(rdb *redis.Client) *RedisSessions {
	return &RedisSessions{rdb: rdb}
}

func (r *RedisSessions) Save(ctx context.Context, token string, a Actor, ttl time.Duration) error {
	b, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal actor: %w", err)
	}
	return r.rdb.Set(ctx, sessionPrefix+token, b, ttl).Err()
}

func (r *RedisSessions) Get(ctx context.Context, token string) (*Actor, error) {
	b, err := r.rdb.Get(ctx, sessionPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var a Actor
	if err := json.Unmarshal(b, &a); err != nil {
		return nil, fmt.Errorf("unmarshal actor: %w", err)
	}
	return &a, nil
}

func (r *RedisSessions) Delete(ctx context.Context, token string) error {
	return r.rdb.Del(ctx, sessionPrefix+token).Err()
}
