package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// SignupCooldown decides whether a confirmation e-mail may go out now.
type SignupCooldown interface {
	// Acquire reports true when no e-mail went to the address within the window.
	Acquire(ctx context.Context, email string) (bool, error)
	Close() error
}

// SignupCooldownRedis keeps one expiring key per address. A nil value or a
// nil client always grants, so the service runs without Redis.
type SignupCooldownRedis struct {
	client *redis.Client
	window time.Duration
}

// NewSignupCooldownRedis connects to redisURL. An empty URL yields a
// disabled cooldown.
func NewSignupCooldownRedis(redisURL string, window time.Duration) (*SignupCooldownRedis, error) {
	if redisURL == "" {
		return &SignupCooldownRedis{window: window}, nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewSignupCooldownFromClient(rdb, window), nil
}

func NewSignupCooldownFromClient(client *redis.Client, window time.Duration) *SignupCooldownRedis {
	return &SignupCooldownRedis{client: client, window: window}
}

func (r *SignupCooldownRedis) Acquire(ctx context.Context, email string) (bool, error) {
	if r == nil || r.client == nil || r.window <= 0 {
		return true, nil
	}
	key := fmt.Sprintf("signup:cooldown:%s", strings.ToLower(email))
	return r.client.SetNX(ctx, key, time.Now().Unix(), r.window).Result()
}

func (r *SignupCooldownRedis) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Close()
}
