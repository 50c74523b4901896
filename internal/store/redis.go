package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisConfig defines Redis/KeyDB connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	Database int
}

// Redis implements Store with one string key per parameter.
type Redis struct {
	client *redis.Client
}

// NewRedis connects to Redis and verifies the connection.
func NewRedis(cfg RedisConfig) (*Redis, error) {
	addr := cfg.Addr
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.Database,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &Redis{client: client}, nil
}

// GetParameter returns the value for name. Returns ErrNotFound when the key is absent.
func (r *Redis) GetParameter(ctx context.Context, name string) (string, error) {
	v, err := r.client.Get(ctx, name).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	return v, err
}

// PutParameter overwrites the value for name.
func (r *Redis) PutParameter(ctx context.Context, name, value string) error {
	return r.client.Set(ctx, name, value, 0).Err()
}

// Ping checks the connection.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the client.
func (r *Redis) Close() error {
	return r.client.Close()
}
