package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var _ Store = (*Redis)(nil)

type Redis struct {
	client redis.UniversalClient
}

// NewRedis connects to the redis at rawURL, authenticating with token.
func NewRedis(rawURL, token string) (*Redis, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}

	cl := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:        []string{opt.Addr},
		Username:     opt.Username,
		Password:     token,
		DB:           opt.DB,
		TLSConfig:    opt.TLSConfig,
		DialTimeout:  time.Second * 2,
		ReadTimeout:  time.Second * 2,
		WriteTimeout: time.Second * 2,
		PoolSize:     200,
		PoolTimeout:  time.Second * 5,
	})
	return &Redis{client: cl}, nil
}

func (c *Redis) Get(ctx context.Context, key string) (int64, error) {
	v, err := c.client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, ErrNotFound
	} else if err != nil {
		return 0, fmt.Errorf("redis GET %s: %w", key, err)
	}
	return v, nil
}

func (c *Redis) Set(ctx context.Context, key string, v int64) error {
	if err := c.client.Set(ctx, key, v, 0).Err(); err != nil {
		return fmt.Errorf("redis SET %s: %w", key, err)
	}
	return nil
}

func (c *Redis) Incr(ctx context.Context, key string) (int64, error) {
	n, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis INCR %s: %w", key, err)
	}
	return n, nil
}

func (c *Redis) Close() error {
	return c.client.Close()
}
