package statestore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marcogenualdo/classboard/internal/config"
)

const redisKeyPrefix = "classboard:pkce:"

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(cfg config.RedisConfig, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.New("failed to connect to Redis: " + err.Error())
	}

	return NewRedisStoreFromClient(client, ttl), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (rs *RedisStore) Begin(ctx context.Context, key, verifier string) error {
	if key == "" {
		return errors.New("empty correlation key")
	}

	ok, err := rs.client.SetNX(ctx, redisKeyPrefix+key, verifier, rs.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("correlation key already in use")
	}
	return nil
}

// Consume uses GETDEL so two concurrent callbacks cannot both obtain the verifier.
func (rs *RedisStore) Consume(ctx context.Context, key string) (string, error) {
	val, err := rs.client.GetDel(ctx, redisKeyPrefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", err
	}
	return val, nil
}

func (rs *RedisStore) Ping(ctx context.Context) error {
	return rs.client.Ping(ctx).Err()
}

func (rs *RedisStore) Close() error {
	return rs.client.Close()
}
