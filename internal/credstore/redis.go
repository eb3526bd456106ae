package credstore

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

type RedisBackend struct {
	client *redis.Client
}

func NewRedisBackend(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client}
}

func redisKey(namespace, account string) string {
	return "credential:" + namespace + ":" + account
}

func (r *RedisBackend) Add(ctx context.Context, namespace, account string, data []byte) error {
	ok, err := r.client.SetNX(ctx, redisKey(namespace, account), data, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrDuplicate
	}
	return nil
}

func (r *RedisBackend) Get(ctx context.Context, namespace, account string) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, redisKey(namespace, account)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (r *RedisBackend) Delete(ctx context.Context, namespace, account string) error {
	return r.client.Del(ctx, redisKey(namespace, account)).Err()
}
