package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrUnavailable = errors.New("cache is not connected")

var rdb *redis.Client

func RedisClient(addr string, password string, db int) error {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	_, err := client.Ping(ctx).Result()
	if err != nil {
		client.Close()
		return err
	}

	rdb = client
	return nil
}

// Available reports whether a redis server was reached at startup.
func Available() bool {
	return rdb != nil
}

func SetCache(key string, value any, expiration time.Duration) error {
	if rdb == nil {
		return ErrUnavailable
	}

	ctx := context.Background()
	err := rdb.Set(ctx, key, value, expiration).Err()
	if err != nil {
		return err
	}
	return nil
}

// GetCache yields redis.Nil for a missing key.
func GetCache(key string) (string, error) {
	if rdb == nil {
		return "", ErrUnavailable
	}

	ctx := context.Background()
	val, err := rdb.Get(ctx, key).Result()
	if err != nil {
		return "", err
	}
	return val, nil
}

func DelCache(key string) error {
	if rdb == nil {
		return ErrUnavailable
	}

	ctx := context.Background()
	return rdb.Del(ctx, key).Err()
}

func Close() error {
	if rdb == nil {
		return nil
	}
	err := rdb.Close()
	rdb = nil
	return err
}
