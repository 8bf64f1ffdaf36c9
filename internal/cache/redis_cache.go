package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/annel0/mmo-navgrid/internal/logging"
)

// RedisCache реализует CacheRepo поверх Redis.
// Позволяет нескольким процессам navserver делить один кеш путей;
// ключи различаются идентификатором экземпляра сетки.
type RedisCache struct {
	client *redis.Client
	config *CacheConfig
	stats  stats
}

// NewRedisCache создаёт Redis кеш и проверяет соединение.
//
// Параметры:
//
//	config - конфигурация Redis и TTL
//
// Возвращает:
//
//	*RedisCache - готовый к использованию кеш
//	error - ошибка подключения
func NewRedisCache(config *CacheConfig) (*RedisCache, error) {
	rdb := redis.NewClient(newRedisOptions(config))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logging.Info("Redis cache initialized: %s (db: %d)", config.RedisURL, config.RedisDB)
	return newRedisCacheWithClient(rdb, config), nil
}

func newRedisOptions(config *CacheConfig) *redis.Options {
	config.ApplyDefaults()
	return &redis.Options{
		Addr:         config.RedisURL,
		Password:     config.RedisPassword,
		DB:           config.RedisDB,
		PoolSize:     config.MaxConnections,
		PoolTimeout:  config.PoolTimeout,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
}

func newRedisCacheWithClient(client *redis.Client, config *CacheConfig) *RedisCache {
	config.ApplyDefaults()
	return &RedisCache{client: client, config: config}
}

// Get получает значение по ключу из Redis
func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	defer r.stats.recordLatency(start)

	val, err := r.client.Get(ctx, key).Bytes()
	if err == nil {
		r.stats.hit()
		return val, nil
	}

	r.stats.miss()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}

	logging.Error("Redis Get error for key %s: %v", key, err)
	return nil, fmt.Errorf("redis get error: %w", err)
}

// Set сохраняет значение в Redis
func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return ErrInvalidKey
	}
	start := time.Now()
	defer r.stats.recordLatency(start)

	if err := r.client.Set(ctx, key, value, r.config.clampTTL(ttl)).Err(); err != nil {
		logging.Error("Redis Set error for key %s: %v", key, err)
		return fmt.Errorf("redis set error: %w", err)
	}
	return nil
}

// Delete удаляет ключ из кеша
func (r *RedisCache) Delete(ctx context.Context, key string) error {
	start := time.Now()
	defer r.stats.recordLatency(start)

	if err := r.client.Del(ctx, key).Err(); err != nil {
		logging.Error("Redis Delete error for key %s: %v", key, err)
		return fmt.Errorf("redis delete error: %w", err)
	}
	return nil
}

// Exists проверяет существование ключа
func (r *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	start := time.Now()
	defer r.stats.recordLatency(start)

	count, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists error: %w", err)
	}
	return count > 0, nil
}

// Close закрывает соединение с Redis
func (r *RedisCache) Close() error {
	if err := r.client.Close(); err != nil {
		logging.Error("Error closing Redis connection: %v", err)
		return err
	}
	logging.Info("Redis cache closed")
	return nil
}

// GetMetrics возвращает текущие метрики кеша.
// TotalKeys не заполняется: DBSIZE считает ключи всей базы.
func (r *RedisCache) GetMetrics() *CacheMetrics {
	return r.stats.snapshot(0)
}
