// Package cache - кеш готовых ответов аналитики в Redis или в памяти процесса
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"syncdeck/internal/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// scanBatch - сколько ключей просить у SCAN за один шаг
const scanBatch = 100

type RedisCache struct {
	rdb       *redis.Client
	namespace string
}

// NewRedis подключается к Redis и проверяет соединение
func NewRedis(ctx context.Context, addr, password string, db int, namespace string) (*RedisCache, error) {
	opt := &redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		logger.Error("Cache: Redis недоступен", err)
		return nil, fmt.Errorf("подключение к redis: %w", err)
	}

	logger.Info("Cache: Подключение к Redis установлено", zap.String("addr", opt.Addr))
	return NewRedisWithClient(rdb, namespace), nil
}

func NewRedisWithClient(rdb *redis.Client, namespace string) *RedisCache {
	return &RedisCache{rdb: rdb, namespace: namespace}
}

func (c *RedisCache) key(k string) string {
	if c.namespace == "" {
		return k
	}
	return c.namespace + ":" + k
}

func (c *RedisCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	data, err := c.rdb.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("чтение ключа %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("разбор значения %s: %w", key, err)
	}
	return true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("сериализация значения %s: %w", key, err)
	}
	if err := c.rdb.Set(ctx, c.key(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("запись ключа %s: %w", key, err)
	}
	return nil
}

// InvalidatePrefix удаляет ключи с префиксом через SCAN, KEYS на проде не используем.
// Сначала собираются все ключи: удаление посреди обхода сдвигает курсор.
func (c *RedisCache) InvalidatePrefix(ctx context.Context, prefix string) error {
	var (
		cursor uint64
		found  []string
	)
	pattern := c.key(prefix) + "*"

	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return fmt.Errorf("поиск ключей %s: %w", pattern, err)
		}
		found = append(found, keys...)
		cursor = next
		if cursor == 0 {
			break
		}
	}

	for start := 0; start < len(found); start += scanBatch {
		end := min(start+scanBatch, len(found))
		if err := c.rdb.Del(ctx, found[start:end]...).Err(); err != nil {
			return fmt.Errorf("удаление ключей: %w", err)
		}
	}

	logger.Debug("Cache: Сброс ключей", zap.String("prefix", prefix), zap.Int("removed", len(found)))
	return nil
}

func (c *RedisCache) HealthCheck(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("проверка redis: %w", err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.rdb.Close()
}
