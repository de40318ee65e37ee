package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
)

type entry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryCache - замена Redis для одного процесса. Значения хранятся в JSON,
// чтобы читатель получал копию, как и из Redis.
type MemoryCache struct {
	mtx   sync.RWMutex
	items map[string]entry
	now   func() time.Time
}

func NewMemory() *MemoryCache {
	return &MemoryCache{
		items: make(map[string]entry),
		now:   time.Now,
	}
}

func (c *MemoryCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mtx.RLock()
	e, ok := c.items[key]
	c.mtx.RUnlock()

	if !ok {
		return false, nil
	}
	if !e.expiresAt.IsZero() && c.now().After(e.expiresAt) {
		c.mtx.Lock()
		delete(c.items, key)
		c.mtx.Unlock()
		return false, nil
	}
	if err := json.Unmarshal(e.data, dst); err != nil {
		return false, fmt.Errorf("разбор значения %s: %w", key, err)
	}
	return true, nil
}

func (c *MemoryCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("сериализация значения %s: %w", key, err)
	}

	e := entry{data: data}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}

	c.mtx.Lock()
	c.items[key] = e
	c.mtx.Unlock()
	return nil
}

func (c *MemoryCache) InvalidatePrefix(ctx context.Context, prefix string) error {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	for k := range c.items {
		if strings.HasPrefix(k, prefix) {
			delete(c.items, k)
		}
	}
	return nil
}

func (c *MemoryCache) HealthCheck(ctx context.Context) error {
	return nil
}

func (c *MemoryCache) Close() error {
	return nil
}
