package client

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// QueryCache хранит сырые ответы GET по пути запроса. Одновременные загрузки
// одного ключа схлопываются в один запрос; после изменений записи сбрасываются по префиксу.
type QueryCache struct {
	mu      sync.RWMutex
	entries map[string][]byte
	group   singleflight.Group
	// поколение растёт при каждой инвалидации, устаревшая загрузка не кладётся в кеш
	generation uint64
}

func NewQueryCache() *QueryCache {
	return &QueryCache{entries: make(map[string][]byte)}
}

type loadFunc func(ctx context.Context) ([]byte, error)

// Get отдаёт закешированный ответ или загружает его.
// Если загрузку начал другой вызывающий и его отменили, запрос выполняется заново со своим ctx.
func (c *QueryCache) Get(ctx context.Context, key string, load loadFunc) ([]byte, error) {
	if body, ok := c.lookup(key); ok {
		return body, nil
	}

	ch := c.group.DoChan(key, func() (any, error) {
		gen := c.currentGeneration()
		body, err := load(ctx)
		if err != nil {
			return nil, err
		}
		c.store(key, body, gen)
		return body, nil
	})

	select {
	case <-ctx.Done():
		return nil, transportError(ctx, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			if res.Shared && IsCanceled(res.Err) && ctx.Err() == nil {
				return load(ctx)
			}
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

// Invalidate удаляет все ключи, начинающиеся с одного из префиксов
func (c *QueryCache) Invalidate(prefixes ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	for key := range c.entries {
		for _, p := range prefixes {
			if strings.HasPrefix(key, p) {
				delete(c.entries, key)
				break
			}
		}
	}
}

func (c *QueryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.entries = make(map[string][]byte)
}

func (c *QueryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *QueryCache) lookup(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	body, ok := c.entries[key]
	return body, ok
}

func (c *QueryCache) currentGeneration() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

func (c *QueryCache) store(key string, body []byte, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return
	}
	c.entries[key] = body
}
