package memory

import (
	"context"
	"sync"
	"time"
)

// уборка реже самого короткого TTL котировок смысла не имеет
const janitorInterval = 5 * time.Minute

type entry struct {
	value     interface{}
	expiresAt int64
}

// Cache - in-memory кеш с TTL для ответов коннекторов данных.
// Ключи вида "quote:AAPL:1mo", значения - готовые payload
type Cache struct {
	mu       sync.RWMutex
	items    map[string]entry
	stopChan chan struct{}
	stopped  bool
}

func New() *Cache {
	return NewWithContext(context.Background())
}

func NewWithContext(ctx context.Context) *Cache {
	c := &Cache{
		items:    make(map[string]entry),
		stopChan: make(chan struct{}),
	}
	go c.janitor(ctx)
	return c
}

func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.items[key]
	if !ok || time.Now().UnixNano() > e.expiresAt {
		return nil, false
	}
	return e.value, true
}

func (c *Cache) Set(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	c.items[key] = entry{value: value, expiresAt: time.Now().Add(ttl).UnixNano()}
	c.mu.Unlock()
}

func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

func (c *Cache) Stop() {
	c.mu.Lock()
	if !c.stopped {
		c.stopped = true
		close(c.stopChan)
	}
	c.mu.Unlock()
}

func (c *Cache) janitor(ctx context.Context) {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.removeExpired()
		}
	}
}

func (c *Cache) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().UnixNano()
	for k, e := range c.items {
		if now > e.expiresAt {
			delete(c.items, k)
		}
	}
}
