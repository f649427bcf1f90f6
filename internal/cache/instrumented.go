package cache

import (
	"time"

	"github.com/kitbuilder587/invest-bot/internal/metrics"
)

type instrumented struct {
	next Cache
	m    *metrics.Metrics
}

// Instrumented считает попадания и промахи поверх любого кеша
func Instrumented(next Cache, m *metrics.Metrics) Cache {
	return &instrumented{next: next, m: m}
}

func (c *instrumented) Get(key string) (interface{}, bool) {
	v, ok := c.next.Get(key)
	if ok {
		c.m.RecordCacheHit()
	} else {
		c.m.RecordCacheMiss()
	}
	return v, ok
}

func (c *instrumented) Set(key string, value interface{}, ttl time.Duration) {
	c.next.Set(key, value, ttl)
}

func (c *instrumented) Delete(key string) {
	c.next.Delete(key)
}
