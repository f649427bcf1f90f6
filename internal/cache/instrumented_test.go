package cache

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kitbuilder587/invest-bot/internal/metrics"
)

type fakeCache struct {
	data map[string]interface{}
}

func (f *fakeCache) Get(key string) (interface{}, bool) {
	v, ok := f.data[key]
	return v, ok
}
func (f *fakeCache) Set(key string, value interface{}, _ time.Duration) { f.data[key] = value }
func (f *fakeCache) Delete(key string)                                  { delete(f.data, key) }

func TestInstrumented(t *testing.T) {
	m := metrics.New()
	c := Instrumented(&fakeCache{data: map[string]interface{}{}}, m)

	c.Set("quote:AAPL:1mo", 231.5, time.Minute)

	if v, ok := c.Get("quote:AAPL:1mo"); !ok || v != 231.5 {
		t.Errorf("Get() = %v, %v", v, ok)
	}
	if _, ok := c.Get("quote:ZZZZ:1mo"); ok {
		t.Error("Get() ok for unknown key")
	}

	if got := testutil.ToFloat64(m.CacheHitsTotal); got != 1 {
		t.Errorf("cache hits = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.CacheMissesTotal); got != 1 {
		t.Errorf("cache misses = %v, want 1", got)
	}

	c.Delete("quote:AAPL:1mo")
	if _, ok := c.Get("quote:AAPL:1mo"); ok {
		t.Error("key alive after Delete")
	}
}
