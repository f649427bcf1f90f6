package memory

import (
	"context"
	"testing"
	"time"
)

func TestCache_SetAndGet(t *testing.T) {
	c := New()
	defer c.Stop()

	payload := map[string]any{"symbol": "AAPL", "price": 231.5}
	c.Set("quote:AAPL:1mo", payload, 5*time.Minute)

	got, ok := c.Get("quote:AAPL:1mo")
	if !ok {
		t.Fatal("Get() ok = false for existing key")
	}
	if got.(map[string]any)["symbol"] != "AAPL" {
		t.Errorf("Get() = %v", got)
	}
}

func TestCache_Miss(t *testing.T) {
	c := New()
	defer c.Stop()

	if got, ok := c.Get("quote:ZZZZ:1mo"); ok || got != nil {
		t.Errorf("Get() = %v, %v for unknown key", got, ok)
	}
}

func TestCache_TTLExpiration(t *testing.T) {
	c := New()
	defer c.Stop()

	c.Set("news:AAPL", "stale", 50*time.Millisecond)

	if _, ok := c.Get("news:AAPL"); !ok {
		t.Error("key missing before TTL")
	}

	time.Sleep(100 * time.Millisecond)

	if _, ok := c.Get("news:AAPL"); ok {
		t.Error("key alive after TTL")
	}
}

func TestCache_Delete(t *testing.T) {
	c := New()
	defer c.Stop()

	c.Set("fred:FEDFUNDS", 4.33, time.Hour)
	c.Delete("fred:FEDFUNDS")

	if _, ok := c.Get("fred:FEDFUNDS"); ok {
		t.Error("key alive after Delete")
	}
}

func TestCache_Overwrite(t *testing.T) {
	c := New()
	defer c.Stop()

	c.Set("quote:TSLA:1mo", 180.0, time.Hour)
	c.Set("quote:TSLA:1mo", 185.5, time.Hour)

	if got, _ := c.Get("quote:TSLA:1mo"); got != 185.5 {
		t.Errorf("Get() = %v, want 185.5", got)
	}
}

func TestCache_StopIdempotent(t *testing.T) {
	c := New()
	c.Stop()
	c.Stop() // повторный Stop не должен паниковать
}

func TestCache_ContextCancelStopsJanitor(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := NewWithContext(ctx)

	c.Set("quote:NVDA:1mo", 1.0, time.Hour)
	cancel()
	time.Sleep(10 * time.Millisecond)

	// отмена контекста гасит уборщика, но данные остаются доступны
	if _, ok := c.Get("quote:NVDA:1mo"); !ok {
		t.Error("cache unusable after context cancel")
	}
	c.Set("quote:AMZN:1mo", 2.0, time.Hour)
	if _, ok := c.Get("quote:AMZN:1mo"); !ok {
		t.Error("Set stopped working after context cancel")
	}
}

func TestCache_Concurrent(t *testing.T) {
	c := New()
	defer c.Stop()

	done := make(chan struct{})

	go func() {
		for i := 0; i < 1000; i++ {
			c.Set("quote:AAPL:1d", i, time.Hour)
		}
		done <- struct{}{}
	}()
	go func() {
		for i := 0; i < 1000; i++ {
			c.Get("quote:AAPL:1d")
		}
		done <- struct{}{}
	}()
	go func() {
		for i := 0; i < 100; i++ {
			c.Delete("quote:AAPL:1d")
		}
		done <- struct{}{}
	}()

	<-done
	<-done
	<-done
}
