package ratelimit

import (
	"testing"
	"time"
)

func TestLimiter_Allow(t *testing.T) {
	l := New(Config{RequestsPerMinute: 3})

	for i := 0; i < 3; i++ {
		if !l.Allow("market_quote") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	if l.Allow("market_quote") {
		t.Error("4th request should be rejected")
	}

	// другой ключ не затронут
	if !l.Allow("news_search") {
		t.Error("different key should have its own window")
	}
}

func TestLimiter_Remaining(t *testing.T) {
	l := New(Config{RequestsPerMinute: 5})

	if rem := l.Remaining("chat:42"); rem != 5 {
		t.Errorf("Remaining() = %d, want 5", rem)
	}

	l.Allow("chat:42")
	l.Allow("chat:42")

	if rem := l.Remaining("chat:42"); rem != 3 {
		t.Errorf("Remaining() = %d, want 3", rem)
	}
}

func TestLimiter_WindowExpiry(t *testing.T) {
	l := New(Config{RequestsPerMinute: 1})
	l.window = 50 * time.Millisecond

	if !l.Allow("k") {
		t.Fatal("first request should pass")
	}
	if l.Allow("k") {
		t.Fatal("second request should be rejected")
	}

	time.Sleep(60 * time.Millisecond)

	if !l.Allow("k") {
		t.Error("request after window expiry should pass")
	}
}

func TestLimiter_DefaultLimit(t *testing.T) {
	l := New(Config{})
	if l.limit != 10 {
		t.Errorf("default limit = %d, want 10", l.limit)
	}
}

func TestLimiter_ResetTime(t *testing.T) {
	l := New(Config{RequestsPerMinute: 1})

	before := time.Now()
	l.Allow("k")
	reset := l.ResetTime("k")

	if reset.Before(before.Add(l.window - time.Second)) {
		t.Errorf("ResetTime() = %v, too early", reset)
	}
}
