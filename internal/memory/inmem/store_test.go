package inmem

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/kitbuilder587/invest-bot/internal/domain"
)

func TestStore_GetNoHistory(t *testing.T) {
	s := New()

	_, err := s.Get(context.Background(), "AAPL")
	if !errors.Is(err, domain.ErrNoHistory) {
		t.Errorf("Get() error = %v, want ErrNoHistory", err)
	}
}

func TestStore_AppendAndGet(t *testing.T) {
	s := New()
	ctx := context.Background()

	entries := []domain.MemoryEntry{
		{RunID: "r1", Summary: "first note", Iteration: 1, Score: 0.9, Passed: true, CreatedAt: time.Now().Add(-time.Hour)},
		{RunID: "r2", Summary: "second note", Iteration: 2, Score: 0.7, Passed: false, CreatedAt: time.Now()},
	}
	for _, e := range entries {
		if err := s.Append(ctx, "AAPL", e); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	rec, err := s.Get(ctx, "AAPL")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(rec.History) != 2 {
		t.Fatalf("history = %d, want 2", len(rec.History))
	}
	// порядок вставки сохраняется
	if rec.History[0].RunID != "r1" || rec.History[1].RunID != "r2" {
		t.Errorf("history order = %s, %s", rec.History[0].RunID, rec.History[1].RunID)
	}
	if last := rec.Last(); last == nil || last.RunID != "r2" {
		t.Errorf("Last() = %+v, want r2", last)
	}
	if !rec.LastUpdated.Equal(entries[1].CreatedAt) {
		t.Errorf("LastUpdated = %v", rec.LastUpdated)
	}
}

func TestStore_GetReturnsCopy(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.Append(ctx, "AAPL", domain.MemoryEntry{RunID: "r1", Summary: "original"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	rec, _ := s.Get(ctx, "AAPL")
	rec.History[0].Summary = "tampered"
	rec.History = append(rec.History, domain.MemoryEntry{RunID: "fake"})

	again, _ := s.Get(ctx, "AAPL")
	if len(again.History) != 1 || again.History[0].Summary != "original" {
		t.Error("mutating a returned record must not affect the store")
	}
}

func TestStore_SymbolsIsolated(t *testing.T) {
	s := New()
	ctx := context.Background()

	s.Append(ctx, "AAPL", domain.MemoryEntry{RunID: "a"})
	s.Append(ctx, "TSLA", domain.MemoryEntry{RunID: "t"})

	rec, err := s.Get(ctx, "AAPL")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(rec.History) != 1 || rec.History[0].RunID != "a" {
		t.Errorf("history = %+v, want only AAPL entries", rec.History)
	}
}

func TestStore_ConcurrentAppends(t *testing.T) {
	s := New()
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Append(ctx, "AAPL", domain.MemoryEntry{RunID: fmt.Sprintf("r%d", i), CreatedAt: time.Now()})
		}(i)
	}
	wg.Wait()

	rec, err := s.Get(ctx, "AAPL")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(rec.History) != n {
		t.Errorf("history = %d, want %d: appends must not be lost", len(rec.History), n)
	}
}

func TestStore_EmptySymbol(t *testing.T) {
	s := New()

	if err := s.Append(context.Background(), "", domain.MemoryEntry{RunID: "r"}); !errors.Is(err, domain.ErrMissingSymbol) {
		t.Errorf("Append() error = %v, want ErrMissingSymbol", err)
	}
	if _, err := s.Get(context.Background(), ""); !errors.Is(err, domain.ErrMissingSymbol) {
		t.Errorf("Get() error = %v, want ErrMissingSymbol", err)
	}
}
