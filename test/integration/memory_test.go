package integration

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kitbuilder587/invest-bot/internal/domain"
	pgmemory "github.com/kitbuilder587/invest-bot/internal/memory/postgres"
)

var testDB *pgmemory.DB

func TestMain(m *testing.M) {
	if os.Getenv("SHORT_TESTS") == "1" {
		os.Exit(0)
	}

	ctx := context.Background()

	pgContainer, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		panic(err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		panic(err)
	}

	testDB, err = pgmemory.New(ctx, connStr)
	if err != nil {
		panic(err)
	}

	_, err = testDB.Pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS analysis_history (
            id BIGSERIAL PRIMARY KEY,
            symbol TEXT NOT NULL,
            run_id TEXT NOT NULL,
            summary TEXT NOT NULL,
            iteration INT NOT NULL DEFAULT 0,
            score DOUBLE PRECISION NOT NULL DEFAULT 0,
            passed BOOLEAN NOT NULL DEFAULT false,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
        CREATE INDEX IF NOT EXISTS idx_analysis_history_symbol ON analysis_history(symbol, created_at);
    `)
	if err != nil {
		panic(err)
	}

	code := m.Run()

	testDB.Close()
	pgContainer.Terminate(ctx)

	os.Exit(code)
}

func TestMemoryStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	store := pgmemory.NewStore(testDB)

	_, err := store.Get(ctx, "UNKNOWN")
	if !errors.Is(err, domain.ErrNoHistory) {
		t.Errorf("Get() error = %v, want ErrNoHistory", err)
	}

	first := domain.MemoryEntry{
		RunID:     "run-1",
		Summary:   "AAPL looks stable, revenue growing",
		Iteration: 1,
		Score:     0.91,
		Passed:    true,
		CreatedAt: time.Now().Add(-time.Hour),
	}
	if err := store.Append(ctx, "AAPL", first); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	second := domain.MemoryEntry{
		RunID:     "run-2",
		Summary:   "AAPL under pressure after guidance cut",
		Iteration: 3,
		Score:     0.78,
		Passed:    false,
		CreatedAt: time.Now(),
	}
	if err := store.Append(ctx, "AAPL", second); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	rec, err := store.Get(ctx, "AAPL")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if rec.Symbol != "AAPL" {
		t.Errorf("rec.Symbol = %v, want AAPL", rec.Symbol)
	}
	if len(rec.History) != 2 {
		t.Fatalf("len(History) = %d, want 2", len(rec.History))
	}
	if rec.History[0].RunID != "run-1" || rec.History[1].RunID != "run-2" {
		t.Errorf("history order = [%s, %s], want [run-1, run-2]",
			rec.History[0].RunID, rec.History[1].RunID)
	}
	if last := rec.Last(); last == nil || last.Score != 0.78 {
		t.Errorf("Last() = %+v, want score 0.78", last)
	}

	if err := store.Append(ctx, "", first); !errors.Is(err, domain.ErrMissingSymbol) {
		t.Errorf("Append() empty symbol error = %v, want ErrMissingSymbol", err)
	}
}

func TestMemoryStore_Isolation_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	store := pgmemory.NewStore(testDB)

	if err := store.Append(ctx, "MSFT", domain.MemoryEntry{
		RunID:   "run-msft",
		Summary: "MSFT cloud segment accelerating",
	}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	rec, err := store.Get(ctx, "MSFT")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	for _, e := range rec.History {
		if e.RunID == "run-1" || e.RunID == "run-2" {
			t.Errorf("MSFT history leaked entry %s from another symbol", e.RunID)
		}
	}
}

func TestMemoryStore_ConcurrentAppends_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	store := pgmemory.NewStore(testDB)

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := store.Append(ctx, "TSLA", domain.MemoryEntry{
				RunID:   fmt.Sprintf("run-tsla-%d", i),
				Summary: "concurrent append",
			})
			if err != nil {
				t.Errorf("Append() error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	rec, err := store.Get(ctx, "TSLA")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(rec.History) != writers {
		t.Errorf("len(History) = %d, want %d", len(rec.History), writers)
	}
}
