package inmem

import (
	"context"
	"sync"
	"time"

	"github.com/kitbuilder587/invest-bot/internal/domain"
	"github.com/kitbuilder587/invest-bot/internal/memory"
)

// Store - память в процессе для тестов и работы без БД.
// Записи по одной бумаге сериализуются, читатели получают копию.
type Store struct {
	mu      sync.RWMutex
	records map[string]*domain.MemoryRecord
}

func New() *Store {
	return &Store{records: make(map[string]*domain.MemoryRecord)}
}

func (s *Store) Get(ctx context.Context, symbol string) (*domain.MemoryRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if symbol == "" {
		return nil, domain.ErrMissingSymbol
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[symbol]
	if !ok {
		return nil, domain.ErrNoHistory
	}

	// копия, чтобы вызывающий не мог менять историю задним числом
	out := &domain.MemoryRecord{
		Symbol:      rec.Symbol,
		History:     make([]domain.MemoryEntry, len(rec.History)),
		LastUpdated: rec.LastUpdated,
	}
	copy(out.History, rec.History)
	return out, nil
}

func (s *Store) Append(ctx context.Context, symbol string, entry domain.MemoryEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if symbol == "" {
		return domain.ErrMissingSymbol
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[symbol]
	if !ok {
		rec = &domain.MemoryRecord{Symbol: symbol}
		s.records[symbol] = rec
	}

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	rec.History = append(rec.History, entry)
	rec.LastUpdated = entry.CreatedAt
	return nil
}

var _ memory.Store = (*Store)(nil)
