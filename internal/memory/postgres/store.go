package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/kitbuilder587/invest-bot/internal/domain"
	"github.com/kitbuilder587/invest-bot/internal/memory"
)

// Store хранит историю исследований в analysis_history, только INSERT.
// Advisory lock по тикеру сериализует конкурентные дозаписи.
type Store struct {
	db *DB
}

func NewStore(db *DB) *Store {
	return &Store{db: db}
}

func (s *Store) Get(ctx context.Context, symbol string) (*domain.MemoryRecord, error) {
	if symbol == "" {
		return nil, domain.ErrMissingSymbol
	}

	query := `
		SELECT run_id, summary, iteration, score, passed, created_at
		FROM analysis_history
		WHERE symbol = $1
		ORDER BY created_at, id
	`

	rows, err := s.db.Pool.Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	defer rows.Close()

	rec := &domain.MemoryRecord{Symbol: symbol}
	for rows.Next() {
		var e domain.MemoryEntry
		if err := rows.Scan(&e.RunID, &e.Summary, &e.Iteration, &e.Score, &e.Passed, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		rec.History = append(rec.History, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}

	if len(rec.History) == 0 {
		return nil, domain.ErrNoHistory
	}
	rec.LastUpdated = rec.History[len(rec.History)-1].CreatedAt
	return rec, nil
}

func (s *Store) Append(ctx context.Context, symbol string, entry domain.MemoryEntry) error {
	if symbol == "" {
		return domain.ErrMissingSymbol
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, symbol); err != nil {
		return fmt.Errorf("lock symbol: %w", err)
	}

	query := `
		INSERT INTO analysis_history (symbol, run_id, summary, iteration, score, passed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := tx.Exec(ctx, query,
		symbol,
		entry.RunID,
		entry.Summary,
		entry.Iteration,
		entry.Score,
		entry.Passed,
		entry.CreatedAt,
	); err != nil {
		return fmt.Errorf("append history: %w", err)
	}

	return tx.Commit(ctx)
}

var _ memory.Store = (*Store)(nil)
