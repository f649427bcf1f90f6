package memory

import (
	"context"

	"github.com/kitbuilder587/invest-bot/internal/domain"
)

// Store - история исследований по бумаге, только добавление.
// Get возвращает domain.ErrNoHistory для незнакомого тикера.
type Store interface {
	Get(ctx context.Context, symbol string) (*domain.MemoryRecord, error)
	Append(ctx context.Context, symbol string, entry domain.MemoryEntry) error
}
