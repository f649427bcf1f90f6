package agent

import (
	"context"

	"github.com/kitbuilder587/invest-bot/internal/domain"
)

// Agent - специалист по одному типу данных. Run ходит во внешние
// источники через Invoker и собирает результат с журналом попыток.
type Agent interface {
	Name() string
	DataType() domain.DataType
	Run(ctx context.Context, req domain.Request) (*domain.AgentResult, error)
}

// Preprocessor разбирает сырой запрос пользователя в структурированный
type Preprocessor interface {
	Run(ctx context.Context, raw string) (*domain.Request, error)
}

// Invoker - вызов инструментов с ретраями, см. internal/invoker
type Invoker interface {
	Invoke(ctx context.Context, name string, args map[string]any) (map[string]any, []domain.ToolCall, error)
}
