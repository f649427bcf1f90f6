package router

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/invest-bot/internal/agent"
	"github.com/kitbuilder587/invest-bot/internal/domain"
	"github.com/kitbuilder587/invest-bot/internal/metrics"
)

// Router раздает запрос специалистам по статической карте
// intent -> типы данных. Все агенты добегают до конца: отказ одного
// не отменяет остальных.
type Router struct {
	byType  map[domain.DataType]agent.Agent
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func New(agents []agent.Agent, m *metrics.Metrics, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}

	byType := make(map[domain.DataType]agent.Agent, len(agents))
	for _, a := range agents {
		byType[a.DataType()] = a
	}

	return &Router{byType: byType, metrics: m, logger: logger}
}

// Dispatch запускает агентов для всех типов данных запроса параллельно.
// Возвращает успешные результаты в порядке DataTypes; ошибка только
// когда не выжил ни один агент.
func (r *Router) Dispatch(ctx context.Context, req domain.Request) ([]domain.AgentResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	selected := make([]agent.Agent, 0, len(req.DataTypes))
	for _, dt := range req.DataTypes {
		a, ok := r.byType[dt]
		if !ok {
			return nil, fmt.Errorf("%w: no agent for data type %s", domain.ErrInvalidDataType, dt)
		}
		selected = append(selected, a)
	}
	if len(selected) == 0 {
		return nil, domain.ErrInvalidDataType
	}

	type slot struct {
		res *domain.AgentResult
		err error
	}
	slots := make([]slot, len(selected))

	var wg sync.WaitGroup
	for i, a := range selected {
		wg.Add(1)
		go func(i int, a agent.Agent) {
			defer wg.Done()

			start := time.Now()
			res, err := a.Run(ctx, req)
			elapsed := time.Since(start)
			if err != nil {
				r.logger.Warn("agent failed",
					zap.String("agent", a.Name()),
					zap.String("symbol", req.Symbol),
					zap.Error(err))
				if r.metrics != nil {
					r.metrics.RecordAgentRun(a.Name(), "failed", elapsed)
				}
				slots[i] = slot{err: err}
				return
			}

			if r.metrics != nil {
				r.metrics.RecordAgentRun(a.Name(), string(res.Status), elapsed)
			}
			slots[i] = slot{res: res}
		}(i, a)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var results []domain.AgentResult
	var causes []error
	for _, s := range slots {
		if s.err != nil {
			causes = append(causes, s.err)
			continue
		}
		results = append(results, *s.res)
	}

	if len(results) == 0 {
		return nil, &domain.RoutingFailure{Intent: req.Intent, Causes: causes}
	}

	return results, nil
}
