package invoker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/invest-bot/internal/domain"
	"github.com/kitbuilder587/invest-bot/internal/metrics"
	"github.com/kitbuilder587/invest-bot/internal/ratelimit"
	"github.com/kitbuilder587/invest-bot/internal/tools"
)

type Config struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// Invoker вызывает инструменты с ретраями и экспоненциальной паузой.
// Каждая попытка фиксируется в журнале ToolCall независимо от исхода.
type Invoker struct {
	registry    map[string]tools.Tool
	maxAttempts int
	baseDelay   time.Duration
	limiter     *ratelimit.Limiter
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

func New(cfg Config, limiter *ratelimit.Limiter, m *metrics.Metrics, logger *zap.Logger) *Invoker {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Invoker{
		registry:    make(map[string]tools.Tool),
		maxAttempts: cfg.MaxAttempts,
		baseDelay:   cfg.BaseDelay,
		limiter:     limiter,
		metrics:     m,
		logger:      logger,
	}
}

func (i *Invoker) Register(t tools.Tool) {
	i.registry[t.Name()] = t
}

func (i *Invoker) Tools() []string {
	names := make([]string, 0, len(i.registry))
	for name := range i.registry {
		names = append(names, name)
	}
	return names
}

// Invoke выполняет инструмент с ретраями. Возвращает полезную нагрузку
// и журнал всех попыток; журнал заполнен и при ошибке.
func (i *Invoker) Invoke(ctx context.Context, name string, args map[string]any) (map[string]any, []domain.ToolCall, error) {
	tool, ok := i.registry[name]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", domain.ErrUnknownTool, name)
	}

	if i.limiter != nil && !i.limiter.Allow("tool:"+name) {
		if i.metrics != nil {
			i.metrics.RecordRateLimitHit("tool:" + name)
		}
		return nil, nil, fmt.Errorf("%w: %s", domain.ErrToolRateLimit, name)
	}

	attempts := i.maxAttempts
	if !tool.Idempotent() {
		// повторный вызов неидемпотентного инструмента может задублировать эффект
		attempts = 1
	}

	trail := make([]domain.ToolCall, 0, attempts)
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := i.baseDelay * (1 << (attempt - 1))
			i.logger.Debug("retrying tool",
				zap.String("tool", name),
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay))

			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, trail, ctx.Err()
			case <-timer.C:
			}
		}

		call := domain.ToolCall{
			Tool:      name,
			Args:      args,
			Attempt:   attempt + 1,
			Status:    domain.ToolCallPending,
			StartedAt: time.Now(),
		}

		payload, err := tool.Call(ctx, args)
		call.Duration = time.Since(call.StartedAt)

		if err == nil {
			call.Status = domain.ToolCallOK
			trail = append(trail, call)
			if i.metrics != nil {
				i.metrics.RecordToolAttempt(name, "ok", call.Duration)
			}
			return payload, trail, nil
		}

		call.Status = domain.ToolCallFailed
		call.Err = err.Error()
		trail = append(trail, call)
		lastErr = err

		if i.metrics != nil {
			i.metrics.RecordToolAttempt(name, "failed", call.Duration)
		}
		i.logger.Warn("tool call failed",
			zap.String("tool", name),
			zap.Int("attempt", attempt+1),
			zap.Error(err))

		// на отмене контекста и заведомо невосстановимых ошибках не ретраим
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, trail, err
		}
		if errors.Is(err, tools.ErrInvalidRequest) || errors.Is(err, tools.ErrUnknownSymbol) || errors.Is(err, tools.ErrUnauthorized) {
			break
		}
	}

	return nil, trail, &domain.ToolFailure{
		Tool:     name,
		Attempts: len(trail),
		LastErr:  lastErr,
	}
}
