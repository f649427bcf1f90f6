package agent

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/invest-bot/internal/domain"
	"github.com/kitbuilder587/invest-bot/internal/tools"
)

// MarketAgent собирает котировки и макрофон. Падение одного из двух
// источников не валит агента: результат помечается partial.
type MarketAgent struct {
	invoker Invoker
	logger  *zap.Logger
}

func NewMarketAgent(inv Invoker, logger *zap.Logger) *MarketAgent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MarketAgent{invoker: inv, logger: logger}
}

func (a *MarketAgent) Name() string              { return "market" }
func (a *MarketAgent) DataType() domain.DataType { return domain.DataMarket }

func (a *MarketAgent) Run(ctx context.Context, req domain.Request) (*domain.AgentResult, error) {
	result := &domain.AgentResult{
		AgentName:  a.Name(),
		Symbol:     req.Symbol,
		Payload:    map[string]any{},
		Status:     domain.ResultOK,
		ProducedAt: time.Now(),
	}

	var failed []string

	quote, calls, err := a.invoker.Invoke(ctx, tools.QuotesToolName, map[string]any{
		"symbol": req.Symbol,
		"range":  "1mo",
	})
	result.ToolCalls = append(result.ToolCalls, calls...)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		a.logger.Warn("quote fetch failed", zap.String("symbol", req.Symbol), zap.Error(err))
		failed = append(failed, tools.QuotesToolName)
	} else {
		result.Payload["quote"] = quote
	}

	macro, calls, err := a.invoker.Invoke(ctx, tools.FredToolName, map[string]any{
		"series_id": "FEDFUNDS",
		"limit":     6,
	})
	result.ToolCalls = append(result.ToolCalls, calls...)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		a.logger.Warn("macro fetch failed", zap.Error(err))
		failed = append(failed, tools.FredToolName)
	} else {
		result.Payload["macro"] = macro
	}

	if len(result.Payload) == 0 {
		return nil, &domain.AgentFailure{
			Agent:  a.Name(),
			Reason: "all_sources_failed",
			Cause:  err,
		}
	}
	if len(failed) > 0 {
		result.Status = domain.ResultPartial
		result.Note = "sources unavailable: " + joinNames(failed)
	}

	return result, nil
}

func joinNames(names []string) string {
	out := names[0]
	for _, n := range names[1:] {
		out += ", " + n
	}
	return out
}

var _ Agent = (*MarketAgent)(nil)
