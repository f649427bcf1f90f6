package agent

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/invest-bot/internal/domain"
	"github.com/kitbuilder587/invest-bot/internal/pipeline"
	"github.com/kitbuilder587/invest-bot/internal/tools"
)

// NewsAgent ищет свежие публикации и гонит их через новостную цепочку:
// чистка, сантимент, сущности, сводка
type NewsAgent struct {
	invoker Invoker
	chain   *pipeline.Pipeline
	logger  *zap.Logger
}

func NewNewsAgent(inv Invoker, logger *zap.Logger) *NewsAgent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NewsAgent{
		invoker: inv,
		chain:   pipeline.NewNewsPipeline(nil, logger),
		logger:  logger,
	}
}

func (a *NewsAgent) Name() string              { return "news" }
func (a *NewsAgent) DataType() domain.DataType { return domain.DataNews }

func (a *NewsAgent) Run(ctx context.Context, req domain.Request) (*domain.AgentResult, error) {
	query := req.Symbol
	if query == "" {
		query = req.ActionItem
	}

	payload, calls, err := a.invoker.Invoke(ctx, tools.NewsToolName, map[string]any{
		"query": query,
		"limit": 10,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &domain.AgentFailure{
			Agent:  a.Name(),
			Reason: "all_sources_failed",
			Cause:  err,
		}
	}

	articles, _ := payload["articles"].([]map[string]any)
	out, err := a.chain.Run(ctx, articles)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &domain.AgentFailure{
			Agent:  a.Name(),
			Reason: "enrichment_failed",
			Cause:  err,
		}
	}
	digest := out.(pipeline.NewsDigest)

	result := &domain.AgentResult{
		AgentName:  a.Name(),
		Symbol:     req.Symbol,
		Payload:    map[string]any{"articles": digest.Articles},
		Status:     domain.ResultOK,
		ProducedAt: time.Now(),
		ToolCalls:  calls,
	}

	if digest.Sentiment != nil {
		result.Payload["sentiment"] = digest.Sentiment
	} else {
		result.Status = domain.ResultPartial
		result.Note = "no articles matched the query"
	}

	return result, nil
}

var _ Agent = (*NewsAgent)(nil)
