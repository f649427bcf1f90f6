package agent

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kitbuilder587/invest-bot/internal/domain"
	"github.com/kitbuilder587/invest-bot/internal/tools"
)

func marketRequest() domain.Request {
	return domain.Request{
		RawText:   "price of AAPL",
		Symbol:    "AAPL",
		Intent:    domain.IntentPrice,
		DataTypes: []domain.DataType{domain.DataMarket},
	}
}

func TestMarketAgent_Run(t *testing.T) {
	inv := &fakeInvoker{
		responses: map[string]map[string]any{
			tools.QuotesToolName: {"symbol": "AAPL", "price": 230.5},
			tools.FredToolName:   {"series_id": "FEDFUNDS", "latest": map[string]any{"value": 4.33}},
		},
	}
	a := NewMarketAgent(inv, zap.NewNop())

	res, err := a.Run(context.Background(), marketRequest())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Status != domain.ResultOK {
		t.Errorf("Status = %v, want ok", res.Status)
	}
	if res.Payload["quote"] == nil || res.Payload["macro"] == nil {
		t.Errorf("payload missing sections: %v", res.Payload)
	}
	if len(res.ToolCalls) != 2 {
		t.Errorf("tool calls = %d, want 2", len(res.ToolCalls))
	}
}

func TestMarketAgent_Run_PartialOnMacroFailure(t *testing.T) {
	inv := &fakeInvoker{
		responses: map[string]map[string]any{
			tools.QuotesToolName: {"symbol": "AAPL", "price": 230.5},
		},
		errs: map[string]error{
			tools.FredToolName: &domain.ToolFailure{Tool: tools.FredToolName, Attempts: 5, LastErr: tools.ErrFetchFailed},
		},
	}
	a := NewMarketAgent(inv, zap.NewNop())

	res, err := a.Run(context.Background(), marketRequest())
	if err != nil {
		t.Fatalf("Run() error = %v, partial data must not fail the agent", err)
	}
	if res.Status != domain.ResultPartial {
		t.Errorf("Status = %v, want partial", res.Status)
	}
	if res.Note == "" {
		t.Error("partial result must carry a note")
	}
	if res.Payload["quote"] == nil {
		t.Error("surviving source must stay in payload")
	}
	// журнал содержит и неудачные попытки
	if len(res.ToolCalls) != 2 {
		t.Errorf("tool calls = %d, want 2", len(res.ToolCalls))
	}
}

func TestMarketAgent_Run_AllSourcesFailed(t *testing.T) {
	inv := &fakeInvoker{
		errs: map[string]error{
			tools.QuotesToolName: &domain.ToolFailure{Tool: tools.QuotesToolName, Attempts: 5, LastErr: tools.ErrFetchFailed},
			tools.FredToolName:   &domain.ToolFailure{Tool: tools.FredToolName, Attempts: 5, LastErr: tools.ErrFetchFailed},
		},
	}
	a := NewMarketAgent(inv, zap.NewNop())

	_, err := a.Run(context.Background(), marketRequest())

	var af *domain.AgentFailure
	if !errors.As(err, &af) {
		t.Fatalf("error = %v, want *domain.AgentFailure", err)
	}
	if af.Agent != "market" || af.Reason != "all_sources_failed" {
		t.Errorf("failure = %+v", af)
	}
}

func TestMarketAgent_Run_ContextCancelled(t *testing.T) {
	inv := &fakeInvoker{
		errs: map[string]error{
			tools.QuotesToolName: context.Canceled,
			tools.FredToolName:   context.Canceled,
		},
	}
	a := NewMarketAgent(inv, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Run(ctx, marketRequest())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
