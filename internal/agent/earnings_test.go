package agent

import (
	"context"
	"errors"
	"math"
	"testing"

	"go.uber.org/zap"

	"github.com/kitbuilder587/invest-bot/internal/domain"
	"github.com/kitbuilder587/invest-bot/internal/tools"
)

func TestEarningsAgent_Run(t *testing.T) {
	inv := &fakeInvoker{
		responses: map[string]map[string]any{
			tools.EdgarToolName: {
				"symbol":      "AAPL",
				"entity_name": "Apple Inc.",
				"metrics": map[string]any{
					"net_income":          map[string]any{"value": 100.0, "fiscal_year": 2025},
					"revenue":             map[string]any{"value": 400.0, "fiscal_year": 2025},
					"stockholders_equity": map[string]any{"value": 80.0, "fiscal_year": 2025},
					"total_liabilities":   map[string]any{"value": 240.0, "fiscal_year": 2025},
					"total_assets":        map[string]any{"value": 320.0, "fiscal_year": 2025},
				},
			},
		},
	}
	a := NewEarningsAgent(inv, zap.NewNop())

	res, err := a.Run(context.Background(), domain.Request{Symbol: "AAPL", Intent: domain.IntentEarnings})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Status != domain.ResultOK {
		t.Errorf("Status = %v, want ok", res.Status)
	}

	ratios, ok := res.Payload["ratios"].(map[string]any)
	if !ok {
		t.Fatal("payload missing ratios")
	}

	wantRatios := map[string]float64{
		"net_margin_pct": 25,
		"roe_pct":        125,
		"debt_to_equity": 3,
		"roa_pct":        31.25,
	}
	for key, want := range wantRatios {
		got, ok := ratios[key].(float64)
		if !ok {
			t.Errorf("ratio %s missing", key)
			continue
		}
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("%s = %v, want %v", key, got, want)
		}
	}
}

func TestEarningsAgent_Run_PartialWithoutMetrics(t *testing.T) {
	inv := &fakeInvoker{
		responses: map[string]map[string]any{
			tools.EdgarToolName: {
				"symbol":      "AAPL",
				"entity_name": "Apple Inc.",
				"metrics":     map[string]any{},
			},
		},
	}
	a := NewEarningsAgent(inv, zap.NewNop())

	res, err := a.Run(context.Background(), domain.Request{Symbol: "AAPL", Intent: domain.IntentEarnings})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Status != domain.ResultPartial {
		t.Errorf("Status = %v, want partial", res.Status)
	}
	if res.Payload["filings"] == nil {
		t.Error("raw filings must survive even without ratios")
	}
}

func TestEarningsAgent_Run_SourceFailed(t *testing.T) {
	inv := &fakeInvoker{
		errs: map[string]error{
			tools.EdgarToolName: &domain.ToolFailure{Tool: tools.EdgarToolName, Attempts: 5, LastErr: tools.ErrUnknownSymbol},
		},
	}
	a := NewEarningsAgent(inv, zap.NewNop())

	_, err := a.Run(context.Background(), domain.Request{Symbol: "ZZZZ", Intent: domain.IntentEarnings})

	var af *domain.AgentFailure
	if !errors.As(err, &af) {
		t.Fatalf("error = %v, want *domain.AgentFailure", err)
	}
	if af.Agent != "earnings" || af.Reason != "all_sources_failed" {
		t.Errorf("failure = %+v", af)
	}
}
