package agent

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/invest-bot/internal/domain"
	"github.com/kitbuilder587/invest-bot/internal/tools"
)

// EarningsAgent вытаскивает отчетность из EDGAR и считает базовые коэффициенты
type EarningsAgent struct {
	invoker Invoker
	logger  *zap.Logger
}

func NewEarningsAgent(inv Invoker, logger *zap.Logger) *EarningsAgent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EarningsAgent{invoker: inv, logger: logger}
}

func (a *EarningsAgent) Name() string              { return "earnings" }
func (a *EarningsAgent) DataType() domain.DataType { return domain.DataEarnings }

func (a *EarningsAgent) Run(ctx context.Context, req domain.Request) (*domain.AgentResult, error) {
	payload, calls, err := a.invoker.Invoke(ctx, tools.EdgarToolName, map[string]any{
		"symbol": req.Symbol,
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

	result := &domain.AgentResult{
		AgentName:  a.Name(),
		Symbol:     req.Symbol,
		Payload:    map[string]any{"filings": payload},
		Status:     domain.ResultOK,
		ProducedAt: time.Now(),
		ToolCalls:  calls,
	}

	metrics, _ := payload["metrics"].(map[string]any)
	ratios := computeRatios(metrics)
	if len(ratios) > 0 {
		result.Payload["ratios"] = ratios
	} else {
		result.Status = domain.ResultPartial
		result.Note = "not enough metrics to compute ratios"
	}

	return result, nil
}

func metricValue(metrics map[string]any, key string) (float64, bool) {
	m, ok := metrics[key].(map[string]any)
	if !ok {
		return 0, false
	}
	v, ok := m["value"].(float64)
	return v, ok
}

// computeRatios - маржа, ROE, долговая нагрузка из годовых показателей
func computeRatios(metrics map[string]any) map[string]any {
	ratios := map[string]any{}

	netIncome, hasNI := metricValue(metrics, "net_income")
	revenue, hasRev := metricValue(metrics, "revenue")
	equity, hasEq := metricValue(metrics, "stockholders_equity")
	assets, hasAssets := metricValue(metrics, "total_assets")
	liabilities, hasLiab := metricValue(metrics, "total_liabilities")

	if hasNI && hasRev && revenue != 0 {
		ratios["net_margin_pct"] = netIncome / revenue * 100
	}
	if hasNI && hasEq && equity != 0 {
		ratios["roe_pct"] = netIncome / equity * 100
	}
	if hasLiab && hasEq && equity != 0 {
		ratios["debt_to_equity"] = liabilities / equity
	}
	if hasNI && hasAssets && assets != 0 {
		ratios["roa_pct"] = netIncome / assets * 100
	}

	return ratios
}

var _ Agent = (*EarningsAgent)(nil)
