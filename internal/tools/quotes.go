package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/invest-bot/internal/cache"
)

const QuotesToolName = "market_quote"

type QuotesConfig struct {
	BaseURL string
	Timeout time.Duration
}

// QuotesClient - котировки через chart API (Yahoo-совместимый)
type QuotesClient struct {
	baseURL  string
	client   *http.Client
	cache    cache.Cache
	cacheTTL time.Duration
	logger   *zap.Logger
}

func NewQuotesClient(cfg QuotesConfig, c cache.Cache, ttl time.Duration, logger *zap.Logger) *QuotesClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://query1.finance.yahoo.com"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &QuotesClient{
		baseURL:  cfg.BaseURL,
		client:   &http.Client{Timeout: cfg.Timeout},
		cache:    c,
		cacheTTL: ttl,
		logger:   logger,
	}
}

func (c *QuotesClient) Name() string     { return QuotesToolName }
func (c *QuotesClient) Idempotent() bool { return true }

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				Currency           string  `json:"currency"`
				ExchangeName       string  `json:"exchangeName"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				PreviousClose      float64 `json:"previousClose"`
			} `json:"meta"`
			Indicators struct {
				Quote []struct {
					Close  []float64 `json:"close"`
					Volume []float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (c *QuotesClient) Call(ctx context.Context, args map[string]any) (map[string]any, error) {
	symbol := stringArg(args, "symbol")
	if symbol == "" {
		return nil, ErrInvalidRequest
	}
	dataRange := stringArg(args, "range")
	if dataRange == "" {
		dataRange = "1mo"
	}

	cacheKey := fmt.Sprintf("quote:%s:%s", symbol, dataRange)
	if c.cache != nil {
		if cached, ok := c.cache.Get(cacheKey); ok {
			if payload, ok := cached.(map[string]any); ok {
				return payload, nil
			}
		}
	}

	url := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=1d", c.baseURL, symbol, dataRange)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (invest-bot)")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrUnauthorized
	case http.StatusTooManyRequests:
		return nil, ErrRateLimit
	case http.StatusNotFound:
		return nil, ErrUnknownSymbol
	default:
		return nil, fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}

	var chart chartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("%w: %s", ErrFetchFailed, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, ErrEmptyData
	}

	result := chart.Chart.Result[0]
	payload := map[string]any{
		"symbol":         result.Meta.Symbol,
		"currency":       result.Meta.Currency,
		"exchange":       result.Meta.ExchangeName,
		"price":          result.Meta.RegularMarketPrice,
		"previous_close": result.Meta.PreviousClose,
		"range":          dataRange,
	}

	if result.Meta.PreviousClose > 0 {
		payload["change_pct"] = (result.Meta.RegularMarketPrice - result.Meta.PreviousClose) / result.Meta.PreviousClose * 100
	}

	if len(result.Indicators.Quote) > 0 {
		closes := compact(result.Indicators.Quote[0].Close)
		if len(closes) > 0 {
			payload["period_high"] = maxOf(closes)
			payload["period_low"] = minOf(closes)
			payload["period_return_pct"] = (closes[len(closes)-1] - closes[0]) / closes[0] * 100
			payload["sessions"] = len(closes)
		}
	}

	if c.cache != nil {
		c.cache.Set(cacheKey, payload, c.cacheTTL)
	}

	return payload, nil
}

// compact убирает нулевые точки (биржа отдает null за выходные)
func compact(vals []float64) []float64 {
	out := vals[:0:0]
	for _, v := range vals {
		if v != 0 {
			out = append(out, v)
		}
	}
	return out
}

func maxOf(vals []float64) float64 {
	m := vals[0]
	for _, v := range vals[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func minOf(vals []float64) float64 {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

var _ Tool = (*QuotesClient)(nil)
