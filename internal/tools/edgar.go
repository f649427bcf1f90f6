package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/invest-bot/internal/cache"
)

const EdgarToolName = "sec_filings"

// cikBySymbol - хардкод самых ходовых тикеров, полный справочник
// EDGAR отдает отдельным файлом на ~10к строк
// TODO: подтягивать company_tickers.json при старте
var cikBySymbol = map[string]int{
	"AAPL":  320193,
	"MSFT":  789019,
	"TSLA":  1318605,
	"AMZN":  1018724,
	"GOOGL": 1652044,
	"NVDA":  1045810,
	"META":  1326801,
	"NFLX":  1065280,
	"JPM":   19617,
	"V":     1403161,
}

type EdgarConfig struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// EdgarClient - финансовые показатели из SEC EDGAR companyfacts
type EdgarClient struct {
	baseURL   string
	userAgent string
	client    *http.Client
	cache     cache.Cache
	cacheTTL  time.Duration
	logger    *zap.Logger
}

func NewEdgarClient(cfg EdgarConfig, c cache.Cache, ttl time.Duration, logger *zap.Logger) *EdgarClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://data.sec.gov"
	}
	if cfg.UserAgent == "" {
		// SEC требует контактный UA, иначе 403
		cfg.UserAgent = "invest-bot research@example.com"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &EdgarClient{
		baseURL:   cfg.BaseURL,
		userAgent: cfg.UserAgent,
		client:    &http.Client{Timeout: cfg.Timeout},
		cache:     c,
		cacheTTL:  ttl,
		logger:    logger,
	}
}

func (c *EdgarClient) Name() string     { return EdgarToolName }
func (c *EdgarClient) Idempotent() bool { return true }

type companyFacts struct {
	CIK        int    `json:"cik"`
	EntityName string `json:"entityName"`
	Facts      struct {
		USGAAP map[string]struct {
			Label string `json:"label"`
			Units map[string][]struct {
				End   string  `json:"end"`
				Val   float64 `json:"val"`
				Form  string  `json:"form"`
				Frame string  `json:"frame,omitempty"`
				FY    int     `json:"fy"`
				FP    string  `json:"fp"`
			} `json:"units"`
		} `json:"us-gaap"`
	} `json:"facts"`
}

// метрики, которые вытаскиваем из companyfacts
var edgarConcepts = map[string]string{
	"Revenues":                                            "revenue",
	"RevenueFromContractWithCustomerExcludingAssessedTax": "revenue",
	"NetIncomeLoss":                                       "net_income",
	"EarningsPerShareDiluted":                             "eps_diluted",
	"Assets":                                              "total_assets",
	"Liabilities":                                         "total_liabilities",
	"StockholdersEquity":                                  "stockholders_equity",
	"CashAndCashEquivalentsAtCarryingValue":               "cash",
	"NetCashProvidedByUsedInOperatingActivities":          "operating_cash_flow",
}

func (c *EdgarClient) Call(ctx context.Context, args map[string]any) (map[string]any, error) {
	symbol := strings.ToUpper(stringArg(args, "symbol"))
	if symbol == "" {
		return nil, ErrInvalidRequest
	}
	cik, ok := cikBySymbol[symbol]
	if !ok {
		return nil, ErrUnknownSymbol
	}

	cacheKey := fmt.Sprintf("edgar:%s", symbol)
	if c.cache != nil {
		if cached, ok := c.cache.Get(cacheKey); ok {
			if payload, ok := cached.(map[string]any); ok {
				return payload, nil
			}
		}
	}

	url := fmt.Sprintf("%s/api/xbrl/companyfacts/CIK%010d.json", c.baseURL, cik)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

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
	case http.StatusForbidden:
		return nil, ErrUnauthorized
	case http.StatusTooManyRequests:
		return nil, ErrRateLimit
	case http.StatusNotFound:
		return nil, ErrUnknownSymbol
	default:
		return nil, fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}

	var facts companyFacts
	if err := json.Unmarshal(body, &facts); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if len(facts.Facts.USGAAP) == 0 {
		return nil, ErrEmptyData
	}

	metrics := map[string]any{}
	for concept, key := range edgarConcepts {
		fact, ok := facts.Facts.USGAAP[concept]
		if !ok {
			continue
		}
		if _, seen := metrics[key]; seen {
			continue
		}
		// берем последнее годовое значение из 10-K
		for _, points := range fact.Units {
			var latest *struct {
				End string
				Val float64
				FY  int
			}
			for _, p := range points {
				if p.Form != "10-K" || p.FP != "FY" {
					continue
				}
				if latest == nil || p.FY > latest.FY || (p.FY == latest.FY && p.End > latest.End) {
					latest = &struct {
						End string
						Val float64
						FY  int
					}{End: p.End, Val: p.Val, FY: p.FY}
				}
			}
			if latest != nil {
				metrics[key] = map[string]any{
					"value":       latest.Val,
					"fiscal_year": latest.FY,
					"period_end":  latest.End,
				}
				break
			}
		}
	}
	if len(metrics) == 0 {
		return nil, ErrEmptyData
	}

	payload := map[string]any{
		"symbol":      symbol,
		"cik":         facts.CIK,
		"entity_name": facts.EntityName,
		"metrics":     metrics,
	}

	if c.cache != nil {
		c.cache.Set(cacheKey, payload, c.cacheTTL)
	}

	return payload, nil
}

var _ Tool = (*EdgarClient)(nil)
