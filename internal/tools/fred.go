package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/invest-bot/internal/cache"
)

const FredToolName = "economic_series"

type FredConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// FredClient - макроэкономические ряды из FRED (ставка, инфляция и т.д.)
type FredClient struct {
	apiKey   string
	baseURL  string
	client   *http.Client
	cache    cache.Cache
	cacheTTL time.Duration
	logger   *zap.Logger
}

func NewFredClient(cfg FredConfig, c cache.Cache, ttl time.Duration, logger *zap.Logger) *FredClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.stlouisfed.org/fred"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &FredClient{
		apiKey:   cfg.APIKey,
		baseURL:  cfg.BaseURL,
		client:   &http.Client{Timeout: cfg.Timeout},
		cache:    c,
		cacheTTL: ttl,
		logger:   logger,
	}
}

func (c *FredClient) Name() string     { return FredToolName }
func (c *FredClient) Idempotent() bool { return true }

type fredResponse struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
	ErrorMessage string `json:"error_message"`
}

func (c *FredClient) Call(ctx context.Context, args map[string]any) (map[string]any, error) {
	if c.apiKey == "" {
		return nil, ErrUnauthorized
	}
	seriesID := stringArg(args, "series_id")
	if seriesID == "" {
		seriesID = "FEDFUNDS"
	}
	limit := intArg(args, "limit", 12)

	cacheKey := fmt.Sprintf("fred:%s:%d", seriesID, limit)
	if c.cache != nil {
		if cached, ok := c.cache.Get(cacheKey); ok {
			if payload, ok := cached.(map[string]any); ok {
				return payload, nil
			}
		}
	}

	params := url.Values{}
	params.Set("series_id", seriesID)
	params.Set("api_key", c.apiKey)
	params.Set("file_type", "json")
	params.Set("sort_order", "desc")
	params.Set("limit", strconv.Itoa(limit))

	reqURL := fmt.Sprintf("%s/series/observations?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

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
	case http.StatusBadRequest:
		return nil, ErrInvalidRequest
	case http.StatusForbidden:
		return nil, ErrUnauthorized
	case http.StatusTooManyRequests:
		return nil, ErrRateLimit
	default:
		return nil, fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}

	var series fredResponse
	if err := json.Unmarshal(body, &series); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if series.ErrorMessage != "" {
		return nil, fmt.Errorf("%w: %s", ErrFetchFailed, series.ErrorMessage)
	}
	if len(series.Observations) == 0 {
		return nil, ErrEmptyData
	}

	points := make([]map[string]any, 0, len(series.Observations))
	for _, o := range series.Observations {
		// пропуски FRED кодирует точкой
		if o.Value == "." {
			continue
		}
		v, err := strconv.ParseFloat(o.Value, 64)
		if err != nil {
			continue
		}
		points = append(points, map[string]any{
			"date":  o.Date,
			"value": v,
		})
	}
	if len(points) == 0 {
		return nil, ErrEmptyData
	}

	payload := map[string]any{
		"series_id":    seriesID,
		"latest":       points[0],
		"observations": points,
	}

	if c.cache != nil {
		c.cache.Set(cacheKey, payload, c.cacheTTL)
	}

	return payload, nil
}

var _ Tool = (*FredClient)(nil)
