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

const NewsToolName = "news_search"

type NewsConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// NewsClient - поиск новостей через NewsAPI
type NewsClient struct {
	apiKey   string
	baseURL  string
	client   *http.Client
	cache    cache.Cache
	cacheTTL time.Duration
	logger   *zap.Logger
}

func NewNewsClient(cfg NewsConfig, c cache.Cache, ttl time.Duration, logger *zap.Logger) *NewsClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://newsapi.org/v2"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &NewsClient{
		apiKey:   cfg.APIKey,
		baseURL:  cfg.BaseURL,
		client:   &http.Client{Timeout: cfg.Timeout},
		cache:    c,
		cacheTTL: ttl,
		logger:   logger,
	}
}

func (c *NewsClient) Name() string     { return NewsToolName }
func (c *NewsClient) Idempotent() bool { return true }

type newsResponse struct {
	Status       string `json:"status"`
	Code         string `json:"code"`
	Message      string `json:"message"`
	TotalResults int    `json:"totalResults"`
	Articles     []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

func (c *NewsClient) Call(ctx context.Context, args map[string]any) (map[string]any, error) {
	if c.apiKey == "" {
		return nil, ErrUnauthorized
	}
	query := stringArg(args, "query")
	if query == "" {
		query = stringArg(args, "symbol")
	}
	if query == "" {
		return nil, ErrInvalidRequest
	}
	limit := intArg(args, "limit", 10)
	if limit > 50 {
		limit = 50
	}

	cacheKey := fmt.Sprintf("news:%s:%d", query, limit)
	if c.cache != nil {
		if cached, ok := c.cache.Get(cacheKey); ok {
			if payload, ok := cached.(map[string]any); ok {
				return payload, nil
			}
		}
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("pageSize", strconv.Itoa(limit))
	params.Set("sortBy", "publishedAt")
	params.Set("language", "en")

	reqURL := fmt.Sprintf("%s/everything?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)

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
	case http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case http.StatusTooManyRequests:
		return nil, ErrRateLimit
	case http.StatusBadRequest:
		return nil, ErrInvalidRequest
	default:
		return nil, fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}

	var news newsResponse
	if err := json.Unmarshal(body, &news); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if news.Status != "ok" {
		return nil, fmt.Errorf("%w: %s", ErrFetchFailed, news.Message)
	}
	if len(news.Articles) == 0 {
		return nil, ErrEmptyData
	}

	articles := make([]map[string]any, 0, len(news.Articles))
	for _, a := range news.Articles {
		articles = append(articles, map[string]any{
			"title":        a.Title,
			"description":  a.Description,
			"source":       a.Source.Name,
			"url":          a.URL,
			"published_at": a.PublishedAt,
		})
	}

	payload := map[string]any{
		"query":         query,
		"total_results": news.TotalResults,
		"articles":      articles,
	}

	if c.cache != nil {
		c.cache.Set(cacheKey, payload, c.cacheTTL)
	}

	return payload, nil
}

var _ Tool = (*NewsClient)(nil)
