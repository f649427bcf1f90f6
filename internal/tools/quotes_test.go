package tools

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	memcache "github.com/kitbuilder587/invest-bot/internal/cache/memory"
)

const chartBody = `{
	"chart": {
		"result": [{
			"meta": {
				"symbol": "AAPL",
				"currency": "USD",
				"exchangeName": "NMS",
				"regularMarketPrice": 230.5,
				"previousClose": 228.0
			},
			"indicators": {
				"quote": [{
					"close": [220.0, 0, 225.0, 230.5],
					"volume": [1000, 0, 1200, 1100]
				}]
			}
		}],
		"error": null
	}
}`

func TestQuotesClient_Call(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name       string
		args       map[string]any
		body       string
		statusCode int
		wantErr    error
	}{
		{
			name:       "successful quote",
			args:       map[string]any{"symbol": "AAPL"},
			body:       chartBody,
			statusCode: http.StatusOK,
		},
		{
			name:    "missing symbol",
			args:    map[string]any{},
			wantErr: ErrInvalidRequest,
		},
		{
			name:       "unknown symbol",
			args:       map[string]any{"symbol": "ZZZZ"},
			body:       `{}`,
			statusCode: http.StatusNotFound,
			wantErr:    ErrUnknownSymbol,
		},
		{
			name:       "rate limited",
			args:       map[string]any{"symbol": "AAPL"},
			body:       `{}`,
			statusCode: http.StatusTooManyRequests,
			wantErr:    ErrRateLimit,
		},
		{
			name:       "empty result",
			args:       map[string]any{"symbol": "AAPL"},
			body:       `{"chart": {"result": [], "error": null}}`,
			statusCode: http.StatusOK,
			wantErr:    ErrEmptyData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.statusCode)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewQuotesClient(QuotesConfig{
				BaseURL: server.URL,
				Timeout: 5 * time.Second,
			}, nil, 0, logger)

			payload, err := client.Call(context.Background(), tt.args)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Call() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}

			if err != nil {
				t.Fatalf("Call() unexpected error = %v", err)
			}
			if payload["symbol"] != "AAPL" {
				t.Errorf("symbol = %v, want AAPL", payload["symbol"])
			}
			if payload["price"] != 230.5 {
				t.Errorf("price = %v, want 230.5", payload["price"])
			}
			if _, ok := payload["period_high"]; !ok {
				t.Error("payload missing period_high")
			}
		})
	}
}

func TestQuotesClient_Cache(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(chartBody))
	}))
	defer server.Close()

	c := memcache.New()
	defer c.Stop()

	client := NewQuotesClient(QuotesConfig{BaseURL: server.URL}, c, time.Minute, zap.NewNop())

	for i := 0; i < 3; i++ {
		if _, err := client.Call(context.Background(), map[string]any{"symbol": "AAPL"}); err != nil {
			t.Fatalf("Call() error = %v", err)
		}
	}

	if hits != 1 {
		t.Errorf("upstream hits = %d, want 1", hits)
	}
}
