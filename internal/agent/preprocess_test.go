package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kitbuilder587/invest-bot/internal/domain"
)

func TestPreprocess_Run(t *testing.T) {
	p := NewPreprocess(zap.NewNop())

	tests := []struct {
		name       string
		raw        string
		wantSymbol string
		wantIntent domain.Intent
		wantErr    error
	}{
		{
			name:       "price by ticker",
			raw:        "what is the price of AAPL?",
			wantSymbol: "AAPL",
			wantIntent: domain.IntentPrice,
		},
		{
			name:       "company alias",
			raw:        "latest news about tesla",
			wantSymbol: "TSLA",
			wantIntent: domain.IntentNews,
		},
		{
			name:       "dollar prefixed ticker",
			raw:        "show me the chart for $NVDA",
			wantSymbol: "NVDA",
			wantIntent: domain.IntentPrice,
		},
		{
			name:       "earnings request",
			raw:        "MSFT revenue and earnings last fiscal year",
			wantSymbol: "MSFT",
			wantIntent: domain.IntentEarnings,
		},
		{
			name:       "full analysis",
			raw:        "analyze AMZN for me, should I buy?",
			wantSymbol: "AMZN",
			wantIntent: domain.IntentFullAnalysis,
		},
		{
			name:       "memory query",
			raw:        "what did you say about AAPL last time?",
			wantSymbol: "AAPL",
			wantIntent: domain.IntentMemoryQuery,
		},
		{
			name:       "ticker without intent defaults to full analysis",
			raw:        "GOOGL",
			wantSymbol: "GOOGL",
			wantIntent: domain.IntentFullAnalysis,
		},
		{
			name:    "empty input",
			raw:     "   ",
			wantErr: domain.ErrEmptyInput,
		},
		{
			name:    "too long input",
			raw:     strings.Repeat("x", domain.MaxInputLength+1),
			wantErr: domain.ErrInputTooLong,
		},
		{
			name:    "no ticker no intent",
			raw:     "hello there",
			wantErr: domain.ErrUnresolvableIntent,
		},
		{
			name:    "intent without ticker",
			raw:     "give me the stock price",
			wantErr: domain.ErrMissingSymbol,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := p.Run(context.Background(), tt.raw)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Run() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}

			if err != nil {
				t.Fatalf("Run() unexpected error = %v", err)
			}
			if req.Symbol != tt.wantSymbol {
				t.Errorf("Symbol = %q, want %q", req.Symbol, tt.wantSymbol)
			}
			if req.Intent != tt.wantIntent {
				t.Errorf("Intent = %q, want %q", req.Intent, tt.wantIntent)
			}
			if req.Confidence <= 0 || req.Confidence > 1 {
				t.Errorf("Confidence = %v, want (0, 1]", req.Confidence)
			}
			if len(req.DataTypes) == 0 && req.Intent != domain.IntentMemoryQuery {
				t.Error("DataTypes must not be empty")
			}
		})
	}
}

func TestPreprocess_Run_StopwordsNotTickers(t *testing.T) {
	p := NewPreprocess(zap.NewNop())

	req, err := p.Run(context.Background(), "NEWS about the CEO of apple")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if req.Symbol != "AAPL" {
		t.Errorf("Symbol = %q, want AAPL (NEWS and CEO are not tickers)", req.Symbol)
	}
}

func TestPreprocess_Run_AgentFailureType(t *testing.T) {
	p := NewPreprocess(zap.NewNop())

	_, err := p.Run(context.Background(), "hello there")

	var af *domain.AgentFailure
	if !errors.As(err, &af) {
		t.Fatalf("error = %v, want *domain.AgentFailure", err)
	}
	if af.Agent != "preprocess" || af.Reason != "unresolvable_intent" {
		t.Errorf("failure = %+v", af)
	}
}
