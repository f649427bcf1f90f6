package agent

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/kitbuilder587/invest-bot/internal/domain"
)

// tickerAliases - названия компаний, которые пользователи пишут вместо тикера
var tickerAliases = map[string]string{
	"apple":     "AAPL",
	"microsoft": "MSFT",
	"tesla":     "TSLA",
	"amazon":    "AMZN",
	"google":    "GOOGL",
	"alphabet":  "GOOGL",
	"nvidia":    "NVDA",
	"meta":      "META",
	"facebook":  "META",
	"netflix":   "NFLX",
}

// капсом пишут не только тикеры
var tickerStopwords = map[string]bool{
	"A": true, "I": true, "OK": true, "CEO": true, "CFO": true,
	"IPO": true, "ETF": true, "USA": true, "USD": true, "NEWS": true,
	"BUY": true, "SELL": true, "HOLD": true, "Q": true, "FY": true,
	"SEC": true, "FED": true, "GDP": true, "AI": true, "PE": true,
}

var tickerRe = regexp.MustCompile(`\$?\b([A-Z]{1,5})\b`)

type intentPattern struct {
	intent   domain.Intent
	keywords []string
}

// порядок важен: memory и earnings проверяются раньше общих слов
var intentPatterns = []intentPattern{
	{domain.IntentMemoryQuery, []string{"remember", "last time", "previous", "history", "before", "earlier", "past analysis"}},
	{domain.IntentEarnings, []string{"earnings", "revenue", "profit", "income", "eps", "10-k", "filing", "balance sheet", "fundamentals", "financials"}},
	{domain.IntentNews, []string{"news", "headline", "article", "press", "announcement", "sentiment", "media"}},
	{domain.IntentPrice, []string{"price", "quote", "chart", "stock price", "trading", "worth", "cost", "how much"}},
	{domain.IntentFullAnalysis, []string{"analyze", "analysis", "research", "report", "overview", "full", "deep dive", "should i buy", "invest"}},
}

// Preprocess разбирает сырой текст: тикер, намерение, типы данных.
// Детерминированный разбор по ключевым словам, без LLM - дешевле и
// предсказуемее для короткого словаря намерений.
type Preprocess struct {
	logger *zap.Logger
}

func NewPreprocess(logger *zap.Logger) *Preprocess {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Preprocess{logger: logger}
}

func (p *Preprocess) Run(ctx context.Context, raw string) (*domain.Request, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, domain.ErrEmptyInput
	}
	if len(text) > domain.MaxInputLength {
		return nil, domain.ErrInputTooLong
	}

	symbol := extractSymbol(text)
	intent, confidence := classifyIntent(text)

	if intent == "" {
		if symbol == "" {
			return nil, &domain.AgentFailure{
				Agent:  "preprocess",
				Reason: "unresolvable_intent",
				Cause:  domain.ErrUnresolvableIntent,
			}
		}
		// тикер без явного намерения - полный разбор
		intent = domain.IntentFullAnalysis
		confidence = 0.5
	}

	req := &domain.Request{
		RawText:    raw,
		Symbol:     symbol,
		ActionItem: fmt.Sprintf("%s for %s", intent, symbolOrQuery(symbol, text)),
		Intent:     intent,
		DataTypes:  domain.DataTypesFor(intent),
		Confidence: confidence,
	}

	if err := req.Validate(); err != nil {
		return nil, &domain.AgentFailure{Agent: "preprocess", Reason: "invalid_request", Cause: err}
	}

	p.logger.Debug("preprocessed request",
		zap.String("symbol", req.Symbol),
		zap.String("intent", req.Intent.String()),
		zap.Float64("confidence", req.Confidence))

	return req, nil
}

func extractSymbol(text string) string {
	lower := strings.ToLower(text)
	for alias, ticker := range tickerAliases {
		if strings.Contains(lower, alias) {
			return ticker
		}
	}

	for _, m := range tickerRe.FindAllStringSubmatch(text, -1) {
		candidate := m[1]
		if tickerStopwords[candidate] {
			continue
		}
		// одиночная заглавная буква почти всегда не тикер
		if len(candidate) < 2 && !strings.Contains(text, "$"+candidate) {
			continue
		}
		return candidate
	}
	return ""
}

func classifyIntent(text string) (domain.Intent, float64) {
	lower := strings.ToLower(text)

	var best domain.Intent
	bestMatches := 0
	bestTotal := 1

	for _, p := range intentPatterns {
		matches := 0
		for _, kw := range p.keywords {
			if strings.Contains(lower, kw) {
				matches++
			}
		}
		if matches > bestMatches {
			best = p.intent
			bestMatches = matches
			bestTotal = len(p.keywords)
		}
	}

	if bestMatches == 0 {
		return "", 0
	}

	conf := float64(bestMatches) / float64(bestTotal)
	if conf < 0.5 {
		conf = 0.5
	}
	return best, conf
}

func symbolOrQuery(symbol, text string) string {
	if symbol != "" {
		return symbol
	}
	if len(text) > 60 {
		return text[:60]
	}
	return text
}

var _ Preprocessor = (*Preprocess)(nil)
