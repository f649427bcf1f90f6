package tools

import (
	"context"
	"errors"
)

var (
	ErrUnauthorized   = errors.New("invalid API key")
	ErrRateLimit      = errors.New("rate limit exceeded")
	ErrInvalidRequest = errors.New("invalid request parameters")
	ErrFetchFailed    = errors.New("fetch failed")
	ErrEmptyData      = errors.New("no data returned")
	ErrUnknownSymbol  = errors.New("unknown symbol")
)

// Tool - единый контракт внешнего вызова (данные или инференс).
// Неидемпотентные тулы объявляют это явно, чтобы Invoker отключил ретраи.
type Tool interface {
	Name() string
	Idempotent() bool
	Call(ctx context.Context, args map[string]any) (map[string]any, error)
}

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

func intArg(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return def
}
