package llm

import (
	"context"
	"errors"
)

var (
	ErrAuthFailed    = errors.New("authentication failed")
	ErrRequestFailed = errors.New("request failed")
	ErrEmptyResponse = errors.New("empty response")
	ErrRateLimit     = errors.New("rate limit exceeded")
)

// Client - чат-клиент LLM-провайдера. Через него ходят
// синтез черновика и оценщик качества.
type Client interface {
	CompleteWithSystem(ctx context.Context, system, prompt string) (string, error)
}
