package llm

import (
	"context"
	"time"

	"github.com/kitbuilder587/invest-bot/internal/metrics"
)

type measured struct {
	next     Client
	m        *metrics.Metrics
	provider string
}

// WithMetrics снимает длительность и статус каждого запроса к провайдеру
func WithMetrics(next Client, m *metrics.Metrics, provider string) Client {
	return &measured{next: next, m: m, provider: provider}
}

func (c *measured) CompleteWithSystem(ctx context.Context, system, prompt string) (string, error) {
	start := time.Now()
	out, err := c.next.CompleteWithSystem(ctx, system, prompt)

	status := "ok"
	if err != nil {
		status = "failed"
	}
	c.m.RecordLLMRequest(c.provider, status, time.Since(start))

	return out, err
}
