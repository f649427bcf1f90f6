package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kitbuilder587/invest-bot/internal/metrics"
)

type fakeClient struct {
	response string
	err      error
}

func (f *fakeClient) CompleteWithSystem(_ context.Context, _, _ string) (string, error) {
	return f.response, f.err
}

func TestWithMetrics(t *testing.T) {
	m := metrics.New()

	ok := WithMetrics(&fakeClient{response: "analyst note"}, m, "mock")
	out, err := ok.CompleteWithSystem(context.Background(), "system", "prompt")
	if err != nil || out != "analyst note" {
		t.Fatalf("CompleteWithSystem() = %q, %v", out, err)
	}

	failing := WithMetrics(&fakeClient{err: errors.New("boom")}, m, "mock")
	if _, err := failing.CompleteWithSystem(context.Background(), "system", "prompt"); err == nil {
		t.Fatal("expected error passthrough")
	}

	if got := testutil.ToFloat64(m.LLMRequestsTotal.WithLabelValues("mock", "ok")); got != 1 {
		t.Errorf("ok requests = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.LLMRequestsTotal.WithLabelValues("mock", "failed")); got != 1 {
		t.Errorf("failed requests = %v, want 1", got)
	}
}
