package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	RunsTotal    *prometheus.CounterVec
	RunDuration  *prometheus.HistogramVec
	RunsInFlight prometheus.Gauge

	ToolAttemptsTotal *prometheus.CounterVec
	ToolCallDuration  *prometheus.HistogramVec

	AgentRunsTotal   *prometheus.CounterVec
	AgentRunDuration *prometheus.HistogramVec

	LLMRequestsTotal   *prometheus.CounterVec
	LLMRequestDuration *prometheus.HistogramVec

	PipelineStagesTotal *prometheus.CounterVec
	RefineIterations    prometheus.Histogram

	MemoryAppendsTotal *prometheus.CounterVec

	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter

	RateLimitHitsTotal *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		RunsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "invest_bot_runs_total",
				Help: "Total number of orchestration runs",
			},
			[]string{"intent", "status"},
		),
		RunDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "invest_bot_run_duration_seconds",
				Help:    "Orchestration run duration in seconds",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
			},
			[]string{"intent"},
		),
		RunsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "invest_bot_runs_in_flight",
				Help: "Number of orchestration runs currently being processed",
			},
		),

		ToolAttemptsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "invest_bot_tool_attempts_total",
				Help: "Total number of external tool call attempts",
			},
			[]string{"tool", "status"},
		),
		ToolCallDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "invest_bot_tool_call_duration_seconds",
				Help:    "External tool call duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"tool"},
		),

		AgentRunsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "invest_bot_agent_runs_total",
				Help: "Total number of specialist agent invocations",
			},
			[]string{"agent", "status"},
		),
		AgentRunDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "invest_bot_agent_run_duration_seconds",
				Help:    "Specialist agent run duration in seconds",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"agent"},
		),

		LLMRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "invest_bot_llm_requests_total",
				Help: "Total number of LLM API requests",
			},
			[]string{"provider", "status"},
		),
		LLMRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "invest_bot_llm_request_duration_seconds",
				Help:    "LLM request duration in seconds",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"provider"},
		),

		PipelineStagesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "invest_bot_pipeline_stages_total",
				Help: "Total number of executed pipeline stages",
			},
			[]string{"stage", "status"},
		),
		RefineIterations: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "invest_bot_refine_iterations",
				Help:    "Number of evaluator-optimizer iterations per run",
				Buckets: []float64{0, 1, 2, 3, 4, 5},
			},
		),

		MemoryAppendsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "invest_bot_memory_appends_total",
				Help: "Total number of memory store appends",
			},
			[]string{"status"},
		),

		CacheHitsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "invest_bot_cache_hits_total",
				Help: "Total number of cache hits",
			},
		),
		CacheMissesTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "invest_bot_cache_misses_total",
				Help: "Total number of cache misses",
			},
		),

		RateLimitHitsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "invest_bot_rate_limit_hits_total",
				Help: "Total number of rate limit hits",
			},
			[]string{"key"},
		),
	}

	return m
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func (m *Metrics) RecordRun(intent, status string, duration time.Duration) {
	m.RunsTotal.WithLabelValues(intent, status).Inc()
	m.RunDuration.WithLabelValues(intent).Observe(duration.Seconds())
}

func (m *Metrics) RecordToolAttempt(tool, status string, duration time.Duration) {
	m.ToolAttemptsTotal.WithLabelValues(tool, status).Inc()
	m.ToolCallDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

func (m *Metrics) RecordAgentRun(agent, status string, duration time.Duration) {
	m.AgentRunsTotal.WithLabelValues(agent, status).Inc()
	m.AgentRunDuration.WithLabelValues(agent).Observe(duration.Seconds())
}

func (m *Metrics) RecordLLMRequest(provider, status string, duration time.Duration) {
	m.LLMRequestsTotal.WithLabelValues(provider, status).Inc()
	m.LLMRequestDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

func (m *Metrics) RecordStage(stage, status string) {
	m.PipelineStagesTotal.WithLabelValues(stage, status).Inc()
}

func (m *Metrics) RecordRefineIterations(n int) {
	m.RefineIterations.Observe(float64(n))
}

func (m *Metrics) RecordMemoryAppend(status string) {
	m.MemoryAppendsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordCacheHit()  { m.CacheHitsTotal.Inc() }
func (m *Metrics) RecordCacheMiss() { m.CacheMissesTotal.Inc() }

func (m *Metrics) RecordRateLimitHit(key string) {
	m.RateLimitHitsTotal.WithLabelValues(key).Inc()
}

func (m *Metrics) IncRunsInFlight() { m.RunsInFlight.Inc() }
func (m *Metrics) DecRunsInFlight() { m.RunsInFlight.Dec() }
