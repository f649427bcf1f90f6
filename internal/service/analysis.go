package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kitbuilder587/invest-bot/internal/agent"
	"github.com/kitbuilder587/invest-bot/internal/domain"
	"github.com/kitbuilder587/invest-bot/internal/memory"
	"github.com/kitbuilder587/invest-bot/internal/metrics"
	"github.com/kitbuilder587/invest-bot/internal/pipeline"
	"github.com/kitbuilder587/invest-bot/internal/refine"
)

// Dispatcher раздает запрос специалистам, см. internal/router
type Dispatcher interface {
	Dispatch(ctx context.Context, req domain.Request) ([]domain.AgentResult, error)
}

// Refiner гоняет цикл черновик-оценка-доработка, см. internal/refine
type Refiner interface {
	Run(ctx context.Context, input pipeline.MergeInput) (*refine.Outcome, error)
}

// Report - итог одного прогона: что спросили, что собрали,
// что синтезировали и как оценили
type Report struct {
	RunID       string
	Request     domain.Request
	Results     []domain.AgentResult
	Draft       *domain.SynthesisDraft
	Evaluations []domain.Evaluation
	State       refine.State
	Memory      *domain.MemoryRecord
	Elapsed     time.Duration
}

type AnalysisService interface {
	Analyze(ctx context.Context, raw string) (*Report, error)
}

// AnalysisDeps - зависимости сервиса анализа
type AnalysisDeps struct {
	Preprocess agent.Preprocessor
	Router     Dispatcher
	Loop       Refiner
	Memory     memory.Store
	Logger     *zap.Logger
	Metrics    *metrics.Metrics
}

type analysisService struct {
	preprocess agent.Preprocessor
	router     Dispatcher
	loop       Refiner
	memory     memory.Store
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

func NewAnalysisService(deps AnalysisDeps) AnalysisService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &analysisService{
		preprocess: deps.Preprocess,
		router:     deps.Router,
		loop:       deps.Loop,
		memory:     deps.Memory,
		logger:     logger,
		metrics:    deps.Metrics,
	}
}

func (s *analysisService) Analyze(ctx context.Context, raw string) (*Report, error) {
	start := time.Now()
	runID := uuid.NewString()

	if s.metrics != nil {
		s.metrics.IncRunsInFlight()
		defer s.metrics.DecRunsInFlight()
	}

	req, err := s.preprocess.Run(ctx, raw)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordRun("unknown", "preprocess_error", time.Since(start))
		}
		return nil, err
	}

	s.logger.Info("run started",
		zap.String("run_id", runID),
		zap.String("symbol", req.Symbol),
		zap.String("intent", req.Intent.String()),
		zap.Float64("confidence", req.Confidence))

	report, err := s.run(ctx, runID, *req)
	elapsed := time.Since(start)

	if err != nil {
		status := "error"
		if errors.Is(err, domain.ErrCancelled) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			status = "cancelled"
		}
		if s.metrics != nil {
			s.metrics.RecordRun(req.Intent.String(), status, elapsed)
		}
		return nil, err
	}

	report.Elapsed = elapsed
	if s.metrics != nil {
		s.metrics.RecordRun(req.Intent.String(), string(report.State), elapsed)
	}

	s.logger.Info("run finished",
		zap.String("run_id", runID),
		zap.String("state", string(report.State)),
		zap.Duration("elapsed", elapsed))

	return report, nil
}

func (s *analysisService) run(ctx context.Context, runID string, req domain.Request) (*Report, error) {
	if req.Intent == domain.IntentMemoryQuery {
		return s.memoryQuery(ctx, runID, req)
	}

	// история по бумаге обогащает синтез, ее отсутствие не ошибка
	var history *domain.MemoryRecord
	if req.NeedsSynthesis() {
		rec, err := s.memory.Get(ctx, req.Symbol)
		if err != nil && !errors.Is(err, domain.ErrNoHistory) && !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("memory lookup failed", zap.String("run_id", runID), zap.Error(err))
		} else if err == nil {
			history = rec
		}
	}

	results, err := s.router.Dispatch(ctx, req)
	if err != nil {
		return nil, err
	}

	report := &Report{
		RunID:   runID,
		Request: req,
		Results: results,
		Memory:  history,
	}

	if !req.NeedsSynthesis() {
		report.State = refine.StateAccepted
		if err := s.remember(ctx, runID, req, report); err != nil {
			return nil, err
		}
		return report, nil
	}

	outcome, err := s.loop.Run(ctx, pipeline.MergeInput{
		Request: req,
		Results: results,
		Memory:  history,
	})
	if err != nil {
		return nil, err
	}

	report.Draft = outcome.Final
	report.Evaluations = outcome.Evaluations
	report.State = outcome.State

	if err := s.remember(ctx, runID, req, report); err != nil {
		return nil, err
	}
	return report, nil
}

func (s *analysisService) memoryQuery(ctx context.Context, runID string, req domain.Request) (*Report, error) {
	if req.Symbol == "" {
		return nil, domain.ErrMissingSymbol
	}

	rec, err := s.memory.Get(ctx, req.Symbol)
	if err != nil {
		return nil, err
	}

	// чтение истории ничего не дописывает
	return &Report{
		RunID:   runID,
		Request: req,
		State:   refine.StateAccepted,
		Memory:  rec,
	}, nil
}

// remember делает ровно одну запись в историю за прогон.
// Отмененный прогон не оставляет следа.
func (s *analysisService) remember(ctx context.Context, runID string, req domain.Request, report *Report) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCancelled, err)
	}

	entry := domain.MemoryEntry{
		RunID:     runID,
		Summary:   s.summarize(req, report),
		CreatedAt: time.Now(),
	}
	if report.Draft != nil && len(report.Evaluations) > 0 {
		final := report.Evaluations[len(report.Evaluations)-1]
		for _, ev := range report.Evaluations {
			if ev.DraftIteration == report.Draft.Iteration {
				final = ev
			}
		}
		entry.Iteration = report.Draft.Iteration
		entry.Score = final.Score
		entry.Passed = final.Passed
	}

	if err := s.memory.Append(ctx, req.Symbol, entry); err != nil {
		if s.metrics != nil {
			s.metrics.RecordMemoryAppend("failed")
		}
		return fmt.Errorf("remember run: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordMemoryAppend("ok")
	}
	return nil
}

func (s *analysisService) summarize(req domain.Request, report *Report) string {
	if report.Draft != nil {
		narrative := strings.TrimSpace(report.Draft.Narrative)
		if len(narrative) > 300 {
			narrative = narrative[:300] + "..."
		}
		return narrative
	}

	parts := make([]string, 0, len(report.Results))
	for _, res := range report.Results {
		parts = append(parts, fmt.Sprintf("%s=%s", res.AgentName, res.Status))
	}
	return fmt.Sprintf("%s: %s", req.Intent, strings.Join(parts, ", "))
}
