package refine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kitbuilder587/invest-bot/internal/domain"
	"github.com/kitbuilder587/invest-bot/internal/metrics"
	"github.com/kitbuilder587/invest-bot/internal/pipeline"
)

type State string

const (
	StateDrafting   State = "drafting"
	StateEvaluating State = "evaluating"
	StateRefining   State = "refining"
	StateAccepted   State = "accepted"
	StateExhausted  State = "exhausted"
)

// Outcome хранит полную историю цикла: все версии черновиков и оценки.
// Final указывает на принятую или лучшую по баллу версию.
type Outcome struct {
	Drafts      []domain.SynthesisDraft
	Evaluations []domain.Evaluation
	Final       *domain.SynthesisDraft
	State       State
	Iterations  int
}

type LoopConfig struct {
	MaxIterations int
}

// Loop - цикл черновик -> оценка -> доработка. Черновики не
// перезаписываются: каждая итерация порождает новую версию.
type Loop struct {
	synthesis     *pipeline.Pipeline
	evaluator     *Evaluator
	maxIterations int
	metrics       *metrics.Metrics
	logger        *zap.Logger
}

func NewLoop(synthesis *pipeline.Pipeline, evaluator *Evaluator, cfg LoopConfig, m *metrics.Metrics, logger *zap.Logger) *Loop {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Loop{
		synthesis:     synthesis,
		evaluator:     evaluator,
		maxIterations: cfg.MaxIterations,
		metrics:       m,
		logger:        logger,
	}
}

func (l *Loop) Run(ctx context.Context, input pipeline.MergeInput) (*Outcome, error) {
	outcome := &Outcome{State: StateDrafting}

	// нумерация версий с нуля: первый черновик - iteration 0
	for iter := 0; iter < l.maxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		outcome.Iterations = iter + 1

		out, err := l.synthesis.Run(ctx, input)
		if err != nil {
			return nil, err
		}
		narrative, _ := out.(string)

		draft := domain.SynthesisDraft{
			ID:        uuid.NewString(),
			Symbol:    input.Request.Symbol,
			Inputs:    input.Results,
			Narrative: narrative,
			Iteration: iter,
			CreatedAt: time.Now(),
		}
		outcome.Drafts = append(outcome.Drafts, draft)

		outcome.State = StateEvaluating
		eval, err := l.evaluator.Evaluate(ctx, &draft, input.Request)
		if err != nil {
			return nil, err
		}
		outcome.Evaluations = append(outcome.Evaluations, *eval)

		if eval.Passed {
			outcome.State = StateAccepted
			outcome.Final = &outcome.Drafts[len(outcome.Drafts)-1]
			if l.metrics != nil {
				l.metrics.RecordRefineIterations(iter + 1)
			}
			return outcome, nil
		}

		l.logger.Info("draft below threshold, refining",
			zap.Int("iteration", iter),
			zap.Float64("score", eval.Score),
			zap.Strings("feedback", eval.Feedback))

		outcome.State = StateRefining
		input.Feedback = eval.Feedback
	}

	// лимит итераций: отдаем лучшую версию с пометкой
	best := 0
	for i := range outcome.Evaluations {
		if outcome.Evaluations[i].Score > outcome.Evaluations[best].Score {
			best = i
		}
	}
	outcome.Drafts[best].BelowThreshold = true
	outcome.Final = &outcome.Drafts[best]
	outcome.State = StateExhausted

	if l.metrics != nil {
		l.metrics.RecordRefineIterations(l.maxIterations)
	}

	return outcome, nil
}
