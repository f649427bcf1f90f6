package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/kitbuilder587/invest-bot/internal/domain"
	"github.com/kitbuilder587/invest-bot/internal/metrics"
)

// Stage - один шаг цепочки. Выход шага становится входом следующего.
type Stage struct {
	Name string
	Fn   func(ctx context.Context, in any) (any, error)
}

// Pipeline гонит значение через шаги строго по порядку. Отказ шага
// останавливает цепочку, остальные шаги не запускаются.
type Pipeline struct {
	name    string
	stages  []Stage
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func New(name string, stages []Stage, m *metrics.Metrics, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{name: name, stages: stages, metrics: m, logger: logger}
}

func (p *Pipeline) Name() string { return p.name }

func (p *Pipeline) Run(ctx context.Context, in any) (any, error) {
	current := in

	for i, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		out, err := stage.Fn(ctx, current)
		if err != nil {
			if p.metrics != nil {
				p.metrics.RecordStage(stage.Name, "failed")
			}
			p.logger.Warn("pipeline stage failed",
				zap.String("pipeline", p.name),
				zap.String("stage", stage.Name),
				zap.Int("index", i),
				zap.Error(err))
			return nil, &domain.StageFailure{Index: i, Stage: stage.Name, Cause: err}
		}

		if p.metrics != nil {
			p.metrics.RecordStage(stage.Name, "ok")
		}
		current = out
	}

	return current, nil
}
