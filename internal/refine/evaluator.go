package refine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/invest-bot/internal/domain"
	"github.com/kitbuilder587/invest-bot/internal/llm"
)

const EvaluatorSystemPrompt = `You are an evaluation agent for investment research notes.

Score the draft against the collected data on three axes, each 0.0-1.0:
1. COHERENCE: is the narrative logical and well-structured?
2. COMPLETENESS: does it cover every data section provided?
3. GROUNDEDNESS: is every claim traceable to the data, no invented figures?

Response format (JSON only):
{
  "coherence": 0.0-1.0,
  "completeness": 0.0-1.0,
  "groundedness": 0.0-1.0,
  "feedback": ["specific fix 1", "specific fix 2"]
}`

type Weights struct {
	Coherence    float64
	Completeness float64
	Groundedness float64
}

type EvaluatorConfig struct {
	Threshold float64
	Weights   Weights
}

// Evaluator оценивает черновики через LLM и считает взвешенный балл
type Evaluator struct {
	llm       llm.Client
	threshold float64
	weights   Weights
	logger    *zap.Logger
}

func NewEvaluator(client llm.Client, cfg EvaluatorConfig, logger *zap.Logger) *Evaluator {
	if cfg.Threshold <= 0 || cfg.Threshold > 1 {
		cfg.Threshold = 0.85
	}
	if cfg.Weights == (Weights{}) {
		cfg.Weights = Weights{Coherence: 1, Completeness: 1, Groundedness: 1}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Evaluator{
		llm:       client,
		threshold: cfg.Threshold,
		weights:   cfg.Weights,
		logger:    logger,
	}
}

func (e *Evaluator) Threshold() float64 { return e.threshold }

func (e *Evaluator) Evaluate(ctx context.Context, draft *domain.SynthesisDraft, req domain.Request) (*domain.Evaluation, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	response, err := e.llm.CompleteWithSystem(ctx, EvaluatorSystemPrompt, e.buildPrompt(draft, req))
	if err != nil {
		e.logger.Error("evaluation failed", zap.Error(err))
		return nil, fmt.Errorf("evaluate draft: %w", err)
	}

	eval := e.parseResponse(response, draft.Iteration)

	e.logger.Info("draft evaluated",
		zap.Int("iteration", draft.Iteration),
		zap.Float64("score", eval.Score),
		zap.Bool("passed", eval.Passed))

	return eval, nil
}

func (e *Evaluator) buildPrompt(draft *domain.SynthesisDraft, req domain.Request) string {
	var sb strings.Builder

	sb.WriteString("=== TASK ===\n")
	sb.WriteString(req.ActionItem)
	sb.WriteString("\n\n=== COLLECTED DATA ===\n")
	for _, res := range draft.Inputs {
		fmt.Fprintf(&sb, "[%s, status=%s]\n", res.AgentName, res.Status)
		payload, err := json.Marshal(res.Payload)
		if err == nil {
			sb.Write(payload)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\n=== DRAFT TO EVALUATE ===\n")
	sb.WriteString(draft.Narrative)
	sb.WriteString("\n\nRespond with JSON only.")

	return sb.String()
}

func (e *Evaluator) parseResponse(llmResponse string, iteration int) *domain.Evaluation {
	jsonStr := extractJSON(llmResponse)

	var parsed struct {
		Coherence    float64  `json:"coherence"`
		Completeness float64  `json:"completeness"`
		Groundedness float64  `json:"groundedness"`
		Feedback     []string `json:"feedback"`
	}

	if err := json.Unmarshal([]byte(jsonStr), &parsed); err != nil {
		e.logger.Warn("failed to parse evaluator response as JSON",
			zap.Error(err),
			zap.String("response", llmResponse))

		// не зацикливаем доработку на сломанном ответе оценщика
		return &domain.Evaluation{
			DraftIteration: iteration,
			Score:          e.threshold,
			Passed:         true,
			Scores:         map[string]float64{},
			Feedback:       []string{"evaluator response was not valid JSON"},
			EvaluatedAt:    time.Now(),
		}
	}

	w := e.weights
	total := w.Coherence + w.Completeness + w.Groundedness
	score := (parsed.Coherence*w.Coherence + parsed.Completeness*w.Completeness + parsed.Groundedness*w.Groundedness) / total

	return &domain.Evaluation{
		DraftIteration: iteration,
		Score:          score,
		Passed:         score >= e.threshold,
		Scores: map[string]float64{
			"coherence":    parsed.Coherence,
			"completeness": parsed.Completeness,
			"groundedness": parsed.Groundedness,
		},
		Feedback:    parsed.Feedback,
		EvaluatedAt: time.Now(),
	}
}

// extractJSON достает JSON из ответа LLM который может содержать текст вокруг
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	if start == -1 {
		return s
	}

	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}

	return s[start:]
}
