package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kitbuilder587/invest-bot/internal/domain"
	"github.com/kitbuilder587/invest-bot/internal/llm"
	"github.com/kitbuilder587/invest-bot/internal/metrics"
)

// MergeInput - вход синтеза: собранные данные специалистов,
// история по бумаге и замечания оценщика с прошлой итерации
type MergeInput struct {
	Request  domain.Request
	Results  []domain.AgentResult
	Memory   *domain.MemoryRecord
	Feedback []string
}

const synthesisSystemPrompt = `You are an investment research writer. Using the collected
market, news and earnings data, write a concise analyst note on the requested company.
Structure: current picture first, then supporting details, then conclusions.
Every claim must be traceable to the supplied data. Do not invent figures.`

// NewSynthesisPipeline собирает цепочку: дайджест данных -> контекст
// из истории -> черновик через LLM
func NewSynthesisPipeline(client llm.Client, m *metrics.Metrics, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}

	stages := []Stage{
		{Name: "digest", Fn: digestStage},
		{Name: "contextualize", Fn: contextualizeStage},
		{Name: "draft", Fn: draftStage(client)},
	}

	return New("synthesis", stages, m, logger)
}

// промежуточное состояние между шагами
type synthesisState struct {
	input  MergeInput
	digest string
	prompt string
}

func digestStage(ctx context.Context, in any) (any, error) {
	input, ok := in.(MergeInput)
	if !ok {
		return nil, fmt.Errorf("unexpected input type %T", in)
	}
	if len(input.Results) == 0 {
		return nil, domain.ErrEmptyInput
	}

	var sb strings.Builder
	for _, res := range input.Results {
		fmt.Fprintf(&sb, "[%s data, status=%s]\n", res.AgentName, res.Status)
		if res.Note != "" {
			fmt.Fprintf(&sb, "note: %s\n", res.Note)
		}
		payload, err := json.MarshalIndent(res.Payload, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", res.AgentName, err)
		}
		sb.Write(payload)
		sb.WriteString("\n\n")
	}

	return synthesisState{input: input, digest: sb.String()}, nil
}

func contextualizeStage(ctx context.Context, in any) (any, error) {
	state, ok := in.(synthesisState)
	if !ok {
		return nil, fmt.Errorf("unexpected input type %T", in)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Task: %s\nSymbol: %s\n\nCollected data:\n%s",
		state.input.Request.ActionItem, state.input.Request.Symbol, state.digest)

	if state.input.Memory != nil && len(state.input.Memory.History) > 0 {
		sb.WriteString("\nPrior research on this symbol (newest last):\n")
		for _, entry := range state.input.Memory.History {
			fmt.Fprintf(&sb, "- [%s, score %.2f] %s\n",
				entry.CreatedAt.Format("2006-01-02"), entry.Score, entry.Summary)
		}
	}

	if len(state.input.Feedback) > 0 {
		sb.WriteString("\nReviewer feedback on the previous draft, address every point:\n")
		for _, f := range state.input.Feedback {
			fmt.Fprintf(&sb, "- %s\n", f)
		}
	}

	state.prompt = sb.String()
	return state, nil
}

func draftStage(client llm.Client) func(ctx context.Context, in any) (any, error) {
	return func(ctx context.Context, in any) (any, error) {
		state, ok := in.(synthesisState)
		if !ok {
			return nil, fmt.Errorf("unexpected input type %T", in)
		}

		narrative, err := client.CompleteWithSystem(ctx, synthesisSystemPrompt, state.prompt)
		if err != nil {
			return nil, fmt.Errorf("draft narrative: %w", err)
		}
		if strings.TrimSpace(narrative) == "" {
			return nil, domain.ErrEmptyNarrative
		}

		return narrative, nil
	}
}
