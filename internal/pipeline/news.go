package pipeline

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/kitbuilder587/invest-bot/internal/metrics"
)

// NewsDigest - результат новостной цепочки: размеченные статьи
// и агрегат сантимента по выпуску
type NewsDigest struct {
	Articles  []map[string]any
	Sentiment map[string]any
}

// NewNewsPipeline строит стандартную цепочку обработки новостей:
// прием -> чистка -> сантимент -> сущности -> сводка
func NewNewsPipeline(m *metrics.Metrics, logger *zap.Logger) *Pipeline {
	stages := []Stage{
		{Name: "ingest", Fn: ingestArticles},
		{Name: "clean", Fn: cleanArticles},
		{Name: "classify", Fn: classifyArticles},
		{Name: "extract", Fn: extractEntities},
		{Name: "summarize", Fn: summarizeArticles},
	}
	return New("news", stages, m, logger)
}

func ingestArticles(_ context.Context, in any) (any, error) {
	articles, ok := in.([]map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected article list, got %T", in)
	}
	return articles, nil
}

var spaceRe = regexp.MustCompile(`\s+`)

// cleanArticles нормализует пробелы и выбрасывает статьи без заголовка
func cleanArticles(_ context.Context, in any) (any, error) {
	articles := in.([]map[string]any)

	cleaned := make([]map[string]any, 0, len(articles))
	for _, art := range articles {
		title, _ := art["title"].(string)
		title = spaceRe.ReplaceAllString(strings.TrimSpace(title), " ")
		if title == "" {
			continue
		}
		art["title"] = title

		if desc, ok := art["description"].(string); ok {
			art["description"] = spaceRe.ReplaceAllString(strings.TrimSpace(desc), " ")
		}
		cleaned = append(cleaned, art)
	}
	return cleaned, nil
}

func classifyArticles(_ context.Context, in any) (any, error) {
	articles := in.([]map[string]any)

	for _, art := range articles {
		title, _ := art["title"].(string)
		desc, _ := art["description"].(string)
		score, label := ScoreSentiment(title + " " + desc)
		art["sentiment"] = label
		art["sentiment_score"] = score
	}
	return articles, nil
}

var entityRe = regexp.MustCompile(`\b[A-Z][A-Za-z&]+(?: [A-Z][A-Za-z&]+)*\b`)

// extractEntities вытаскивает именованные сущности из заголовка.
// Регулярка по заглавным буквам, без NER
func extractEntities(_ context.Context, in any) (any, error) {
	articles := in.([]map[string]any)

	for _, art := range articles {
		title, _ := art["title"].(string)

		seen := map[string]bool{}
		var entities []string
		for _, m := range entityRe.FindAllString(title, -1) {
			if seen[m] {
				continue
			}
			seen[m] = true
			entities = append(entities, m)
			if len(entities) == 5 {
				break
			}
		}
		art["entities"] = entities
	}
	return articles, nil
}

func summarizeArticles(_ context.Context, in any) (any, error) {
	articles := in.([]map[string]any)

	digest := NewsDigest{Articles: articles}
	if len(articles) == 0 {
		return digest, nil
	}

	var sum float64
	counts := map[string]int{}
	for _, art := range articles {
		if score, ok := art["sentiment_score"].(float64); ok {
			sum += score
		}
		if label, ok := art["sentiment"].(string); ok {
			counts[label]++
		}
	}

	avg := sum / float64(len(articles))
	digest.Sentiment = map[string]any{
		"average":  avg,
		"positive": counts["positive"],
		"negative": counts["negative"],
		"neutral":  counts["neutral"],
		"summary":  fmt.Sprintf("%d articles, avg sentiment %.2f", len(articles), avg),
	}
	return digest, nil
}
