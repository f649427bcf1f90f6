package telegram

import (
	"fmt"
	"html"
	"strings"

	"github.com/kitbuilder587/invest-bot/internal/domain"
	"github.com/kitbuilder587/invest-bot/internal/refine"
	"github.com/kitbuilder587/invest-bot/internal/service"
)

// FormatReport собирает HTML-ответ из итога прогона
func FormatReport(report *service.Report) string {
	var sb strings.Builder

	if report.Request.Symbol != "" {
		fmt.Fprintf(&sb, "<b>%s</b> — %s\n\n",
			html.EscapeString(report.Request.Symbol),
			html.EscapeString(report.Request.Intent.String()))
	}

	switch {
	case report.Request.Intent == domain.IntentMemoryQuery:
		sb.WriteString(formatHistory(report.Memory))
	case report.Draft != nil:
		sb.WriteString(html.EscapeString(report.Draft.Narrative))
		sb.WriteString(formatVerdict(report))
	default:
		for _, res := range report.Results {
			sb.WriteString(formatAgentResult(res))
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}

func formatVerdict(report *service.Report) string {
	if len(report.Evaluations) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("\n\n━━━━━━━━━━━━━━━━━━━━━\n")

	last := report.Evaluations[len(report.Evaluations)-1]
	if report.Draft != nil {
		for _, ev := range report.Evaluations {
			if ev.DraftIteration == report.Draft.Iteration {
				last = ev
			}
		}
	}

	fmt.Fprintf(&sb, "<i>Оценка: %.2f, итераций: %d</i>\n", last.Score, len(report.Evaluations))
	if report.State == refine.StateExhausted {
		sb.WriteString("<i>Порог качества не достигнут, показана лучшая версия.</i>\n")
	}
	return sb.String()
}

func formatAgentResult(res domain.AgentResult) string {
	var sb strings.Builder

	switch res.AgentName {
	case "market":
		sb.WriteString(formatQuote(res.Payload))
	case "news":
		sb.WriteString(formatNews(res.Payload))
	case "earnings":
		sb.WriteString(formatEarnings(res.Payload))
	}

	if res.Status == domain.ResultPartial && res.Note != "" {
		fmt.Fprintf(&sb, "<i>%s</i>\n", html.EscapeString(res.Note))
	}
	sb.WriteString("\n")
	return sb.String()
}

func formatQuote(payload map[string]any) string {
	quote, ok := payload["quote"].(map[string]any)
	if !ok {
		return ""
	}

	var sb strings.Builder
	if price, ok := quote["price"].(float64); ok {
		currency, _ := quote["currency"].(string)
		fmt.Fprintf(&sb, "Цена: <b>%.2f %s</b>\n", price, html.EscapeString(currency))
	}
	if change, ok := quote["change_pct"].(float64); ok {
		fmt.Fprintf(&sb, "Изменение за день: %+.2f%%\n", change)
	}
	if ret, ok := quote["period_return_pct"].(float64); ok {
		fmt.Fprintf(&sb, "Доходность за период: %+.2f%%\n", ret)
	}

	if macro, ok := payload["macro"].(map[string]any); ok {
		if latest, ok := macro["latest"].(map[string]any); ok {
			if v, ok := latest["value"].(float64); ok {
				fmt.Fprintf(&sb, "Ставка ФРС: %.2f%%\n", v)
			}
		}
	}
	return sb.String()
}

func formatNews(payload map[string]any) string {
	articles, ok := payload["articles"].([]map[string]any)
	if !ok || len(articles) == 0 {
		return ""
	}

	var sb strings.Builder
	if sentiment, ok := payload["sentiment"].(map[string]any); ok {
		if summary, ok := sentiment["summary"].(string); ok {
			fmt.Fprintf(&sb, "<i>%s</i>\n", html.EscapeString(summary))
		}
	}

	max := len(articles)
	if max > 5 {
		max = 5
	}
	for _, art := range articles[:max] {
		title, _ := art["title"].(string)
		source, _ := art["source"].(string)
		fmt.Fprintf(&sb, "• %s", html.EscapeString(title))
		if source != "" {
			fmt.Fprintf(&sb, " — %s", html.EscapeString(source))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func formatEarnings(payload map[string]any) string {
	var sb strings.Builder

	if filings, ok := payload["filings"].(map[string]any); ok {
		if name, ok := filings["entity_name"].(string); ok && name != "" {
			fmt.Fprintf(&sb, "%s\n", html.EscapeString(name))
		}
	}

	ratios, ok := payload["ratios"].(map[string]any)
	if !ok {
		return sb.String()
	}

	labels := []struct {
		key, label, format string
	}{
		{"net_margin_pct", "Маржа чистой прибыли", "%.1f%%"},
		{"roe_pct", "ROE", "%.1f%%"},
		{"roa_pct", "ROA", "%.1f%%"},
		{"debt_to_equity", "Долг/капитал", "%.2f"},
	}
	for _, l := range labels {
		if v, ok := ratios[l.key].(float64); ok {
			fmt.Fprintf(&sb, "%s: <b>"+l.format+"</b>\n", l.label, v)
		}
	}
	return sb.String()
}

func formatHistory(rec *domain.MemoryRecord) string {
	if rec == nil || len(rec.History) == 0 {
		return "История по этой бумаге пуста."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>История исследований (%d):</b>\n\n", len(rec.History))
	for i, e := range rec.History {
		fmt.Fprintf(&sb, "%d. [%s] %s\n", i+1,
			e.CreatedAt.Format("2006-01-02"),
			html.EscapeString(e.Summary))
		if e.Score > 0 {
			fmt.Fprintf(&sb, "   <i>оценка %.2f, итераций %d</i>\n", e.Score, e.Iteration+1)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func SplitMessage(text string, maxLen int) []string {
	if len(text) <= maxLen {
		return []string{text}
	}

	var messages []string
	for len(text) > 0 {
		if len(text) <= maxLen {
			messages = append(messages, text)
			break
		}

		splitPoint := findSafeSplitPoint(text, maxLen)
		if splitPoint <= 0 || splitPoint > len(text) {
			splitPoint = maxLen
		}

		messages = append(messages, text[:splitPoint])
		text = text[splitPoint:]
	}

	return messages
}

func findSafeSplitPoint(text string, maxLen int) int {
	// ищем пробел или перевод строки, не ломая HTML-теги
	for i := maxLen - 1; i > maxLen/2; i-- {
		if i >= len(text) {
			continue
		}
		if isInsideHTMLTag(text, i) {
			continue
		}

		if text[i] == '\n' || text[i] == ' ' {
			return i + 1
		}
	}

	// внутри тега - ищем конец
	if maxLen < len(text) && isInsideHTMLTag(text, maxLen) {
		for i := maxLen; i < len(text); i++ {
			if text[i] == '>' {
				for j := i + 1; j < len(text) && j < i+50; j++ {
					if text[j] == '\n' || text[j] == ' ' {
						return j + 1
					}
				}
				return i + 1
			}
		}
	}

	for i := maxLen - 1; i > 0; i-- {
		if text[i] == ' ' || text[i] == '\n' {
			return i + 1
		}
	}

	return maxLen
}

func isInsideHTMLTag(text string, pos int) bool {
	if pos >= len(text) || pos < 0 {
		return false
	}
	for i := pos; i >= 0; i-- {
		if text[i] == '>' {
			return false
		}
		if text[i] == '<' {
			return true
		}
	}
	return false
}
