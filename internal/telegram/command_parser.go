package telegram

import (
	"strings"
)

// /price AAPL -> "price of AAPL", /analyze TSLA -> "analyze TSLA" и т.д.
// Команда превращается в канонический текст запроса, обычный текст
// проходит как есть.
func ParseAnalysisCommand(text string) string {
	text = strings.TrimSpace(text)

	if text == "" || !strings.HasPrefix(text, "/") {
		return text
	}

	parts := strings.SplitN(text, " ", 2)
	command := strings.ToLower(strings.TrimPrefix(parts[0], "/"))
	if i := strings.Index(command, "@"); i != -1 {
		command = command[:i]
	}

	var rest string
	if len(parts) > 1 {
		rest = normalizeSpaces(parts[1])
	}

	switch command {
	case "price":
		return "price of " + rest
	case "news":
		return "news about " + rest
	case "earnings":
		return "earnings report for " + rest
	case "analyze":
		return "analyze " + rest
	case "memory":
		return "what do you remember about " + rest + " from last time"
	default:
		return text
	}
}

func normalizeSpaces(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}
