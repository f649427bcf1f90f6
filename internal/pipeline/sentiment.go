package pipeline

import "strings"

// простейший словарный сантимент по заголовкам, без LLM
var positiveWords = map[string]bool{
	"beat": true, "beats": true, "surge": true, "surges": true,
	"rally": true, "rallies": true, "gain": true, "gains": true,
	"growth": true, "record": true, "strong": true, "upgrade": true,
	"upgraded": true, "outperform": true, "bullish": true, "soar": true,
	"soars": true, "jump": true, "jumps": true, "profit": true,
	"exceeds": true, "optimistic": true, "buy": true,
}

var negativeWords = map[string]bool{
	"miss": true, "misses": true, "fall": true, "falls": true,
	"drop": true, "drops": true, "plunge": true, "plunges": true,
	"loss": true, "losses": true, "weak": true, "downgrade": true,
	"downgraded": true, "underperform": true, "bearish": true,
	"lawsuit": true, "probe": true, "recall": true, "layoff": true,
	"layoffs": true, "decline": true, "declines": true, "warns": true,
	"cuts": true, "sell": true,
}

// ScoreSentiment возвращает оценку в [-1, 1] и метку
func ScoreSentiment(text string) (float64, string) {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})

	var pos, neg int
	for _, w := range words {
		if positiveWords[w] {
			pos++
		}
		if negativeWords[w] {
			neg++
		}
	}

	total := pos + neg
	if total == 0 {
		return 0, "neutral"
	}

	score := float64(pos-neg) / float64(total)
	switch {
	case score > 0.2:
		return score, "positive"
	case score < -0.2:
		return score, "negative"
	default:
		return score, "neutral"
	}
}
