package telegram

import (
	"context"
	"errors"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/kitbuilder587/invest-bot/internal/domain"
)

type Handler struct {
	bot *Bot
}

func NewHandler(bot *Bot) *Handler {
	return &Handler{bot: bot}
}

func (h *Handler) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	h.bot.logger.Info("received message",
		zap.Int64("user_id", msg.From.ID),
		zap.String("username", msg.From.UserName),
		zap.Bool("is_command", msg.IsCommand()),
	)

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			h.handleStart(ctx, msg)
			return
		case "help":
			h.handleHelp(ctx, msg)
			return
		case "price", "news", "earnings", "analyze", "memory":
			h.handleAnalysis(ctx, msg)
			return
		default:
			h.bot.Send(msg.Chat.ID, "Неизвестная команда. Используйте /help для справки.")
			return
		}
	}

	h.handleAnalysis(ctx, msg)
}

func (h *Handler) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	h.bot.Send(msg.Chat.ID, "Привет! Я исследую публичные компании: котировки, новости, отчетность.\n\nИспользуйте /help для списка команд или просто спросите, например: \"analyze AAPL\".")
}

func (h *Handler) handleHelp(ctx context.Context, msg *tgbotapi.Message) {
	helpText := `<b>Доступные команды:</b>

/price ТИКЕР - Текущая котировка и макрофон
/news ТИКЕР - Свежие новости с оценкой тона
/earnings ТИКЕР - Отчетность и коэффициенты
/analyze ТИКЕР - Полный разбор: данные, синтез, проверка качества
/memory ТИКЕР - Прошлые разборы по бумаге
/help - Эта справка

<b>Как использовать:</b>
Можно писать и обычным текстом: "what is the price of AAPL",
"news about tesla", "analyze NVDA".

Полный разбор проходит несколько итераций: черновик проверяется
оценщиком и дорабатывается, пока не пройдет порог качества.`

	h.bot.Send(msg.Chat.ID, helpText)
}

func (h *Handler) handleAnalysis(ctx context.Context, msg *tgbotapi.Message) {
	key := "chat:" + strconv.FormatInt(msg.From.ID, 10)
	if !h.bot.rateLimiter.Allow(key) {
		resetTime := h.bot.rateLimiter.ResetTime(key)
		h.bot.logger.Warn("rate limit exceeded",
			zap.Int64("user_id", msg.From.ID),
			zap.Time("reset_at", resetTime),
		)
		h.bot.RecordRateLimitHit(msg.From.ID)
		h.bot.Send(msg.Chat.ID, "Слишком много запросов. Пожалуйста, подождите минуту.")
		return
	}

	h.bot.SendTyping(msg.Chat.ID)

	raw := ParseAnalysisCommand(msg.Text)

	report, err := h.bot.analysis.Analyze(ctx, raw)
	if err != nil {
		h.bot.logger.Error("analysis failed",
			zap.Error(err),
			zap.Int64("user_id", msg.From.ID),
		)
		h.bot.Send(msg.Chat.ID, mapErrorToMessage(err))
		return
	}

	formatted := FormatReport(report)

	messages := SplitMessage(formatted, 4096) // лимит телеграма
	for _, m := range messages {
		if err := h.bot.Send(msg.Chat.ID, m); err != nil {
			h.bot.logger.Error("failed to send message", zap.Error(err))
		}
	}
}

func mapErrorToMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmptyInput):
		return "Пустой запрос. Напишите, что исследовать, например: analyze AAPL."
	case errors.Is(err, domain.ErrInputTooLong):
		return "Запрос слишком длинный. Максимум 1000 символов."
	case errors.Is(err, domain.ErrUnresolvableIntent):
		return "Не понял запрос. Укажите тикер и что нужно: price, news, earnings или analyze."
	case errors.Is(err, domain.ErrMissingSymbol):
		return "Не нашел тикер в запросе. Пример: /price AAPL."
	case errors.Is(err, domain.ErrNoHistory), errors.Is(err, domain.ErrNotFound):
		return "По этой бумаге еще нет истории. Запустите /analyze."
	case errors.Is(err, domain.ErrToolRateLimit):
		return "Внешний источник данных перегружен. Попробуйте через минуту."
	default:
		var rf *domain.RoutingFailure
		if errors.As(err, &rf) {
			return "Не удалось получить данные ни из одного источника. Попробуйте позже."
		}
		return "Произошла ошибка. Попробуйте позже."
	}
}
