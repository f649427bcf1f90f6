package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

var (
	ErrMissingToken     = errors.New("TELEGRAM_BOT_TOKEN is required")
	ErrMissingDB        = errors.New("DATABASE_URL is required")
	ErrInvalidThreshold = errors.New("eval threshold must be in (0, 1]")
	ErrInvalidAttempts  = errors.New("invoker max attempts must be at least 1")
)

type Config struct {
	Telegram  TelegramConfig
	Database  DatabaseConfig
	LLM       LLMConfig
	Tools     ToolsConfig
	Invoker   InvokerConfig
	Refine    RefineConfig
	Log       LogConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Metrics   MetricsConfig
}

type TelegramConfig struct {
	Token string
	Debug bool
}

type DatabaseConfig struct {
	URL string
}

type LLMConfig struct {
	Provider   string
	OpenRouter OpenRouterConfig
}

type OpenRouterConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// ToolsConfig - ключи и базовые URL внешних коннекторов данных
type ToolsConfig struct {
	QuotesBaseURL  string
	NewsAPIKey     string
	NewsBaseURL    string
	EdgarBaseURL   string
	EdgarUserAgent string
	FredAPIKey     string
	FredBaseURL    string
	Timeout        time.Duration
}

type InvokerConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// RefineConfig - политика цикла оценки и доработки. Порог и веса
// задаются окружением, чтобы крутить качество без пересборки.
type RefineConfig struct {
	MaxIterations      int
	Threshold          float64
	WeightCoherence    float64
	WeightCompleteness float64
	WeightGroundedness float64
}

type LogConfig struct {
	Level string
}

type CacheConfig struct {
	TTL time.Duration
}

type RateLimitConfig struct {
	ChatPerMinute int
	ToolPerMinute int
}

type MetricsConfig struct {
	Addr string
}

func Load() (*Config, error) {
	cfg := &Config{
		Telegram: TelegramConfig{
			Token: os.Getenv("TELEGRAM_BOT_TOKEN"),
			Debug: os.Getenv("TELEGRAM_DEBUG") == "1",
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		LLM: LLMConfig{
			Provider: getEnvOrDefault("LLM_PROVIDER", "mock"),
			OpenRouter: OpenRouterConfig{
				APIKey:  os.Getenv("OPENROUTER_API_KEY"),
				Model:   getEnvOrDefault("OPENROUTER_MODEL", "deepseek/deepseek-chat"),
				BaseURL: getEnvOrDefault("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
			},
		},
		Tools: ToolsConfig{
			QuotesBaseURL:  getEnvOrDefault("QUOTES_BASE_URL", "https://query1.finance.yahoo.com"),
			NewsAPIKey:     os.Getenv("NEWSAPI_KEY"),
			NewsBaseURL:    getEnvOrDefault("NEWSAPI_BASE_URL", "https://newsapi.org/v2"),
			EdgarBaseURL:   getEnvOrDefault("EDGAR_BASE_URL", "https://data.sec.gov"),
			EdgarUserAgent: getEnvOrDefault("EDGAR_USER_AGENT", "invest-bot/1.0"),
			FredAPIKey:     os.Getenv("FRED_API_KEY"),
			FredBaseURL:    getEnvOrDefault("FRED_BASE_URL", "https://api.stlouisfed.org/fred"),
			Timeout:        time.Duration(getEnvIntOrDefault("TOOL_TIMEOUT_SEC", 30)) * time.Second,
		},
		Invoker: InvokerConfig{
			MaxAttempts: getEnvIntOrDefault("INVOKER_MAX_ATTEMPTS", 5),
			BaseDelay:   time.Duration(getEnvIntOrDefault("INVOKER_BASE_DELAY_SEC", 5)) * time.Second,
		},
		Refine: RefineConfig{
			MaxIterations:      getEnvIntOrDefault("REFINE_MAX_ITERATIONS", 3),
			Threshold:          getEnvFloatOrDefault("REFINE_THRESHOLD", 0.85),
			WeightCoherence:    getEnvFloatOrDefault("REFINE_WEIGHT_COHERENCE", 1),
			WeightCompleteness: getEnvFloatOrDefault("REFINE_WEIGHT_COMPLETENESS", 1),
			WeightGroundedness: getEnvFloatOrDefault("REFINE_WEIGHT_GROUNDEDNESS", 1),
		},
		Log: LogConfig{
			Level: getEnvOrDefault("LOG_LEVEL", "info"),
		},
		Cache: CacheConfig{
			TTL: time.Duration(getEnvIntOrDefault("CACHE_TTL_SEC", 300)) * time.Second,
		},
		RateLimit: RateLimitConfig{
			ChatPerMinute: getEnvIntOrDefault("RATE_LIMIT_CHAT_PER_MINUTE", 10),
			ToolPerMinute: getEnvIntOrDefault("RATE_LIMIT_TOOL_PER_MINUTE", 60),
		},
		Metrics: MetricsConfig{
			Addr: getEnvOrDefault("METRICS_ADDR", ":9090"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return ErrMissingToken
	}
	if c.Database.URL == "" {
		return ErrMissingDB
	}
	if c.Refine.Threshold <= 0 || c.Refine.Threshold > 1 {
		return ErrInvalidThreshold
	}
	if c.Invoker.MaxAttempts < 1 {
		return ErrInvalidAttempts
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
