package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kitbuilder587/invest-bot/internal/agent"
	"github.com/kitbuilder587/invest-bot/internal/cache"
	memcache "github.com/kitbuilder587/invest-bot/internal/cache/memory"
	"github.com/kitbuilder587/invest-bot/internal/config"
	"github.com/kitbuilder587/invest-bot/internal/invoker"
	"github.com/kitbuilder587/invest-bot/internal/llm"
	llmmock "github.com/kitbuilder587/invest-bot/internal/llm/mock"
	"github.com/kitbuilder587/invest-bot/internal/llm/openrouter"
	"github.com/kitbuilder587/invest-bot/internal/memory"
	pgmemory "github.com/kitbuilder587/invest-bot/internal/memory/postgres"
	"github.com/kitbuilder587/invest-bot/internal/metrics"
	"github.com/kitbuilder587/invest-bot/internal/pipeline"
	"github.com/kitbuilder587/invest-bot/internal/ratelimit"
	"github.com/kitbuilder587/invest-bot/internal/refine"
	"github.com/kitbuilder587/invest-bot/internal/router"
	"github.com/kitbuilder587/invest-bot/internal/service"
	"github.com/kitbuilder587/invest-bot/internal/telegram"
	"github.com/kitbuilder587/invest-bot/internal/tools"
)

func main() {
	// .env опционален, в проде переменные приходят из окружения
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	logger.Info("starting invest-bot")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	m := metrics.New()

	store, cleanup, err := buildMemoryStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to init memory store", zap.Error(err))
	}
	defer cleanup()

	dataCache := cache.Instrumented(memcache.NewWithContext(ctx), m)

	llmClient, err := buildLLMClient(cfg, logger)
	if err != nil {
		logger.Fatal("failed to init llm client", zap.Error(err))
	}
	llmClient = llm.WithMetrics(llmClient, m, cfg.LLM.Provider)

	inv := buildInvoker(cfg, dataCache, m, logger)

	agents := agent.NewAllAgents(inv, logger)
	disp := router.New(agents, m, logger)

	synthesis := pipeline.NewSynthesisPipeline(llmClient, m, logger)
	evaluator := refine.NewEvaluator(llmClient, refine.EvaluatorConfig{
		Threshold: cfg.Refine.Threshold,
		Weights: refine.Weights{
			Coherence:    cfg.Refine.WeightCoherence,
			Completeness: cfg.Refine.WeightCompleteness,
			Groundedness: cfg.Refine.WeightGroundedness,
		},
	}, logger)
	loop := refine.NewLoop(synthesis, evaluator, refine.LoopConfig{
		MaxIterations: cfg.Refine.MaxIterations,
	}, m, logger)

	analysisSvc := service.NewAnalysisService(service.AnalysisDeps{
		Preprocess: agent.NewPreprocess(logger),
		Router:     disp,
		Loop:       loop,
		Memory:     store,
		Logger:     logger,
		Metrics:    m,
	})

	bot, err := telegram.New(telegram.BotConfig{
		Token:             cfg.Telegram.Token,
		Debug:             cfg.Telegram.Debug,
		RequestsPerMinute: cfg.RateLimit.ChatPerMinute,
	}, analysisSvc, logger, m)
	if err != nil {
		logger.Fatal("failed to create telegram bot", zap.Error(err))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return serveMetrics(gctx, cfg.Metrics.Addr, logger)
	})
	g.Go(func() error {
		return bot.Run(gctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("stopped with error", zap.Error(err))
	}

	logger.Info("invest-bot stopped")
}

func buildMemoryStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (memory.Store, func(), error) {
	db, err := pgmemory.New(ctx, cfg.Database.URL)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("connected to postgres")
	return pgmemory.NewStore(db), db.Close, nil
}

func buildLLMClient(cfg *config.Config, logger *zap.Logger) (llm.Client, error) {
	switch cfg.LLM.Provider {
	case "openrouter":
		return openrouter.New(openrouter.Config{
			APIKey:  cfg.LLM.OpenRouter.APIKey,
			Model:   cfg.LLM.OpenRouter.Model,
			BaseURL: cfg.LLM.OpenRouter.BaseURL,
		}, logger), nil
	case "mock":
		logger.Warn("using mock llm client, set LLM_PROVIDER=openrouter for real analysis")
		return llmmock.New(), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %q", cfg.LLM.Provider)
	}
}

func buildInvoker(cfg *config.Config, dataCache cache.Cache, m *metrics.Metrics, logger *zap.Logger) *invoker.Invoker {
	toolLimiter := ratelimit.New(ratelimit.Config{
		RequestsPerMinute: cfg.RateLimit.ToolPerMinute,
	})

	inv := invoker.New(invoker.Config{
		MaxAttempts: cfg.Invoker.MaxAttempts,
		BaseDelay:   cfg.Invoker.BaseDelay,
	}, toolLimiter, m, logger)

	ttl := cfg.Cache.TTL

	inv.Register(tools.NewQuotesClient(tools.QuotesConfig{
		BaseURL: cfg.Tools.QuotesBaseURL,
		Timeout: cfg.Tools.Timeout,
	}, dataCache, ttl, logger))

	inv.Register(tools.NewNewsClient(tools.NewsConfig{
		APIKey:  cfg.Tools.NewsAPIKey,
		BaseURL: cfg.Tools.NewsBaseURL,
		Timeout: cfg.Tools.Timeout,
	}, dataCache, ttl, logger))

	inv.Register(tools.NewEdgarClient(tools.EdgarConfig{
		BaseURL:   cfg.Tools.EdgarBaseURL,
		UserAgent: cfg.Tools.EdgarUserAgent,
		Timeout:   cfg.Tools.Timeout,
	}, dataCache, ttl, logger))

	inv.Register(tools.NewFredClient(tools.FredConfig{
		APIKey:  cfg.Tools.FredAPIKey,
		BaseURL: cfg.Tools.FredBaseURL,
		Timeout: cfg.Tools.Timeout,
	}, dataCache, ttl, logger))

	logger.Info("tools registered", zap.Strings("tools", inv.Tools()))
	return inv
}

func serveMetrics(ctx context.Context, addr string, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics server listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}
