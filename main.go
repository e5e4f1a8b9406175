package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/SaiNageswarS/analytics-agent/appconfig"
	"github.com/SaiNageswarS/analytics-agent/llm"
	"github.com/SaiNageswarS/analytics-agent/pipeline"
	"github.com/SaiNageswarS/analytics-agent/services"
	"github.com/SaiNageswarS/analytics-agent/session"
	"github.com/SaiNageswarS/analytics-agent/tools"
	"github.com/SaiNageswarS/go-api-boot/dotenv"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/go-api-boot/server"
	"go.uber.org/zap"
)

func main() {
	dotenv.LoadEnv()

	// load config file
	cfg, err := appconfig.Load("config.ini")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	creds, err := cfg.LoadCredentials(os.Getenv)
	if err != nil {
		logger.Fatal("Invalid credentials", zap.String("provider", cfg.LLMProvider), zap.Error(err))
	}

	ctx := getCancellableContext()

	newModel := func(model string) llm.LLMClient {
		client, err := provideLLMClient(cfg.LLMProvider, model, creds)
		if err != nil {
			logger.Fatal("Failed to create LLM client", zap.String("model", model), zap.Error(err))
		}
		return client
	}

	if cfg.SearchEngineID == "" {
		logger.Error("search_engine_id is not set; web search will return no results")
	}
	searchProvider, err := tools.NewGoogleSearchProvider(ctx, creds.SearchAPIKey, cfg.SearchEngineID)
	if err != nil {
		logger.Fatal("Failed to create search provider", zap.Error(err))
	}

	financeLookup := tools.NewFinancialLookup(tools.NewYahooProvider(nil), cfg.FinanceCacheTTL())

	analytics := pipeline.NewAnalyticsPipeline(pipeline.AnalyticsConfig{
		Name:           cfg.AppName,
		QueryModel:     newModel(cfg.QueryModel),
		RetrieverModel: newModel(cfg.RetrieverModel),
		ChartModel:     newModel(cfg.ChartModel),
		ResponseModel:  newModel(cfg.ResponseModel),
		MiniModel:      newModel(cfg.MiniModel),
		SearchTool:     tools.NewSearchTool(searchProvider, cfg.SearchResults),
		FinanceTool:    tools.NewFinanceTool(financeLookup),
		MaxTurns:       cfg.MaxTurns,
		MaxTokens:      cfg.MaxTokens,
		ToolTimeout:    cfg.ToolTimeout(),
	})

	sessions := session.NewManager(cfg.SessionTTL(), cfg.MaxSessionMessages)
	router := services.NewRouter(services.ProvideSessionService(sessions, analytics))

	builder := server.New().
		GRPCPort(cfg.GRPCPort).
		HTTPPort(cfg.HTTPPort).
		Provide(cfg)
	for _, pattern := range services.RoutePatterns {
		builder = builder.Handle(pattern, router.ServeHTTP)
	}

	boot, err := builder.Build()
	if err != nil {
		logger.Fatal("Dependency Injection Failed", zap.Error(err))
	}

	logger.Info("Starting analytics agent",
		zap.String("app", analytics.Name()),
		zap.String("http", cfg.HTTPPort),
		zap.String("provider", cfg.LLMProvider))

	if err := boot.Serve(ctx); err != nil {
		logger.Error("Server stopped", zap.Error(err))
	}
}

func provideLLMClient(provider, model string, creds appconfig.Credentials) (llm.LLMClient, error) {
	switch provider {
	case appconfig.ProviderGemini:
		return llm.NewGeminiClient(creds.GoogleAPIKey, model)
	case appconfig.ProviderGroq:
		return llm.NewGroqClient(creds.GroqAPIKey, model)
	case appconfig.ProviderOllama:
		return llm.NewOllamaClient(model)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", provider)
	}
}

func getCancellableContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sig
		cancel()
	}()

	return ctx
}
