package appconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/SaiNageswarS/go-api-boot/config"
)

var ErrMissingAPIKey = errors.New("missing API key")

const (
	ProviderGemini = "gemini"
	ProviderGroq   = "groq"
	ProviderOllama = "ollama"

	googleAPIKeyPlaceholder = "YOUR_GOOGLE_API_KEY"
)

type AppConfig struct {
	config.BootConfig `ini:",extends"`

	AppName  string `ini:"app_name"`
	HTTPPort string `ini:"http_port"`
	GRPCPort string `ini:"grpc_port"`

	LLMProvider    string `ini:"llm_provider"`
	QueryModel     string `ini:"query_model"`
	RetrieverModel string `ini:"retriever_model"`
	ChartModel     string `ini:"chart_model"`
	ResponseModel  string `ini:"response_model"`
	MiniModel      string `ini:"mini_model"`

	MaxTurns           int `ini:"max_turns"`
	MaxTokens          int `ini:"max_tokens"`
	ToolTimeoutSeconds int `ini:"tool_timeout_seconds"`

	SessionTTLMinutes   int `ini:"session_ttl_minutes"`
	MaxSessionMessages  int `ini:"max_session_messages"`
	FinanceCacheMinutes int `ini:"finance_cache_minutes"`

	SearchEngineID string `ini:"search_engine_id"`
	SearchResults  int    `ini:"search_results"`
}

// Credentials are read from the environment once at startup.
type Credentials struct {
	GoogleAPIKey string
	GroqAPIKey   string
	SearchAPIKey string
}

func Load(path string) (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := config.LoadConfig(path, cfg); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

func (c *AppConfig) ApplyDefaults() {
	c.AppName = orDefault(c.AppName, "master_agent")
	c.HTTPPort = orDefault(c.HTTPPort, ":8000")
	c.GRPCPort = orDefault(c.GRPCPort, ":50051")
	c.LLMProvider = strings.ToLower(orDefault(c.LLMProvider, ProviderGemini))
	c.QueryModel = orDefault(c.QueryModel, "gemini-2.0-flash")
	c.RetrieverModel = orDefault(c.RetrieverModel, c.QueryModel)
	c.ChartModel = orDefault(c.ChartModel, c.QueryModel)
	c.ResponseModel = orDefault(c.ResponseModel, c.QueryModel)
	c.MiniModel = orDefault(c.MiniModel, c.QueryModel)

	c.MaxTurns = positive(c.MaxTurns, 5)
	c.MaxTokens = positive(c.MaxTokens, 4096)
	c.ToolTimeoutSeconds = positive(c.ToolTimeoutSeconds, 30)
	c.SessionTTLMinutes = positive(c.SessionTTLMinutes, 60)
	c.MaxSessionMessages = positive(c.MaxSessionMessages, 10)
	c.FinanceCacheMinutes = positive(c.FinanceCacheMinutes, 15)
	c.SearchResults = positive(c.SearchResults, 5)
}

func (c *AppConfig) ToolTimeout() time.Duration {
	return time.Duration(c.ToolTimeoutSeconds) * time.Second
}

func (c *AppConfig) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

func (c *AppConfig) FinanceCacheTTL() time.Duration {
	return time.Duration(c.FinanceCacheMinutes) * time.Minute
}

// LoadCredentials reads API keys through getenv and checks the one the
// configured provider needs. The Google key placeholder counts as unset.
func (c *AppConfig) LoadCredentials(getenv func(string) string) (Credentials, error) {
	creds := Credentials{
		GoogleAPIKey: strings.TrimSpace(getenv("GOOGLE_API_KEY")),
		GroqAPIKey:   strings.TrimSpace(getenv("GROQ_API_KEY")),
		SearchAPIKey: strings.TrimSpace(getenv("GOOGLE_SEARCH_API_KEY")),
	}
	if creds.GoogleAPIKey == googleAPIKeyPlaceholder {
		creds.GoogleAPIKey = ""
	}
	if creds.SearchAPIKey == "" {
		creds.SearchAPIKey = creds.GoogleAPIKey
	}

	switch c.LLMProvider {
	case ProviderGemini:
		if creds.GoogleAPIKey == "" {
			return creds, fmt.Errorf("%w: GOOGLE_API_KEY is required for the gemini provider", ErrMissingAPIKey)
		}
	case ProviderGroq:
		if creds.GroqAPIKey == "" {
			return creds, fmt.Errorf("%w: GROQ_API_KEY is required for the groq provider", ErrMissingAPIKey)
		}
	case ProviderOllama:
	default:
		return creds, fmt.Errorf("unknown llm_provider %q", c.LLMProvider)
	}

	return creds, nil
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func positive(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
