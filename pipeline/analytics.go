package pipeline

import (
	"time"

	"github.com/SaiNageswarS/analytics-agent/agentboot"
	"github.com/SaiNageswarS/analytics-agent/llm"
	"github.com/SaiNageswarS/analytics-agent/prompts"
	"github.com/SaiNageswarS/analytics-agent/schema"
	"github.com/SaiNageswarS/analytics-agent/state"
)

const (
	MasterAgentName       = "master_agent"
	QueryInputStage       = "query_input_agent"
	ContentRetrieverStage = "content_retriever_agent"
	DataChartStage        = "data_chart_agent"
	QueryResponseStage    = "query_response_agent"
)

// AnalyticsConfig supplies the models and tools of the four analytics stages.
type AnalyticsConfig struct {
	// Name defaults to MasterAgentName.
	Name string

	QueryModel     llm.LLMClient
	RetrieverModel llm.LLMClient
	ChartModel     llm.LLMClient
	ResponseModel  llm.LLMClient
	MiniModel      llm.LLMClient

	SearchTool  agentboot.MCPTool
	FinanceTool agentboot.MCPTool

	MaxTurns    int
	MaxTokens   int
	ToolTimeout time.Duration
}

// NewAnalyticsPipeline builds query parsing, web retrieval, chart generation
// and response writing as one sequential pipeline. Retrieval and charting are
// gated on the query's relevance.
func NewAnalyticsPipeline(cfg AnalyticsConfig) *Sequential {
	agent := func(name, instruction string, model llm.LLMClient, tools ...agentboot.MCPTool) *agentboot.Agent {
		b := agentboot.NewAgentBuilder(name).
			WithBigModel(model).
			WithMiniModel(cfg.MiniModel).
			WithInstruction(instruction).
			WithMaxTurns(cfg.MaxTurns).
			WithMaxTokens(cfg.MaxTokens).
			WithToolTimeout(cfg.ToolTimeout)
		for _, t := range tools {
			if t.Function.Name != "" {
				b.AddTool(t)
			}
		}
		return b.Build()
	}

	queryInput := NewStage(QueryInputStage, state.KeyQueryParams,
		agent(QueryInputStage, prompts.QueryInputInstruction, cfg.QueryModel))

	retriever := NewStage(ContentRetrieverStage, state.KeyRetrievedContent,
		agent(ContentRetrieverStage, prompts.ContentRetrieverInstruction, cfg.RetrieverModel, cfg.SearchTool),
		WithGuard(RelevanceGate{SkipValue: ""}))

	chart := NewStage(DataChartStage, state.KeyChartObjects,
		agent(DataChartStage, prompts.DataChartInstruction, cfg.ChartModel, cfg.FinanceTool),
		WithGuard(RelevanceGate{SkipValue: schema.EmptyChartPayload}),
		WithFailureValue(schema.EmptyChartPayload))

	response := NewStage(QueryResponseStage, state.KeyQueryResponse,
		agent(QueryResponseStage, prompts.QueryResponseInstruction, cfg.ResponseModel),
		WithFailureValue(FallbackAnswer))

	name := cfg.Name
	if name == "" {
		name = MasterAgentName
	}
	return NewSequential(name, queryInput, retriever, chart, response)
}
