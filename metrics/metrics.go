// Package metrics registers Prometheus instruments for pipeline runs, stage
// outcomes, model requests and tool calls.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Stage outcomes.
const (
	OutcomeRan     = "ran"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// Tool call statuses.
const (
	ToolSuccess = "success"
	ToolFailure = "failure"
	ToolTimeout = "timeout"
)

var (
	pipelineRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_runs_total",
			Help: "Total number of pipeline runs by final status",
		},
		[]string{"pipeline", "status"},
	)
	stageOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_stage_outcomes_total",
			Help: "Total number of stage executions by outcome",
		},
		[]string{"stage", "outcome"},
	)
	stageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipeline_stage_duration_seconds",
			Help:    "Duration of stage executions",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"stage"},
	)
	toolCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_tool_calls_total",
			Help: "Total number of tool invocations by status",
		},
		[]string{"tool", "status"},
	)
	llmRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_requests_total",
			Help: "Total number of model requests by provider, model and status",
		},
		[]string{"provider", "model", "status"},
	)
	llmRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_request_duration_seconds",
			Help:    "Latency of model requests",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"provider", "model"},
	)
	activeSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sessions_active",
			Help: "Number of live sessions held in memory",
		},
	)
)

func init() {
	prometheus.MustRegister(pipelineRunsTotal)
	prometheus.MustRegister(stageOutcomesTotal)
	prometheus.MustRegister(stageDuration)
	prometheus.MustRegister(toolCallsTotal)
	prometheus.MustRegister(llmRequestsTotal)
	prometheus.MustRegister(llmRequestDuration)
	prometheus.MustRegister(activeSessions)
}

func RecordPipelineRun(pipeline, status string) {
	pipelineRunsTotal.WithLabelValues(pipeline, status).Inc()
}

func RecordStage(stage, outcome string, seconds float64) {
	stageOutcomesTotal.WithLabelValues(stage, outcome).Inc()
	stageDuration.WithLabelValues(stage).Observe(seconds)
}

func RecordToolCall(tool, status string) {
	toolCallsTotal.WithLabelValues(tool, status).Inc()
}

// RecordLLMRequest counts one model request; err decides the status label.
func RecordLLMRequest(provider, model string, seconds float64, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	llmRequestsTotal.WithLabelValues(provider, model, status).Inc()
	llmRequestDuration.WithLabelValues(provider, model).Observe(seconds)
}

func SetActiveSessions(n int) {
	activeSessions.Set(float64(n))
}
