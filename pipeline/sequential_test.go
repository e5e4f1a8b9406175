package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/SaiNageswarS/analytics-agent/agentboot"
	"github.com/SaiNageswarS/analytics-agent/metrics"
	"github.com/SaiNageswarS/analytics-agent/schema"
	"github.com/SaiNageswarS/analytics-agent/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingRunner returns a fixed output and counts its invocations.
type countingRunner struct {
	calls  int
	output string
	err    error
	seen   map[string]any
}

func (r *countingRunner) Run(ctx context.Context, inv *agentboot.Invocation, reporter agentboot.ProgressReporter) (string, error) {
	r.calls++
	r.seen = inv.State.Snapshot()
	return r.output, r.err
}

type fixture struct {
	query, retriever, chart, response *countingRunner
	pipeline                          *Sequential
}

func newFixture(queryOutput string) *fixture {
	f := &fixture{
		query:     &countingRunner{output: queryOutput},
		retriever: &countingRunner{output: "Reliance revenue rose 8% year on year."},
		chart:     &countingRunner{output: "```json\n{\"title\":{\"text\":\"Revenue\"},\"series\":[{\"type\":\"bar\",\"data\":[1,2]}]}\n```"},
		response:  &countingRunner{output: "Reliance grew revenue 8%."},
	}
	f.pipeline = NewSequential(MasterAgentName,
		NewStage(QueryInputStage, state.KeyQueryParams, f.query),
		NewStage(ContentRetrieverStage, state.KeyRetrievedContent, f.retriever, WithGuard(RelevanceGate{SkipValue: ""})),
		NewStage(DataChartStage, state.KeyChartObjects, f.chart,
			WithGuard(RelevanceGate{SkipValue: schema.EmptyChartPayload}),
			WithFailureValue(schema.EmptyChartPayload)),
		NewStage(QueryResponseStage, state.KeyQueryResponse, f.response, WithFailureValue(FallbackAnswer)),
	)
	return f
}

func newInvocation(msg string) *agentboot.Invocation {
	st := state.NewInitial()
	st.Set(state.KeyUserQuery, msg)
	return &agentboot.Invocation{ID: "inv-1", SessionID: "s1", Message: msg, State: st}
}

const (
	relevantParams   = "```json\n{\"user_query\":\"Reliance revenue\",\"relevance\":\"yes\",\"company\":\"RELIANCE.NS\"}\n```"
	irrelevantParams = "```json\n{\"user_query\":\"What is the live score of India vs England test match?\",\"relevance\":\"no\"}\n```"
)

func TestIrrelevantQuerySkipsRetrievalAndCharts(t *testing.T) {
	f := newFixture(irrelevantParams)
	f.response.output = "This question is outside this assistant's capabilities."
	inv := newInvocation("What is the live score of India vs England test match?")

	result, err := f.pipeline.Run(context.Background(), inv, nil)

	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, result.Status)
	assert.Equal(t, 0, f.retriever.calls)
	assert.Equal(t, 0, f.chart.calls)
	assert.Equal(t, 1, f.response.calls)

	assert.Equal(t, "", inv.State.RetrievedContent())
	assert.Equal(t, schema.EmptyChartPayload, inv.State.ChartObjects())
	assert.Empty(t, result.Charts)
	assert.Contains(t, result.Answer, "outside this assistant's capabilities")

	require.Len(t, result.StageOutcomes, 4)
	assert.Equal(t, metrics.OutcomeRan, result.StageOutcomes[0].Outcome)
	assert.Equal(t, metrics.OutcomeSkipped, result.StageOutcomes[1].Outcome)
	assert.Equal(t, metrics.OutcomeSkipped, result.StageOutcomes[2].Outcome)
	assert.Equal(t, metrics.OutcomeRan, result.StageOutcomes[3].Outcome)
}

func TestRelevantQueryRunsEveryStageInOrder(t *testing.T) {
	f := newFixture(relevantParams)
	inv := newInvocation("Reliance revenue")

	result, err := f.pipeline.Run(context.Background(), inv, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, f.retriever.calls)
	assert.Equal(t, 1, f.chart.calls)

	// each stage observes the writes of the stages before it
	assert.Equal(t, relevantParams, f.retriever.seen[state.KeyQueryParams])
	assert.Equal(t, f.retriever.output, f.chart.seen[state.KeyRetrievedContent])
	assert.Equal(t, f.chart.output, f.response.seen[state.KeyChartObjects])

	assert.Equal(t, "Reliance grew revenue 8%.", result.Answer)
	require.Len(t, result.Charts, 1)
	assert.Equal(t, "Revenue", result.Charts[0].Title())
	require.NotNil(t, result.QueryParams)
	assert.Equal(t, []string{"RELIANCE.NS"}, result.QueryParams.Facets["company"])
}

func TestStageFailureWritesFailureValueAndContinues(t *testing.T) {
	f := newFixture(relevantParams)
	f.chart.err = errors.New("finance provider unreachable")
	f.chart.output = "partial"
	reporter := &agentboot.CollectingReporter{}
	inv := newInvocation("Reliance revenue")

	result, err := f.pipeline.Run(context.Background(), inv, reporter)

	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, result.Status)
	assert.Equal(t, schema.EmptyChartPayload, inv.State.ChartObjects())
	assert.Equal(t, 1, f.response.calls)
	assert.Empty(t, result.Charts)
	assert.Equal(t, metrics.OutcomeFailed, result.StageOutcomes[2].Outcome)
	assert.Contains(t, result.StageOutcomes[2].Error, "unreachable")

	var sawError bool
	for _, e := range reporter.Events() {
		if e.Kind == schema.EventError && e.Author == DataChartStage {
			sawError = true
		}
	}
	assert.True(t, sawError)
}

func TestStagePanicIsRecovered(t *testing.T) {
	panicking := RunnerFunc(func(ctx context.Context, inv *agentboot.Invocation, reporter agentboot.ProgressReporter) (string, error) {
		panic("nil map write")
	})
	response := &countingRunner{output: "answer"}

	p := NewSequential("test",
		NewStage("retriever", state.KeyRetrievedContent, panicking),
		NewStage("response", state.KeyQueryResponse, response),
	)

	inv := newInvocation("q")
	result, err := p.Run(context.Background(), inv, nil)

	require.NoError(t, err)
	assert.Equal(t, "", inv.State.RetrievedContent())
	assert.Equal(t, "answer", result.Answer)
	assert.Equal(t, metrics.OutcomeFailed, result.StageOutcomes[0].Outcome)
	assert.Contains(t, result.StageOutcomes[0].Error, "panicked")
}

func TestResponseFailureFallsBackToPoliteAnswer(t *testing.T) {
	f := newFixture(relevantParams)
	f.response.err = errors.New("model overloaded")
	inv := newInvocation("Reliance revenue")

	result, err := f.pipeline.Run(context.Background(), inv, nil)

	require.NoError(t, err)
	assert.Equal(t, FallbackAnswer, inv.State.QueryResponse())
	assert.Equal(t, FallbackAnswer, result.Answer)
}

func TestMalformedChartDegradesToNoChart(t *testing.T) {
	f := newFixture(relevantParams)
	f.chart.output = "```json\n{\"title\": \"broken\n```"
	inv := newInvocation("Reliance revenue")

	result, err := f.pipeline.Run(context.Background(), inv, nil)

	require.NoError(t, err)
	assert.Nil(t, result.Charts)
	assert.Equal(t, "Reliance grew revenue 8%.", result.Answer)
}

func TestCancellationStopsAtNextStageBoundary(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := newFixture(relevantParams)
	cancelling := RunnerFunc(func(ctx context.Context, inv *agentboot.Invocation, reporter agentboot.ProgressReporter) (string, error) {
		cancel()
		return "retrieved before cancel", nil
	})
	p := NewSequential(MasterAgentName,
		NewStage(QueryInputStage, state.KeyQueryParams, f.query),
		NewStage(ContentRetrieverStage, state.KeyRetrievedContent, cancelling),
		NewStage(DataChartStage, state.KeyChartObjects, f.chart),
		NewStage(QueryResponseStage, state.KeyQueryResponse, f.response),
	)
	reporter := &agentboot.CollectingReporter{}
	inv := newInvocation("Reliance revenue")

	result, err := p.Run(ctx, inv, reporter)

	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)
	assert.Equal(t, StatusAborted, result.Status)
	assert.Equal(t, "retrieved before cancel", inv.State.RetrievedContent())
	assert.Equal(t, 0, f.chart.calls)
	assert.Equal(t, 0, f.response.calls)
	assert.Len(t, result.StageOutcomes, 2)

	events := reporter.Events()
	last := events[len(events)-1]
	assert.Equal(t, schema.EventError, last.Kind)
	assert.Equal(t, MasterAgentName, last.Author)
}

func TestRunEmitsStageEventsWithStateDelta(t *testing.T) {
	f := newFixture(irrelevantParams)
	reporter := &agentboot.CollectingReporter{}

	_, err := f.pipeline.Run(context.Background(), newInvocation("cricket"), reporter)
	require.NoError(t, err)

	var answers []*schema.Event
	for _, e := range reporter.Events() {
		if e.Kind == schema.EventAnswer {
			answers = append(answers, e)
		}
	}
	require.Len(t, answers, 4)
	assert.Equal(t, QueryInputStage, answers[0].Author)
	assert.Equal(t, "inv-1", answers[0].InvocationID)
	assert.Equal(t, DataChartStage, answers[2].Author)
	assert.True(t, answers[2].Actions.Skipped)
	assert.Equal(t, schema.EmptyChartPayload, answers[2].Actions.StateDelta[state.KeyChartObjects])

	events := reporter.Events()
	assert.Equal(t, schema.EventComplete, events[len(events)-1].Kind)
}

func TestRunWithoutStateUsesInitialState(t *testing.T) {
	p := NewSequential("single", NewStage("response", state.KeyQueryResponse, &countingRunner{output: "hi"}))
	inv := &agentboot.Invocation{Message: "hello"}

	result, err := p.Run(context.Background(), inv, nil)

	require.NoError(t, err)
	require.NotNil(t, inv.State)
	assert.Equal(t, "hi", result.Answer)
}
