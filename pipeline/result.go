package pipeline

import (
	"strings"

	"github.com/SaiNageswarS/analytics-agent/schema"
	"github.com/SaiNageswarS/analytics-agent/state"
)

// FallbackAnswer is returned when the response stage left nothing to show.
const FallbackAnswer = "Sorry, I could not produce an answer to this question right now. Please try again."

// Result is what a run hands back to the caller.
type Result struct {
	Status        Status                 `json:"status"`
	Answer        string                 `json:"answer"`
	Charts        []schema.ChartSpec     `json:"charts,omitempty"`
	QueryParams   *schema.QueryKeyParams `json:"queryParams,omitempty"`
	StageOutcomes []StageOutcome         `json:"stageOutcomes,omitempty"`
}

// AssembleResult reads the final answer and charts out of st. Chart or query
// parameter payloads that cannot be decoded are left out.
func AssembleResult(st *state.Store) *Result {
	result := &Result{Status: StatusCompleted, Answer: FallbackAnswer}
	if st == nil {
		return result
	}

	if answer := strings.TrimSpace(st.QueryResponse()); answer != "" {
		result.Answer = answer
	}
	result.Charts = st.Charts()

	if params, err := st.QueryParams(); err == nil {
		result.QueryParams = params
	}

	return result
}
