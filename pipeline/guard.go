package pipeline

import (
	"context"
	"errors"

	"github.com/SaiNageswarS/analytics-agent/state"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"go.uber.org/zap"
)

// Decision is a guard's verdict. When Skip is set the stage does not run and
// Value is written to its output key instead.
type Decision struct {
	Skip  bool
	Value string
}

func Continue() Decision { return Decision{} }

func Skip(value string) Decision { return Decision{Skip: true, Value: value} }

// Guard is consulted before a stage runs. Guards only read state.
type Guard interface {
	Evaluate(ctx context.Context, st *state.Store) Decision
}

type GuardFunc func(ctx context.Context, st *state.Store) Decision

func (f GuardFunc) Evaluate(ctx context.Context, st *state.Store) Decision {
	return f(ctx, st)
}

// RelevanceGate skips its stage when query_key_params marks the question as
// out of scope. Anything it cannot read conclusively lets the stage run.
type RelevanceGate struct {
	SkipValue string
}

func (g RelevanceGate) Evaluate(ctx context.Context, st *state.Store) Decision {
	if st == nil {
		logger.Error("Relevance gate has no state; continuing")
		return Continue()
	}

	params, err := st.QueryParams()
	if errors.Is(err, state.ErrKeyMissing) {
		logger.Error("query_key_params not found in state; continuing", zap.Error(err))
		return Continue()
	}
	if err != nil {
		logger.Error("Failed to parse query_key_params; continuing", zap.Error(err))
		return Continue()
	}

	if !params.HasRelevance() {
		logger.Info("query_key_params has no relevance field; continuing")
		return Continue()
	}

	if params.IsIrrelevant() {
		logger.Info("Query marked irrelevant; skipping stage", zap.String("user_query", params.UserQuery))
		return Skip(g.SkipValue)
	}

	return Continue()
}
