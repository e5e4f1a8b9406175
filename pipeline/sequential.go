package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/SaiNageswarS/analytics-agent/agentboot"
	"github.com/SaiNageswarS/analytics-agent/metrics"
	"github.com/SaiNageswarS/analytics-agent/state"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"go.uber.org/zap"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusAborted   Status = "aborted"
)

// StageOutcome records what happened to one stage during a run.
type StageOutcome struct {
	Stage     string        `json:"stage"`
	OutputKey string        `json:"outputKey"`
	Outcome   string        `json:"outcome"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// Sequential runs a fixed list of stages in order against one invocation's
// state. It holds no per-run state and may be shared between sessions.
type Sequential struct {
	name   string
	stages []Stage
}

func NewSequential(name string, stages ...Stage) *Sequential {
	return &Sequential{name: name, stages: stages}
}

func (p *Sequential) Name() string { return p.name }

func (p *Sequential) Stages() []Stage { return p.stages }

// Run executes every stage. Stage failures are written as the stage's failure
// value and the run continues. Cancellation is checked between stages; a
// cancelled run reports StatusAborted with the partial result and ctx.Err().
func (p *Sequential) Run(ctx context.Context, inv *agentboot.Invocation, reporter agentboot.ProgressReporter) (*Result, error) {
	if reporter == nil {
		reporter = &agentboot.NoOpProgressReporter{}
	}
	if inv.State == nil {
		inv.State = state.NewInitial()
	}

	status := StatusPending
	outcomes := make([]StageOutcome, 0, len(p.stages))

	for i, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			status = StatusAborted
			logger.Info("Pipeline cancelled before stage",
				zap.String("pipeline", p.name),
				zap.String("stage", stage.Name()),
				zap.String("invocation_id", inv.ID),
				zap.Error(err))
			metrics.RecordPipelineRun(p.name, string(status))
			agentboot.WithAuthor(reporter, p.name, inv.ID).Send(agentboot.NewStreamError(err.Error(), "cancelled"))

			result := AssembleResult(inv.State)
			result.Status = status
			result.StageOutcomes = outcomes
			return result, err
		}

		status = StatusRunning
		logger.Info("Running stage",
			zap.String("pipeline", p.name),
			zap.Int("index", i),
			zap.String("stage", stage.Name()),
			zap.String("invocation_id", inv.ID))

		outcomes = append(outcomes, p.runStage(ctx, stage, inv, agentboot.WithAuthor(reporter, stage.Name(), inv.ID)))
	}

	status = StatusCompleted
	metrics.RecordPipelineRun(p.name, string(status))

	result := AssembleResult(inv.State)
	result.Status = status
	result.StageOutcomes = outcomes

	agentboot.WithAuthor(reporter, p.name, inv.ID).Send(agentboot.NewStreamComplete(result.Answer))
	return result, nil
}

func (p *Sequential) runStage(ctx context.Context, stage Stage, inv *agentboot.Invocation, reporter agentboot.ProgressReporter) StageOutcome {
	start := time.Now()

	value, outcome, err := execute(ctx, stage, inv, reporter)
	inv.State.Set(stage.OutputKey(), value)

	elapsed := time.Since(start)
	metrics.RecordStage(stage.Name(), outcome, elapsed.Seconds())
	reporter.Send(agentboot.NewAnswer(stage.OutputKey(), value, outcome == metrics.OutcomeSkipped))

	result := StageOutcome{
		Stage:     stage.Name(),
		OutputKey: stage.OutputKey(),
		Outcome:   outcome,
		Duration:  elapsed,
	}
	if err != nil {
		result.Error = err.Error()
	}
	return result
}

// execute consults the guard and runs the stage, converting errors and panics
// into the stage's failure value.
func execute(ctx context.Context, stage Stage, inv *agentboot.Invocation, reporter agentboot.ProgressReporter) (value, outcome string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("stage %s panicked: %v", stage.Name(), r)
			value, outcome = stage.FailureValue(err), metrics.OutcomeFailed
			logger.Error("Stage panicked", zap.String("stage", stage.Name()), zap.Any("panic", r))
			reporter.Send(agentboot.NewStreamError(err.Error(), "stage_failed"))
		}
	}()

	if guard := stage.Guard(); guard != nil {
		if decision := guard.Evaluate(ctx, inv.State); decision.Skip {
			logger.Info("Stage skipped by guard", zap.String("stage", stage.Name()))
			return decision.Value, metrics.OutcomeSkipped, nil
		}
	}

	value, err = stage.Run(ctx, inv, reporter)
	if err != nil {
		logger.Error("Stage failed", zap.String("stage", stage.Name()), zap.Error(err))
		reporter.Send(agentboot.NewStreamError(err.Error(), "stage_failed"))
		return stage.FailureValue(err), metrics.OutcomeFailed, err
	}

	return value, metrics.OutcomeRan, nil
}
