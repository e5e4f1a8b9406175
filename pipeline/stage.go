package pipeline

import (
	"context"

	"github.com/SaiNageswarS/analytics-agent/agentboot"
)

// Runner produces a stage's output. *agentboot.Agent satisfies it.
type Runner interface {
	Run(ctx context.Context, inv *agentboot.Invocation, reporter agentboot.ProgressReporter) (string, error)
}

type RunnerFunc func(ctx context.Context, inv *agentboot.Invocation, reporter agentboot.ProgressReporter) (string, error)

func (f RunnerFunc) Run(ctx context.Context, inv *agentboot.Invocation, reporter agentboot.ProgressReporter) (string, error) {
	return f(ctx, inv, reporter)
}

// Stage is one step of a pipeline. It is the only writer of OutputKey.
type Stage interface {
	Name() string
	OutputKey() string
	// Guard may be nil.
	Guard() Guard
	Run(ctx context.Context, inv *agentboot.Invocation, reporter agentboot.ProgressReporter) (string, error)
	// FailureValue is written to OutputKey when Run fails.
	FailureValue(err error) string
}

type StageOption func(*stage)

func WithGuard(g Guard) StageOption {
	return func(s *stage) { s.guard = g }
}

func WithFailureValue(value string) StageOption {
	return func(s *stage) { s.failureValue = value }
}

type stage struct {
	name         string
	outputKey    string
	runner       Runner
	guard        Guard
	failureValue string
}

func NewStage(name, outputKey string, runner Runner, opts ...StageOption) Stage {
	s := &stage{name: name, outputKey: outputKey, runner: runner}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *stage) Name() string      { return s.name }
func (s *stage) OutputKey() string { return s.outputKey }
func (s *stage) Guard() Guard      { return s.guard }

func (s *stage) Run(ctx context.Context, inv *agentboot.Invocation, reporter agentboot.ProgressReporter) (string, error) {
	return s.runner.Run(ctx, inv, reporter)
}

func (s *stage) FailureValue(error) string { return s.failureValue }
