// Package pipeline runs an ordered sequence of named steps with
// per-step logging and events. The session controller uses it to
// drive the finalize → enhance → persist sequence after recording
// stops.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// StepID uniquely identifies a step within a run.
type StepID string

// Data holds the shared values flowing between steps of one run.
type Data map[string]interface{}

// Step is a single unit of work in a run.
type Step interface {
	ID() StepID
	Execute(ctx context.Context, data Data) error
}

// StepFunc adapts a function to the Step interface.
type StepFunc struct {
	StepID StepID
	Fn     func(ctx context.Context, data Data) error
}

func (s StepFunc) ID() StepID                                  { return s.StepID }
func (s StepFunc) Execute(ctx context.Context, data Data) error { return s.Fn(ctx, data) }

// Event types emitted around each step.
const (
	EventRunStarted    = "run_started"
	EventRunCompleted  = "run_completed"
	EventRunFailed     = "run_failed"
	EventStepStarted   = "step_started"
	EventStepCompleted = "step_completed"
	EventStepFailed    = "step_failed"
)

// Event describes one lifecycle moment of a run.
type Event struct {
	Run       string    `json:"run"`
	StepID    StepID    `json:"step_id,omitempty"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Err       string    `json:"error,omitempty"`
}

// Runner executes step sequences.
type Runner struct {
	logger   *zap.Logger
	observer func(Event)
}

// NewRunner creates a runner. The observer may be nil.
func NewRunner(logger *zap.Logger, observer func(Event)) *Runner {
	return &Runner{logger: logger, observer: observer}
}

// Run executes the steps in order, stopping at the first failure. The
// returned error names the failing step and wraps its cause.
func (r *Runner) Run(ctx context.Context, name string, steps []Step, data Data) error {
	r.emit(Event{Run: name, Type: EventRunStarted, Timestamp: time.Now()})

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			r.emit(Event{Run: name, StepID: step.ID(), Type: EventRunFailed, Timestamp: time.Now(), Err: err.Error()})
			return fmt.Errorf("run %s cancelled before step %s: %w", name, step.ID(), err)
		}

		r.emit(Event{Run: name, StepID: step.ID(), Type: EventStepStarted, Timestamp: time.Now()})
		start := time.Now()

		if err := step.Execute(ctx, data); err != nil {
			r.logger.Error("pipeline step failed",
				zap.String("run", name),
				zap.String("step", string(step.ID())),
				zap.Duration("elapsed", time.Since(start)),
				zap.Error(err))
			r.emit(Event{Run: name, StepID: step.ID(), Type: EventStepFailed, Timestamp: time.Now(), Err: err.Error()})
			r.emit(Event{Run: name, Type: EventRunFailed, Timestamp: time.Now(), Err: err.Error()})
			return fmt.Errorf("step %s: %w", step.ID(), err)
		}

		r.logger.Info("pipeline step completed",
			zap.String("run", name),
			zap.String("step", string(step.ID())),
			zap.Duration("elapsed", time.Since(start)))
		r.emit(Event{Run: name, StepID: step.ID(), Type: EventStepCompleted, Timestamp: time.Now()})
	}

	r.emit(Event{Run: name, Type: EventRunCompleted, Timestamp: time.Now()})
	return nil
}

func (r *Runner) emit(ev Event) {
	if r.observer != nil {
		r.observer(ev)
	}
}
