package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vvka-141/pgplan/internal/planner"
	"github.com/vvka-141/pgplan/pkg/pgplan"
)

// Options controls a single execution.
type Options struct {
	// DryRun verifies the plan without calling the target.
	DryRun bool
}

// Executor applies plans step by step.
type Executor struct {
	logger    pgplan.Logger
	observers []Observer
	now       func() time.Time
	newRunID  func() uuid.UUID
}

// Option configures an Executor.
type Option func(*Executor)

// WithObserver registers an observer for progress events.
func WithObserver(o Observer) Option {
	return func(e *Executor) {
		if o != nil {
			e.observers = append(e.observers, o)
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) {
		if now != nil {
			e.now = now
		}
	}
}

// WithRunID fixes the run identifier instead of generating a random one.
func WithRunID(id uuid.UUID) Option {
	return func(e *Executor) {
		e.newRunID = func() uuid.UUID { return id }
	}
}

// New creates an Executor.
// Panics if logger is nil.
func New(logger pgplan.Logger, opts ...Option) *Executor {
	if logger == nil {
		panic("logger cannot be nil")
	}
	e := &Executor{
		logger:   logger,
		now:      time.Now,
		newRunID: uuid.New,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs plan against target and always returns a report describing
// what happened. The error is non-nil when the run did not apply every step:
//   - *pgplan.StepExecutionError when a step failed
//   - an error wrapping context.Canceled or context.DeadlineExceeded when the run was interrupted
//   - an error wrapping pgplan.ErrInvalidPlan when the plan fails verification
//
// In dry-run mode target may be nil; it is never called.
func (e *Executor) Execute(ctx context.Context, plan *pgplan.Plan, target pgplan.Target, opts Options) (*pgplan.ExecutionReport, error) {
	if plan == nil {
		return nil, fmt.Errorf("plan cannot be nil: %w", pgplan.ErrInvalidPlan)
	}

	steps := plan.Steps()
	report := &pgplan.ExecutionReport{
		RunID:     e.newRunID(),
		Plan:      plan,
		Results:   make([]pgplan.StepResult, len(steps)),
		StartedAt: e.now(),
	}
	for i, step := range steps {
		report.Results[i] = pgplan.StepResult{Index: i + 1, Step: step, Outcome: pgplan.OutcomeNotAttempted}
	}

	if err := planner.CheckInvariants(plan); err != nil {
		report.Status = pgplan.StatusFailed
		if opts.DryRun {
			report.Status = pgplan.StatusDryRun
		}
		report.Reason = fmt.Sprintf("plan verification failed: %v", err)
		e.finish(report)
		return report, fmt.Errorf("plan verification failed: %w", err)
	}

	if opts.DryRun {
		report.Status = pgplan.StatusDryRun
		report.Reason = fmt.Sprintf("plan is valid; %d step(s) would be applied, %d deferred constraint(s)",
			len(steps), len(plan.Deferred()))
		e.logger.Info("Dry run: %s", report.Reason)
		e.finish(report)
		return report, nil
	}

	if target == nil {
		return nil, fmt.Errorf("target cannot be nil for a real run: %w", pgplan.ErrInvalidConfig)
	}

	e.logger.Verbose("Run %s: executing %d step(s)", report.RunID, len(steps))

	for i, step := range steps {
		index := i + 1

		if err := ctx.Err(); err != nil {
			report.Status = pgplan.StatusCancelled
			report.Reason = err.Error()
			e.logger.Error("Deployment interrupted before step %d of %d: %v", index, len(steps), err)
			e.finish(report)
			return report, fmt.Errorf("deployment interrupted before step %d of %d: %w", index, len(steps), err)
		}

		e.emit(Event{Kind: EventStepStarted, RunID: report.RunID.String(), Index: index, Total: len(steps), Step: step})
		e.logger.Verbose("[%d/%d] %s", index, len(steps), step)

		start := e.now()
		stepCtx, stepCancel := stepContext(ctx)
		err := apply(stepCtx, target, step)
		stepCancel()
		elapsed := e.now().Sub(start)

		result := &report.Results[i]
		result.Duration = elapsed

		if err != nil {
			result.Outcome = pgplan.OutcomeFailed
			result.Error = err.Error()
			report.Status = pgplan.StatusFailed
			report.FailedIndex = index
			report.Reason = err.Error()

			e.emit(Event{Kind: EventStepFinished, RunID: report.RunID.String(), Index: index, Total: len(steps),
				Step: step, Outcome: pgplan.OutcomeFailed, Err: err, Elapsed: elapsed})
			e.logger.Error("Step %d of %d (%s) failed: %v", index, len(steps), step, err)
			e.finish(report)

			return report, &pgplan.StepExecutionError{Index: index, Total: len(steps), Step: step, Err: err}
		}

		result.Outcome = pgplan.OutcomeSuccess
		e.emit(Event{Kind: EventStepFinished, RunID: report.RunID.String(), Index: index, Total: len(steps),
			Step: step, Outcome: pgplan.OutcomeSuccess, Elapsed: elapsed})
	}

	report.Status = pgplan.StatusSuccess
	e.logger.Info("Deployment complete: %d step(s) applied", len(steps))
	e.finish(report)
	return report, nil
}

// stepContext detaches a step from cancellation so an interrupt lets the
// running statement finish, but keeps the run deadline so a hung statement is
// still bounded by the timeout.
func stepContext(ctx context.Context) (context.Context, context.CancelFunc) {
	detached := context.WithoutCancel(ctx)
	if deadline, ok := ctx.Deadline(); ok {
		return context.WithDeadline(detached, deadline)
	}
	return detached, func() {}
}

func apply(ctx context.Context, target pgplan.Target, step pgplan.Step) error {
	switch step.Kind() {
	case pgplan.StepCreateObject:
		return target.ApplyObjectDefinition(ctx, step.Object(), step.Inline())
	case pgplan.StepApplyDeferredConstraint:
		edge, _ := step.Edge()
		return target.ApplyConstraint(ctx, edge)
	default:
		return fmt.Errorf("unknown step kind %s", step.Kind())
	}
}

func (e *Executor) finish(report *pgplan.ExecutionReport) {
	report.FinishedAt = e.now()
	e.emit(Event{Kind: EventRunFinished, RunID: report.RunID.String(), Total: len(report.Results), Status: report.Status})
}

func (e *Executor) emit(ev Event) {
	for _, o := range e.observers {
		o.OnEvent(ev)
	}
}
