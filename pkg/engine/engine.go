// Package engine is the embeddable entry point to pgplan: plan definitions,
// apply a plan to a pgplan.Target, and validate a target against the
// declared catalog.
//
//	plan, err := engine.Plan(defs)
//	if err != nil {
//	    return err // planning errors never touch the database
//	}
//	report, err := engine.Deploy(ctx, plan, target, engine.DeployOptions{})
package engine

import (
	"context"

	"github.com/vvka-141/pgplan/internal/catalog"
	"github.com/vvka-141/pgplan/internal/executor"
	"github.com/vvka-141/pgplan/internal/logging"
	"github.com/vvka-141/pgplan/internal/planner"
	"github.com/vvka-141/pgplan/internal/validator"
	"github.com/vvka-141/pgplan/pkg/pgplan"
)

// DeployOptions control a single Deploy call.
type DeployOptions struct {
	// DryRun checks the plan and reports what would run without calling target.
	DryRun bool

	// OnStep, when set, is called after every attempted step.
	OnStep func(result pgplan.StepResult)
}

// Engine carries the logger shared by its operations. The zero value is not
// usable; call New.
type Engine struct {
	logger pgplan.Logger
}

// New returns an Engine logging to logger. A nil logger discards output.
func New(logger pgplan.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &Engine{logger: logger}
}

// Catalog validates defs and indexes them by name.
func (e *Engine) Catalog(defs []pgplan.Definition) (pgplan.Catalog, error) {
	return catalog.Load(defs)
}

// Plan resolves defs into an ordered, cycle-free plan.
func (e *Engine) Plan(defs []pgplan.Definition) (*pgplan.Plan, error) {
	plan, _, err := planner.New(e.logger).Plan(defs)
	return plan, err
}

// Deploy applies plan to target in order and stops at the first failure.
// The report is returned with the error when any step ran.
func (e *Engine) Deploy(ctx context.Context, plan *pgplan.Plan, target pgplan.Target, opts DeployOptions) (*pgplan.ExecutionReport, error) {
	var execOpts []executor.Option
	if opts.OnStep != nil {
		execOpts = append(execOpts, executor.WithObserver(stepObserver(opts.OnStep)))
	}
	return executor.New(e.logger, execOpts...).Execute(ctx, plan, target, executor.Options{DryRun: opts.DryRun})
}

// Validate reports the objects and constraints of cat missing from target.
// Findings are data, not errors.
func (e *Engine) Validate(ctx context.Context, cat pgplan.Catalog, target pgplan.Target) (*pgplan.ValidationReport, error) {
	return validator.New(e.logger).Validate(ctx, cat, target)
}

func stepObserver(onStep func(pgplan.StepResult)) executor.Observer {
	return executor.ObserverFunc(func(ev executor.Event) {
		if ev.Kind != executor.EventStepFinished {
			return
		}
		res := pgplan.StepResult{Index: ev.Index, Step: ev.Step, Outcome: ev.Outcome, Duration: ev.Elapsed}
		if ev.Err != nil {
			res.Error = ev.Err.Error()
		}
		onStep(res)
	})
}

var defaultEngine = New(nil)

// Plan is New(nil).Plan.
func Plan(defs []pgplan.Definition) (*pgplan.Plan, error) {
	return defaultEngine.Plan(defs)
}

// Deploy is New(nil).Deploy.
func Deploy(ctx context.Context, plan *pgplan.Plan, target pgplan.Target, opts DeployOptions) (*pgplan.ExecutionReport, error) {
	return defaultEngine.Deploy(ctx, plan, target, opts)
}

// Validate is New(nil).Validate.
func Validate(ctx context.Context, cat pgplan.Catalog, target pgplan.Target) (*pgplan.ValidationReport, error) {
	return defaultEngine.Validate(ctx, cat, target)
}

// Catalog is New(nil).Catalog.
func Catalog(defs []pgplan.Definition) (pgplan.Catalog, error) {
	return defaultEngine.Catalog(defs)
}
