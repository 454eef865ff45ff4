package engine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/pgplan/internal/logging"
	"github.com/vvka-141/pgplan/internal/target/memory"
	"github.com/vvka-141/pgplan/internal/testing/fixtures"
	"github.com/vvka-141/pgplan/pkg/engine"
	"github.com/vvka-141/pgplan/pkg/pgplan"
)

func TestEngine_PlanDeployValidate(t *testing.T) {
	ctx := context.Background()
	defs := fixtures.Budgeting()

	plan, err := engine.Plan(defs)
	require.NoError(t, err)
	assert.Equal(t, []string{"families", "accounts", "transactions", "goals"}, plan.ObjectOrder())

	target := memory.New()
	report, err := engine.Deploy(ctx, plan, target, engine.DeployOptions{})
	require.NoError(t, err)
	assert.Equal(t, pgplan.StatusSuccess, report.Status)

	cat, err := engine.Catalog(defs)
	require.NoError(t, err)

	findings, err := engine.Validate(ctx, cat, target)
	require.NoError(t, err)
	assert.True(t, findings.Passed())

	edge := plan.Deferred()[0]
	target.DropConstraint(edge)

	findings, err = engine.Validate(ctx, cat, target)
	require.NoError(t, err)
	require.Len(t, findings.Findings, 1)
	assert.Equal(t, pgplan.FindingMissingConstraint, findings.Findings[0].Kind)
}

func TestEngine_StructuralCycleNeverTouchesTarget(t *testing.T) {
	_, err := engine.Plan(fixtures.StructuralCycle())

	var cycleErr *pgplan.UnresolvableCycleError
	require.True(t, errors.As(err, &cycleErr), "got %v", err)
	assert.Equal(t, []string{"A", "B"}, cycleErr.Cycle)
}

func TestEngine_OnStepAndFailFast(t *testing.T) {
	plan, err := engine.Plan(fixtures.Chain(7))
	require.NoError(t, err)

	target := memory.New()
	target.FailOn("t4", errors.New(`relation "t3" does not exist`))

	var seen []pgplan.StepResult
	e := engine.New(logging.NewNullLogger())
	report, err := e.Deploy(context.Background(), plan, target, engine.DeployOptions{
		OnStep: func(r pgplan.StepResult) { seen = append(seen, r) },
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, pgplan.ErrStepFailed)
	require.Len(t, seen, 4)
	assert.Equal(t, pgplan.OutcomeFailed, seen[3].Outcome)
	assert.Contains(t, seen[3].Error, `relation "t3" does not exist`)

	for i, res := range report.Results {
		switch {
		case i < 3:
			assert.Equal(t, pgplan.OutcomeSuccess, res.Outcome)
		case i == 3:
			assert.Equal(t, pgplan.OutcomeFailed, res.Outcome)
		default:
			assert.Equal(t, pgplan.OutcomeNotAttempted, res.Outcome)
		}
	}
}

func TestEngine_DryRun(t *testing.T) {
	plan, err := engine.Plan(fixtures.Budgeting())
	require.NoError(t, err)

	report, err := engine.Deploy(context.Background(), plan, nil, engine.DeployOptions{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, pgplan.StatusDryRun, report.Status)
	assert.Empty(t, report.Applied())
}
