package pgplan_test

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/pgplan/pkg/pgplan"
)

func TestDeploymentConfig_Validate(t *testing.T) {
	tests := []struct {
		name              string
		config            pgplan.DeploymentConfig
		requireConnection bool
		errorType         error
	}{
		{
			name:              "valid deploy config",
			config:            pgplan.DeploymentConfig{SourcePath: "./schema", ConnectionString: "postgresql://localhost/app"},
			requireConnection: true,
		},
		{
			name:   "dry run needs no connection",
			config: pgplan.DeploymentConfig{SourcePath: "./schema", DryRun: true},
		},
		{
			name:      "missing source path",
			config:    pgplan.DeploymentConfig{ConnectionString: "postgresql://localhost/app"},
			errorType: pgplan.ErrInvalidConfig,
		},
		{
			name:              "missing connection string",
			config:            pgplan.DeploymentConfig{SourcePath: "./schema"},
			requireConnection: true,
			errorType:         pgplan.ErrInvalidConfig,
		},
		{
			name:      "negative timeout",
			config:    pgplan.DeploymentConfig{SourcePath: "./schema", Timeout: -time.Second},
			errorType: pgplan.ErrInvalidConfig,
		},
		{
			name:      "bad auth method",
			config:    pgplan.DeploymentConfig{SourcePath: "./schema", AuthMethod: pgplan.AuthMethod(42)},
			errorType: pgplan.ErrUnsupportedAuthMethod,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate(tt.requireConnection)
			if tt.errorType == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.errorType)
		})
	}
}

func TestDependencyEdge_ConstraintName(t *testing.T) {
	tests := []struct {
		name string
		edge pgplan.DependencyEdge
		want string
	}{
		{"declared name wins", pgplan.DependencyEdge{From: "goals", To: "families",
			Constraint: pgplan.ConstraintSpec{Name: "fk_goal_family", Columns: []string{"family_id"}}}, "fk_goal_family"},
		{"postgres default", pgplan.DependencyEdge{From: "goals", To: "families",
			Constraint: pgplan.ConstraintSpec{Columns: []string{"family_id"}}}, "goals_family_id_fkey"},
		{"schema qualified source", pgplan.DependencyEdge{From: "billing.transactions", To: "billing.goals",
			Constraint: pgplan.ConstraintSpec{Columns: []string{"goal_id"}}}, "transactions_goal_id_fkey"},
		{"composite key", pgplan.DependencyEdge{From: "lines", To: "orders",
			Constraint: pgplan.ConstraintSpec{Columns: []string{"order_id", "tenant_id"}}}, "lines_order_id_tenant_id_fkey"},
		{"nothing declared", pgplan.DependencyEdge{From: "a", To: "b"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.edge.ConstraintName())
		})
	}
}

func TestDependencyEdge_ConstraintNameTruncated(t *testing.T) {
	edge := pgplan.DependencyEdge{
		From:       strings.Repeat("t", 40),
		To:         "b",
		Constraint: pgplan.ConstraintSpec{Columns: []string{strings.Repeat("c", 40)}},
	}
	assert.Len(t, edge.ConstraintName(), pgplan.MaxIdentifierLength)
}

func TestDependencyEdge_ConstraintNameKeepsRuneBoundary(t *testing.T) {
	edge := pgplan.DependencyEdge{
		From:       "aa" + strings.Repeat("é", 31),
		To:         "b",
		Constraint: pgplan.ConstraintSpec{Columns: []string{"col"}},
	}

	name := edge.ConstraintName()
	assert.True(t, utf8.ValidString(name), "name %q is not valid UTF-8", name)
	assert.LessOrEqual(t, len(name), pgplan.MaxIdentifierLength)
	assert.Equal(t, "aa"+strings.Repeat("é", 30), name)
}

func TestDependencyKind_ZeroValueIsReferential(t *testing.T) {
	var k pgplan.DependencyKind
	assert.Equal(t, pgplan.Referential, k)
	assert.Equal(t, "REFERENTIAL", k.String())
	assert.Equal(t, "STRUCTURAL", pgplan.Structural.String())
}

func TestParseObjectType(t *testing.T) {
	tests := []struct {
		in      string
		want    pgplan.ObjectType
		wantErr bool
	}{
		{"", pgplan.ObjectTable, false},
		{"TABLE", pgplan.ObjectTable, false},
		{"view", pgplan.ObjectView, false},
		{"materialized_view", pgplan.ObjectView, false},
		{"procedure", pgplan.ObjectFunction, false},
		{"type", pgplan.ObjectUserType, false},
		{"trigger", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := pgplan.ParseObjectType(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseAuthMethod(t *testing.T) {
	tests := []struct {
		in      string
		want    pgplan.AuthMethod
		wantErr bool
	}{
		{"", pgplan.AuthMethodStandard, false},
		{"aws", pgplan.AuthMethodAWSIAM, false},
		{"google-iam", pgplan.AuthMethodGoogleIAM, false},
		{"Azure", pgplan.AuthMethodAzureEntraID, false},
		{"cert", pgplan.AuthMethodCertificate, false},
		{"kerberos", pgplan.AuthMethodStandard, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := pgplan.ParseAuthMethod(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, pgplan.ErrUnsupportedAuthMethod)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlan_IsImmutable(t *testing.T) {
	obj := &pgplan.SchemaObject{Name: "families", Ordinal: 1}
	steps := []pgplan.Step{pgplan.CreateObject(obj, nil)}
	plan := pgplan.NewPlan(steps, nil, "abc")

	steps[0] = pgplan.ApplyDeferredConstraint(pgplan.DependencyEdge{From: "x", To: "y"})
	got := plan.Steps()
	got[0] = pgplan.ApplyDeferredConstraint(pgplan.DependencyEdge{From: "x", To: "y"})

	assert.Equal(t, pgplan.StepCreateObject, plan.Steps()[0].Kind())
	assert.Equal(t, []string{"families"}, plan.ObjectOrder())
	assert.Equal(t, "abc", plan.Fingerprint())
}

func TestPlan_StepsDoNotShareObjects(t *testing.T) {
	source := &pgplan.SchemaObject{
		Name: "transactions",
		Body: "CREATE TABLE transactions (id int)",
		Dependencies: []pgplan.DependencyEdge{{
			From: "transactions", To: "accounts",
			Constraint: pgplan.ConstraintSpec{Columns: []string{"account_id"}},
		}},
	}
	inline := source.Dependencies
	deferred := pgplan.DependencyEdge{From: "transactions", To: "goals",
		Constraint: pgplan.ConstraintSpec{Columns: []string{"goal_id"}}}
	plan := pgplan.NewPlan([]pgplan.Step{
		pgplan.CreateObject(source, inline),
		pgplan.ApplyDeferredConstraint(deferred),
	}, []pgplan.DependencyEdge{deferred}, "abc")

	source.Body = "DROP SCHEMA public CASCADE"
	source.Dependencies[0].Constraint.Columns[0] = "changed"

	obj := plan.Steps()[0].Object()
	obj.Body = "DROP SCHEMA public CASCADE"
	obj.Dependencies[0].To = "goals"
	obj.Dependencies = append(obj.Dependencies, pgplan.DependencyEdge{From: "transactions", To: "x", Kind: pgplan.Structural})
	plan.Steps()[0].Inline()[0].Constraint.Columns[0] = "changed"
	edge, _ := plan.Steps()[1].Edge()
	edge.Constraint.Columns[0] = "changed"
	plan.Deferred()[0].Constraint.Columns[0] = "changed"

	got := plan.Steps()[0].Object()
	assert.Equal(t, "CREATE TABLE transactions (id int)", got.Body)
	require.Len(t, got.Dependencies, 1)
	assert.Equal(t, "accounts", got.Dependencies[0].To)
	assert.Equal(t, []string{"account_id"}, got.Dependencies[0].Constraint.Columns)
	assert.Equal(t, []string{"account_id"}, plan.Steps()[0].Inline()[0].Constraint.Columns)
	edge, ok := plan.Steps()[1].Edge()
	require.True(t, ok)
	assert.Equal(t, []string{"goal_id"}, edge.Constraint.Columns)
	assert.Equal(t, []string{"goal_id"}, plan.Deferred()[0].Constraint.Columns)
}

func TestStep_String(t *testing.T) {
	edge := pgplan.DependencyEdge{From: "transactions", To: "goals",
		Constraint: pgplan.ConstraintSpec{Columns: []string{"goal_id"}}}

	create := pgplan.CreateObject(&pgplan.SchemaObject{Name: "goals"}, []pgplan.DependencyEdge{edge})
	deferred := pgplan.ApplyDeferredConstraint(edge)

	assert.Equal(t, "create goals (+1 inline constraint(s))", create.String())
	assert.Equal(t, "apply deferred constraint transactions_goal_id_fkey on transactions -> goals", deferred.String())

	got, ok := deferred.Edge()
	require.True(t, ok)
	assert.Equal(t, "goals", got.To)
	_, ok = create.Edge()
	assert.False(t, ok)
}

func TestExecutionReport_Summary(t *testing.T) {
	s1 := pgplan.CreateObject(&pgplan.SchemaObject{Name: "a"}, nil)
	s2 := pgplan.CreateObject(&pgplan.SchemaObject{Name: "b"}, nil)
	report := &pgplan.ExecutionReport{
		Status: pgplan.StatusFailed,
		Results: []pgplan.StepResult{
			{Index: 1, Step: s1, Outcome: pgplan.OutcomeSuccess},
			{Index: 2, Step: s2, Outcome: pgplan.OutcomeFailed, Error: "boom"},
		},
		FailedIndex: 2,
		Reason:      "boom",
	}

	assert.Len(t, report.Applied(), 1)
	failed, ok := report.Failed()
	require.True(t, ok)
	assert.Equal(t, 2, failed.Index)
	assert.Equal(t, "FAILED_AT(2: create b): boom", report.Summary())
	assert.False(t, report.Succeeded())
}
