package pgplan

import "context"

// Deployer runs the full workflow from definitions on disk to a target database.
type Deployer interface {
	// Plan loads the definitions and computes the deployment plan without connecting.
	Plan(ctx context.Context, config DeploymentConfig) (*Plan, error)

	// Deploy plans and executes. The report is returned even when a step fails.
	Deploy(ctx context.Context, config DeploymentConfig) (*ExecutionReport, error)

	// Validate checks the target against the catalog without mutating it.
	Validate(ctx context.Context, config DeploymentConfig) (*ValidationReport, error)
}
