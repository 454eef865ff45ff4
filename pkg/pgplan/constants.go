package pgplan

import "time"

// Exit codes for semantic error classification.
//   - 0: Success
//   - 1: A deployment step failed
//   - 2: The plan could not be computed
//   - 3+: Application-specific errors
const (
	ExitSuccess            = 0   // Plan, deployment or validation completed cleanly
	ExitStepFailed         = 1   // Deployment halted at a specific step
	ExitPlanFailed         = 2   // Definitions could not be planned (configuration defect)
	ExitPanic              = 3   // Internal panic (unexpected crash)
	ExitValidationFindings = 4   // Validation ran and reported missing objects or constraints
	ExitGeneralError       = 5   // Unknown or unclassified error
	ExitConfigError        = 10  // Invalid configuration or parameters
	ExitConnectionError    = 11  // Failed to connect to database
	ExitUsageError         = 64  // CLI usage error (missing args, invalid flags)
	ExitCancelled          = 130 // Interrupted between steps
)

const (
	// DefaultRetryInitialDelay is the default initial delay before the first connection retry.
	DefaultRetryInitialDelay = 100 * time.Millisecond

	// DefaultRetryMaxDelay is the default maximum delay between connection retries.
	DefaultRetryMaxDelay = 10 * time.Second

	// DefaultRetryMaxAttempts is the default maximum number of connection attempts.
	DefaultRetryMaxAttempts = 3

	// DefaultTimeout bounds a whole plan, deploy or validate invocation.
	DefaultTimeout = 10 * time.Minute

	// MaxErrorPreviewLength is the maximum number of characters of an object body
	// shown in error messages.
	MaxErrorPreviewLength = 200

	// MaxIdentifierLength mirrors PostgreSQL's NAMEDATALEN-1.
	MaxIdentifierLength = 63

	// ConfigFileName is the project configuration file looked up in the working directory.
	ConfigFileName = "pgplan.yaml"
)
