// Package retry retries connection attempts that fail for transient reasons.
//
// It is used only while a session acquires its database connection.
// Deployment steps are never retried: a failed step is reported, not repeated.
//
// # Example Usage
//
//	executor := retry.NewExecutor(retry.NewPostgreSQLErrorClassifier(), retry.DefaultBackoff())
//
//	err := executor.Execute(ctx, func(ctx context.Context) error {
//	    return connectToDatabase(ctx)
//	})
//
// # Error Classification
//
// PostgreSQLErrorClassifier treats SQLSTATE classes 08 (connection exception)
// and 53 (insufficient resources), 57P03 (cannot connect now) and refused or
// reset network connections as transient. Everything else is fatal.
package retry
