package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vvka-141/pgplan/pkg/pgplan"
)

// RequireDefinitionsPath validates that exactly one <path> argument is provided.
// Returns a helpful error message with usage and examples if missing or too many.
func RequireDefinitionsPath(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return usageError(fmt.Errorf(`missing required argument: <path>

Usage: %s

<path> is a manifest (.yaml, .yml, .hcl), a directory of annotated .sql
files, or a directory holding pgplan.yaml.

Example:
  %s ./schema`, cmd.UseLine(), cmd.CommandPath()))
	}
	if len(args) > 1 {
		return usageError(fmt.Errorf("accepts 1 arg(s), received %d", len(args)))
	}
	return nil
}

// cliUsageError keeps the message of err and classifies it as pgplan.ErrUsage.
type cliUsageError struct{ err error }

func (e *cliUsageError) Error() string   { return e.err.Error() }
func (e *cliUsageError) Unwrap() []error { return []error{e.err, pgplan.ErrUsage} }

func usageError(err error) error {
	return &cliUsageError{err: err}
}
