package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pgplan",
	Short: "Dependency-ordered PostgreSQL schema deployment",
	Long: `pgplan reads schema object definitions, resolves their dependencies
into a deterministic plan, applies the plan one object at a time and
validates that the target matches what was declared.

Foreign keys that close a reference cycle are deferred: the tables are
created without them and the constraints are added once every table
exists. Cycles made only of structural dependencies (a view over a view,
a function over a type) cannot be broken and fail planning.

Exit Codes:
  0   - Success
  1   - A deployment step failed
  2   - Definitions could not be planned, or fingerprint mismatch
  3   - Panic or unexpected system error
  4   - Validation reported findings
  5   - Unclassified error
  10  - Invalid configuration
  11  - Database connection failed
  64  - CLI usage error (invalid arguments or flags)
  130 - Cancelled or not approved`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// .env is optional; values already in the environment win
		_ = godotenv.Load()
	},
}

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo(os.Stdout)
		return nil
	}
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

func init() {
	// -h belongs to --host, as in psql
	rootCmd.PersistentFlags().Bool("help", false, "Help for pgplan")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for all commands")
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError(err)
	})
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}
