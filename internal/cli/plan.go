package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vvka-141/pgplan/internal/logging"
	"github.com/vvka-141/pgplan/pkg/pgplan"
)

var planCmd = &cobra.Command{
	Use:   "plan <path>",
	Short: "Show the deployment plan without connecting",
	Long: `Plan loads the definitions, resolves dependencies and prints the ordered
steps: one per object, followed by the deferred constraints that close
reference cycles. Nothing connects to a database.

The plan fingerprint identifies the exact step sequence. Pass it to
'pgplan deploy --expect-fingerprint' to refuse any other plan.

Examples:
  pgplan plan ./schema
  pgplan plan ./schema/objects.yaml -o json`,
	Args: RequireDefinitionsPath,
	RunE: runPlan,
}

type planFlagValues struct {
	output string
}

var planFlags planFlagValues

func init() {
	rootCmd.AddCommand(planCmd)

	planCmd.Flags().StringVarP(&planFlags.output, "output", "o", "",
		"Report format: text|json|yaml (default: pgplan.yaml output, else text)")
}

func runPlan(cmd *cobra.Command, args []string) error {
	verbose := getVerboseFlag(cmd)
	logger := logging.NewConsoleLogger(verbose)

	proj, err := loadProject(args[0])
	if err != nil {
		return err
	}
	format, err := proj.format(planFlags.output)
	if err != nil {
		return err
	}

	plan, err := newDeploymentService(logger).Plan(commandContext(cmd.Context()), pgplan.DeploymentConfig{
		SourcePath: proj.SourcePath,
		Verbose:    verbose,
	})
	if err != nil {
		return fmt.Errorf("planning failed: %w", err)
	}

	return newRenderer(cmd, format).Plan(plan)
}
