package cli

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/vvka-141/pgplan/internal/logging"
	"github.com/vvka-141/pgplan/pkg/pgplan"
)

var validateCmd = &cobra.Command{
	Use:   "validate <path>",
	Short: "Check that every declared object and constraint exists",
	Long: `Validate probes the target for each declared object and each foreign key
constraint, and reports what is missing. It never changes the database
and does not need the definitions to be plannable.

Examples:
  pgplan validate ./schema -d budget
  pgplan validate ./schema --connection "$DATABASE_URL" -o json`,
	Args: RequireDefinitionsPath,
	RunE: runValidate,
}

type validateFlagValues struct {
	conn    connectionFlags
	output  string
	timeout time.Duration
}

var validateFlags validateFlagValues

func init() {
	rootCmd.AddCommand(validateCmd)

	addConnectionFlags(validateCmd, &validateFlags.conn)
	validateCmd.Flags().StringVarP(&validateFlags.output, "output", "o", "",
		"Report format: text|json|yaml (default: pgplan.yaml output, else text)")
	validateCmd.Flags().DurationVar(&validateFlags.timeout, "timeout", pgplan.DefaultTimeout,
		"Upper bound for the whole validation")
}

func runValidate(cmd *cobra.Command, args []string) error {
	verbose := getVerboseFlag(cmd)
	logger := logging.NewConsoleLogger(verbose)

	proj, err := loadProject(args[0])
	if err != nil {
		return err
	}
	format, err := proj.format(validateFlags.output)
	if err != nil {
		return err
	}
	timeout, err := proj.timeout(cmd, validateFlags.timeout)
	if err != nil {
		return err
	}

	connConfig, err := resolveConnection(validateFlags.conn, proj.Config)
	if err != nil {
		return err
	}
	logConnectionVerbose(logger, connConfig)

	config := pgplan.DeploymentConfig{
		SourcePath: proj.SourcePath,
		Timeout:    timeout,
		Verbose:    verbose,
	}
	applyConnection(&config, connConfig)

	ctx, cancel := signalContext()
	defer cancel()

	result, err := newDeploymentService(logger).Validate(ctx, config)
	if result != nil {
		if renderErr := newRenderer(cmd, format).Validation(result); renderErr != nil && err == nil {
			err = renderErr
		}
	}
	return err
}
