package cli

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/vvka-141/pgplan/internal/config"
	"github.com/vvka-141/pgplan/internal/db"
	"github.com/vvka-141/pgplan/pkg/pgplan"
)

// connectionFlags holds the connection flag values shared by deploy and validate.
type connectionFlags struct {
	connection     string
	host           string
	port           int
	username       string
	database       string
	sslMode        string
	authMethod     string
	awsRegion      string
	googleInstance string
	azureTenantID  string
	azureClientID  string
}

// addConnectionFlags registers psql-style connection flags on cmd.
func addConnectionFlags(cmd *cobra.Command, f *connectionFlags) {
	cmd.Flags().StringVar(&f.connection, "connection", "",
		"PostgreSQL connection string (URI or ADO.NET format).\n"+
			"Mutually exclusive with granular flags (--host, --port, --username, --sslmode).\n"+
			"Alternative: PGPLAN_CONNECTION_STRING or DATABASE_URL environment variable.\n"+
			"Example: postgresql://user@localhost:5432/app")

	// Precedence: flag > environment variable > pgplan.yaml > default
	cmd.Flags().StringVarP(&f.host, "host", "h", "",
		"PostgreSQL server host\n"+
			"Precedence: --host > $PGHOST > pgplan.yaml > localhost")
	cmd.Flags().IntVarP(&f.port, "port", "p", 0,
		"PostgreSQL server port\n"+
			"Precedence: --port > $PGPORT > pgplan.yaml > 5432")
	cmd.Flags().StringVarP(&f.username, "username", "U", "",
		"PostgreSQL user (default: $PGUSER or current OS user)")
	cmd.Flags().StringVarP(&f.database, "database", "d", "",
		"Target database (overrides the database of a connection string)")
	cmd.Flags().StringVar(&f.sslMode, "sslmode", "",
		"SSL mode: disable|allow|prefer|require|verify-ca|verify-full\n"+
			"(default: prefer, or $PGSSLMODE)")

	cmd.Flags().StringVar(&f.authMethod, "auth", "",
		"Authentication method: standard|certificate|aws|google|azure")
	cmd.Flags().StringVar(&f.awsRegion, "aws-region", "",
		"AWS region for RDS IAM authentication (overrides $AWS_REGION)")
	cmd.Flags().StringVar(&f.googleInstance, "google-instance", "",
		"Cloud SQL instance connection name (project:region:instance)")
	cmd.Flags().StringVar(&f.azureTenantID, "azure-tenant-id", "",
		"Azure AD tenant/directory ID (overrides $AZURE_TENANT_ID)")
	cmd.Flags().StringVar(&f.azureClientID, "azure-client-id", "",
		"Azure AD application/client ID (overrides $AZURE_CLIENT_ID)")
}

// connectionStringFromEnv returns the first non-empty connection string from
// PGPLAN_CONNECTION_STRING or DATABASE_URL environment variables.
func connectionStringFromEnv() string {
	if s := os.Getenv("PGPLAN_CONNECTION_STRING"); s != "" {
		return s
	}
	return os.Getenv("DATABASE_URL")
}

// resolveConnection applies flags, environment and pgplan.yaml to yield the
// target connection.
func resolveConnection(f connectionFlags, projectCfg *config.ProjectConfig) (*pgplan.ConnectionConfig, error) {
	connString := f.connection
	granular := &db.GranularConnFlags{
		Host:     f.host,
		Port:     f.port,
		Username: f.username,
		Database: f.database,
		SSLMode:  f.sslMode,
	}
	if connString == "" && granular.IsEmpty() {
		connString = connectionStringFromEnv()
	}

	auth := &db.AuthFlags{
		Method:         f.authMethod,
		AWSRegion:      f.awsRegion,
		GoogleInstance: f.googleInstance,
		AzureTenantID:  f.azureTenantID,
		AzureClientID:  f.azureClientID,
	}

	return db.ResolveConnectionParams(connString, granular, auth, db.LoadFromEnvironment(), projectCfg)
}

// applyConnection copies a resolved connection into cfg.
func applyConnection(cfg *pgplan.DeploymentConfig, connConfig *pgplan.ConnectionConfig) {
	cfg.ConnectionString = db.BuildConnectionString(connConfig)
	cfg.AuthMethod = connConfig.AuthMethod
	cfg.AWSRegion = connConfig.AWSRegion
	cfg.GoogleInstance = connConfig.GoogleInstance
	cfg.AzureTenantID = connConfig.AzureTenantID
	cfg.AzureClientID = connConfig.AzureClientID
	cfg.AzureClientSecret = connConfig.AzureClientSecret
}

// logConnectionVerbose logs connection details when verbose mode is enabled.
func logConnectionVerbose(logger pgplan.Logger, connConfig *pgplan.ConnectionConfig) {
	logger.Verbose("Connection resolved: %s (auth: %s)", db.RedactedConnectionString(connConfig), connConfig.AuthMethod)
}
