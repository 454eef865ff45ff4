package services

import (
	"context"
	"fmt"

	"github.com/vvka-141/pgplan/internal/catalog"
	"github.com/vvka-141/pgplan/internal/checksum"
	"github.com/vvka-141/pgplan/internal/db"
	"github.com/vvka-141/pgplan/internal/executor"
	"github.com/vvka-141/pgplan/internal/journal"
	"github.com/vvka-141/pgplan/internal/planner"
	"github.com/vvka-141/pgplan/internal/validator"
	"github.com/vvka-141/pgplan/pkg/pgplan"
)

// DefinitionLoader reads definitions from a manifest or directory.
type DefinitionLoader interface {
	Load(sourcePath string) ([]pgplan.Definition, error)
}

// Recorder appends execution reports to a run journal.
type Recorder interface {
	Record(ctx context.Context, report *pgplan.ExecutionReport) error
	Close() error
}

// JournalOpener opens the journal at path.
type JournalOpener func(path string, logger pgplan.Logger) (Recorder, error)

func openSQLiteJournal(path string, logger pgplan.Logger) (Recorder, error) {
	return journal.Open(path, logger)
}

// Approver confirms a plan before it is applied to a database.
type Approver interface {
	RequestApproval(ctx context.Context, database string, plan *pgplan.Plan) (bool, error)
}

// DeploymentService implements pgplan.Deployer.
//
// Thread-Safety: safe for concurrent calls as long as the injected loader,
// session opener and observers are.
type DeploymentService struct {
	loader      DefinitionLoader
	sessions    SessionOpener
	logger      pgplan.Logger
	observers   []executor.Observer
	approver    Approver
	openJournal JournalOpener
}

type Option func(*DeploymentService)

// WithObserver forwards executor progress events to o.
func WithObserver(o executor.Observer) Option {
	return func(s *DeploymentService) {
		if o != nil {
			s.observers = append(s.observers, o)
		}
	}
}

// WithApprover asks a for confirmation before a real run connects.
// Without one, deployments proceed unprompted.
func WithApprover(a Approver) Option {
	return func(s *DeploymentService) {
		s.approver = a
	}
}

// WithJournalOpener replaces the SQLite journal.
func WithJournalOpener(open JournalOpener) Option {
	return func(s *DeploymentService) {
		if open != nil {
			s.openJournal = open
		}
	}
}

// NewDeploymentService panics on nil dependencies; those are wiring mistakes,
// not runtime conditions.
func NewDeploymentService(loader DefinitionLoader, sessions SessionOpener, logger pgplan.Logger, opts ...Option) *DeploymentService {
	if loader == nil {
		panic("loader cannot be nil")
	}
	if sessions == nil {
		panic("sessions cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	s := &DeploymentService{
		loader:      loader,
		sessions:    sessions,
		logger:      logger,
		openJournal: openSQLiteJournal,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *DeploymentService) withTimeout(ctx context.Context, config pgplan.DeploymentConfig) (context.Context, context.CancelFunc) {
	if config.Timeout > 0 {
		return context.WithTimeout(ctx, config.Timeout)
	}
	return context.WithCancel(ctx)
}

// plan loads and plans config.SourcePath.
func (s *DeploymentService) plan(config pgplan.DeploymentConfig) (*pgplan.Plan, *catalog.Catalog, error) {
	s.logger.Verbose("Loading definitions from %s", config.SourcePath)

	defs, err := s.loader.Load(config.SourcePath)
	if err != nil {
		return nil, nil, err
	}
	s.logger.Verbose("Loaded %d definition(s)", len(defs))

	plan, cat, err := planner.New(s.logger).Plan(defs)
	if err != nil {
		return nil, nil, err
	}
	s.logger.Info("Plan %s: %d step(s), %d deferred constraint(s)",
		checksum.Short(plan.Fingerprint()), plan.Len(), len(plan.Deferred()))
	return plan, cat, nil
}

// Plan computes the deployment plan without connecting.
func (s *DeploymentService) Plan(ctx context.Context, config pgplan.DeploymentConfig) (*pgplan.Plan, error) {
	if err := config.Validate(false); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	plan, _, err := s.plan(config)
	return plan, err
}

// Deploy plans and executes. The report is returned together with the error
// when execution started and a step failed or the run was interrupted.
func (s *DeploymentService) Deploy(ctx context.Context, config pgplan.DeploymentConfig) (*pgplan.ExecutionReport, error) {
	if err := config.Validate(!config.DryRun); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	ctx, cancel := s.withTimeout(ctx, config)
	defer cancel()

	plan, _, err := s.plan(config)
	if err != nil {
		return nil, err
	}

	if config.ExpectFingerprint != "" && !checksum.Matches(plan.Fingerprint(), config.ExpectFingerprint) {
		return nil, fmt.Errorf("computed %s, expected %s: %w",
			plan.Fingerprint(), config.ExpectFingerprint, pgplan.ErrFingerprintMismatch)
	}

	exec := executor.New(s.logger, s.executorOptions()...)

	if config.DryRun {
		report, err := exec.Execute(ctx, plan, nil, executor.Options{DryRun: true})
		s.journal(ctx, config, report)
		return report, err
	}

	connConfig, err := s.connectionConfig(config)
	if err != nil {
		return nil, err
	}

	if s.approver != nil {
		approved, err := s.approver.RequestApproval(ctx, connConfig.Database, plan)
		if err != nil {
			return nil, fmt.Errorf("approval failed: %w", err)
		}
		if !approved {
			return nil, fmt.Errorf("database %q: %w", connConfig.Database, pgplan.ErrApprovalDenied)
		}
	}

	session, err := s.sessions.Open(ctx, connConfig)
	if err != nil {
		return nil, err
	}
	defer s.closeSession(session)

	report, err := exec.Execute(ctx, plan, session.Target(), executor.Options{})
	s.journal(ctx, config, report)
	return report, err
}

// Validate checks the target against the declared catalog. Findings are
// returned in the report together with an error wrapping ErrValidationFailed.
func (s *DeploymentService) Validate(ctx context.Context, config pgplan.DeploymentConfig) (*pgplan.ValidationReport, error) {
	if err := config.Validate(true); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	ctx, cancel := s.withTimeout(ctx, config)
	defer cancel()

	defs, err := s.loader.Load(config.SourcePath)
	if err != nil {
		return nil, err
	}
	// Validation only needs the declared objects; a cycle that would block
	// planning does not stop a drift check.
	cat, err := catalog.Load(defs)
	if err != nil {
		return nil, err
	}

	connConfig, err := s.connectionConfig(config)
	if err != nil {
		return nil, err
	}
	session, err := s.sessions.Open(ctx, connConfig)
	if err != nil {
		return nil, err
	}
	defer s.closeSession(session)

	report, err := validator.New(s.logger).Validate(ctx, cat, session.Target())
	if err != nil {
		return nil, err
	}
	if !report.Passed() {
		return report, fmt.Errorf("%d finding(s): %w", len(report.Findings), pgplan.ErrValidationFailed)
	}
	return report, nil
}

func (s *DeploymentService) executorOptions() []executor.Option {
	opts := make([]executor.Option, 0, len(s.observers))
	for _, o := range s.observers {
		opts = append(opts, executor.WithObserver(o))
	}
	return opts
}

// connectionConfig parses the connection string and applies the auth settings
// carried separately in config.
func (s *DeploymentService) connectionConfig(config pgplan.DeploymentConfig) (*pgplan.ConnectionConfig, error) {
	connConfig, err := db.ParseConnectionString(config.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	if connConfig.AppName == "" {
		connConfig.AppName = "pgplan"
	}

	connConfig.AuthMethod = config.AuthMethod
	connConfig.AWSRegion = config.AWSRegion
	connConfig.GoogleInstance = config.GoogleInstance
	connConfig.AzureTenantID = config.AzureTenantID
	connConfig.AzureClientID = config.AzureClientID
	connConfig.AzureClientSecret = config.AzureClientSecret
	return connConfig, nil
}

func (s *DeploymentService) closeSession(session *Session) {
	if err := session.Close(); err != nil {
		s.logger.Error("Failed to close session: %v", err)
	}
}

// journal appends report when a journal is configured. A journal failure is
// logged; it never changes the outcome of the run.
func (s *DeploymentService) journal(ctx context.Context, config pgplan.DeploymentConfig, report *pgplan.ExecutionReport) {
	if config.JournalPath == "" || report == nil {
		return
	}

	j, err := s.openJournal(config.JournalPath, s.logger)
	if err != nil {
		s.logger.Error("Failed to open journal %s: %v", config.JournalPath, err)
		return
	}
	defer j.Close()

	// the run may have been cancelled; the record must still be written
	if err := j.Record(context.WithoutCancel(ctx), report); err != nil {
		s.logger.Error("Failed to journal run %s: %v", report.RunID, err)
	}
}

var _ pgplan.Deployer = (*DeploymentService)(nil)
