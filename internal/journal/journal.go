package journal

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/vvka-141/pgplan/pkg/pgplan"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const timeLayout = time.RFC3339Nano

// Run is one journaled execution report.
type Run struct {
	RunID       string `db:"run_id" json:"run_id" yaml:"run_id"`
	Fingerprint string `db:"fingerprint" json:"fingerprint" yaml:"fingerprint"`
	Status      string `db:"status" json:"status" yaml:"status"`
	Reason      string `db:"reason" json:"reason" yaml:"reason"`
	FailedIndex int    `db:"failed_index" json:"failed_index" yaml:"failed_index"`
	StepCount   int    `db:"step_count" json:"step_count" yaml:"step_count"`
	StartedAt   string `db:"started_at" json:"started_at" yaml:"started_at"`
	FinishedAt  string `db:"finished_at" json:"finished_at" yaml:"finished_at"`
}

// StepRecord is one step outcome of a Run.
type StepRecord struct {
	RunID      string `db:"run_id" json:"run_id" yaml:"run_id"`
	Index      int    `db:"step_index" json:"index" yaml:"index"`
	Kind       string `db:"kind" json:"kind" yaml:"kind"`
	Subject    string `db:"subject" json:"subject" yaml:"subject"`
	Outcome    string `db:"outcome" json:"outcome" yaml:"outcome"`
	Error      string `db:"error" json:"error" yaml:"error"`
	DurationMS int64  `db:"duration_ms" json:"duration_ms" yaml:"duration_ms"`
}

// Journal is an append-only SQLite record of execution reports. It is safe
// for use by one process at a time; concurrent writers wait on the busy timeout.
type Journal struct {
	db     *sqlx.DB
	logger pgplan.Logger
}

// Open opens (creating if needed) the journal at path and migrates it.
func Open(path string, logger pgplan.Logger) (*Journal, error) {
	if logger == nil {
		panic("logger cannot be nil")
	}

	db, err := sqlx.Open("sqlite3", dataSourceName(path))
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate journal %s: %w", path, err)
	}

	logger.Verbose("Journal opened: %s", path)
	return &Journal{db: db, logger: logger}, nil
}

// dataSourceName builds a file: URI so that '?', '#' and '%' in path stay
// part of the file name instead of starting the parameter list.
func dataSourceName(path string) string {
	escaped := uriEscaper.Replace(filepath.ToSlash(path))
	return "file:" + escaped + "?_foreign_keys=on&_busy_timeout=5000"
}

var uriEscaper = strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")

func runMigrations(db *sqlx.DB) error {
	driver, err := sqlite3.WithInstance(db.DB, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// Record appends report in one transaction. Recording the same run twice fails.
func (j *Journal) Record(ctx context.Context, report *pgplan.ExecutionReport) error {
	if report == nil || report.Plan == nil {
		return fmt.Errorf("journal: report has no plan")
	}

	run := Run{
		RunID:       report.RunID.String(),
		Fingerprint: report.Plan.Fingerprint(),
		Status:      report.Status.String(),
		Reason:      report.Reason,
		FailedIndex: report.FailedIndex,
		StepCount:   report.Plan.Len(),
		StartedAt:   report.StartedAt.UTC().Format(timeLayout),
		FinishedAt:  report.FinishedAt.UTC().Format(timeLayout),
	}

	tx, err := j.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("journal: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.NamedExecContext(ctx, `
		INSERT INTO runs (run_id, fingerprint, status, reason, failed_index, step_count, started_at, finished_at)
		VALUES (:run_id, :fingerprint, :status, :reason, :failed_index, :step_count, :started_at, :finished_at)`,
		run); err != nil {
		return fmt.Errorf("journal: insert run %s: %w", run.RunID, err)
	}

	for _, res := range report.Results {
		step := StepRecord{
			RunID:      run.RunID,
			Index:      res.Index,
			Kind:       res.Step.Kind().String(),
			Subject:    res.Step.Subject(),
			Outcome:    res.Outcome.String(),
			Error:      res.Error,
			DurationMS: res.Duration.Milliseconds(),
		}
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO run_steps (run_id, step_index, kind, subject, outcome, error, duration_ms)
			VALUES (:run_id, :step_index, :kind, :subject, :outcome, :error, :duration_ms)`,
			step); err != nil {
			return fmt.Errorf("journal: insert step %d of run %s: %w", res.Index, run.RunID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("journal: commit: %w", err)
	}
	j.logger.Verbose("Journaled run %s (%s)", run.RunID, run.Status)
	return nil
}

// Runs returns the most recent runs first. limit <= 0 returns all of them.
func (j *Journal) Runs(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT run_id, fingerprint, status, reason, failed_index, step_count, started_at, finished_at
		FROM runs ORDER BY started_at DESC, run_id`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var runs []Run
	if err := j.db.SelectContext(ctx, &runs, query, args...); err != nil {
		return nil, fmt.Errorf("journal: list runs: %w", err)
	}
	return runs, nil
}

// Steps returns the step records of runID in plan order.
func (j *Journal) Steps(ctx context.Context, runID string) ([]StepRecord, error) {
	var steps []StepRecord
	err := j.db.SelectContext(ctx, &steps, `
		SELECT run_id, step_index, kind, subject, outcome, error, duration_ms
		FROM run_steps WHERE run_id = ? ORDER BY step_index`, runID)
	if err != nil {
		return nil, fmt.Errorf("journal: list steps of %s: %w", runID, err)
	}
	return steps, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}
