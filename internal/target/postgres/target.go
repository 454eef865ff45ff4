package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vvka-141/pgplan/pkg/pgplan"
)

var _ pgplan.Target = (*Target)(nil)

// DB is the part of *pgxpool.Pool the target needs.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// querier runs probes either on the pool or inside a transaction.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Target applies steps to a PostgreSQL database.
type Target struct {
	db     DB
	logger pgplan.Logger
}

// New creates a Target.
// Panics if db or logger is nil.
func New(db DB, logger pgplan.Logger) *Target {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Target{db: db, logger: logger}
}

// ApplyObjectDefinition executes the object body and then every inline
// constraint the body did not already declare, in one transaction.
func (t *Target) ApplyObjectDefinition(ctx context.Context, obj *pgplan.SchemaObject, inline []pgplan.DependencyEdge) error {
	return pgx.BeginFunc(ctx, t.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, obj.Body); err != nil {
			return describe(err, obj.Body)
		}

		for _, edge := range inline {
			if !edge.Constraint.IsDefined() {
				t.logger.Verbose("Constraint for %s is expected in the body of %s", edge, obj.Name)
				continue
			}
			exists, err := constraintExists(ctx, tx, edge)
			if err != nil {
				return fmt.Errorf("failed to check constraint %s: %w", edge, err)
			}
			if exists {
				t.logger.Verbose("Constraint %s already declared by %s", edge.ConstraintName(), obj.Name)
				continue
			}
			if err := execConstraint(ctx, tx, edge); err != nil {
				return err
			}
		}
		return nil
	})
}

// ApplyConstraint adds a single foreign key in its own transaction.
func (t *Target) ApplyConstraint(ctx context.Context, edge pgplan.DependencyEdge) error {
	return pgx.BeginFunc(ctx, t.db, func(tx pgx.Tx) error {
		return execConstraint(ctx, tx, edge)
	})
}

func (t *Target) ObjectExists(ctx context.Context, obj *pgplan.SchemaObject) (bool, error) {
	var (
		query string
		args  []any
	)
	switch obj.Type {
	case pgplan.ObjectUserType:
		query, args = queryTypeExists, []any{quoteName(obj.Name)}
	case pgplan.ObjectFunction:
		schema, name := splitName(obj.Name)
		query, args = queryFunctionExists, []any{schema, name}
	case pgplan.ObjectSchema:
		query, args = querySchemaExists, []any{obj.Name}
	case pgplan.ObjectExtension:
		query, args = queryExtensionExists, []any{obj.Name}
	default:
		query, args = queryRegclassExists, []any{quoteName(obj.Name)}
	}

	var exists bool
	if err := t.db.QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (t *Target) ConstraintExists(ctx context.Context, edge pgplan.DependencyEdge) (bool, error) {
	return constraintExists(ctx, t.db, edge)
}

func constraintExists(ctx context.Context, q querier, edge pgplan.DependencyEdge) (bool, error) {
	var exists bool
	var err error
	if edge.Constraint.Name != "" {
		err = q.QueryRow(ctx, queryConstraintByName, quoteName(edge.From), strings.ToLower(edge.Constraint.Name)).Scan(&exists)
	} else {
		var columns []string
		for _, c := range edge.Constraint.Columns {
			columns = append(columns, strings.ToLower(c))
		}
		err = q.QueryRow(ctx, queryForeignKeyExists, quoteName(edge.From), quoteName(edge.To), columns).Scan(&exists)
	}
	return exists, err
}

func execConstraint(ctx context.Context, tx pgx.Tx, edge pgplan.DependencyEdge) error {
	stmt, err := constraintSQL(edge)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, stmt); err != nil {
		return describe(err, stmt)
	}
	return nil
}

// describe adds the SQLSTATE and a preview of the failing statement.
func describe(err error, stmt string) error {
	preview := stmt
	if len(preview) > pgplan.MaxErrorPreviewLength {
		preview = preview[:pgplan.MaxErrorPreviewLength] + "..."
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%s (SQLSTATE %s) executing: %s", pgErr.Message, pgErr.Code, preview)
	}
	return fmt.Errorf("%w executing: %s", err, preview)
}
