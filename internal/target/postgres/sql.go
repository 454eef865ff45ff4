package postgres

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/vvka-141/pgplan/pkg/pgplan"
)

// quoteName renders a possibly schema-qualified object name as a quoted
// identifier after folding it to lower case.
func quoteName(name string) string {
	return pgx.Identifier(strings.Split(strings.ToLower(name), ".")).Sanitize()
}

func quoteList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = pgx.Identifier{strings.ToLower(n)}.Sanitize()
	}
	return strings.Join(quoted, ", ")
}

// splitName returns the schema ("" when unqualified) and the bare name, both folded.
func splitName(name string) (string, string) {
	name = strings.ToLower(name)
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}

// constraintSQL builds the ALTER TABLE statement that applies edge.
func constraintSQL(edge pgplan.DependencyEdge) (string, error) {
	c := edge.Constraint
	if !c.IsDefined() {
		return "", fmt.Errorf("dependency %s declares no constraint to apply", edge)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "ALTER TABLE %s ADD CONSTRAINT %s ", quoteName(edge.From), quoteList([]string{edge.ConstraintName()}))

	if c.SQL != "" {
		b.WriteString(strings.TrimSuffix(strings.TrimSpace(c.SQL), ";"))
		return b.String(), nil
	}

	fmt.Fprintf(&b, "FOREIGN KEY (%s) REFERENCES %s", quoteList(c.Columns), quoteName(edge.To))
	if len(c.References) > 0 {
		fmt.Fprintf(&b, " (%s)", quoteList(c.References))
	}
	if c.OnDelete != "" {
		fmt.Fprintf(&b, " ON DELETE %s", strings.ToUpper(c.OnDelete))
	}
	if c.OnUpdate != "" {
		fmt.Fprintf(&b, " ON UPDATE %s", strings.ToUpper(c.OnUpdate))
	}
	return b.String(), nil
}

// DropStatement returns the statement that undoes a CreateObject step for obj.
func DropStatement(obj *pgplan.SchemaObject) string {
	name := quoteName(obj.Name)
	switch obj.Type {
	case pgplan.ObjectView:
		return fmt.Sprintf("DROP VIEW IF EXISTS %s CASCADE", name)
	case pgplan.ObjectSequence:
		return fmt.Sprintf("DROP SEQUENCE IF EXISTS %s CASCADE", name)
	case pgplan.ObjectFunction:
		return fmt.Sprintf("DROP FUNCTION IF EXISTS %s CASCADE", name)
	case pgplan.ObjectUserType:
		return fmt.Sprintf("DROP TYPE IF EXISTS %s CASCADE", name)
	case pgplan.ObjectSchema:
		return fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", name)
	case pgplan.ObjectExtension:
		return fmt.Sprintf("DROP EXTENSION IF EXISTS %s CASCADE", name)
	default:
		return fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", name)
	}
}

// DropConstraintStatement returns the statement that undoes edge's constraint.
func DropConstraintStatement(edge pgplan.DependencyEdge) string {
	name := edge.ConstraintName()
	if name == "" {
		return fmt.Sprintf("-- foreign key %s has no known name; drop it manually", edge)
	}
	return fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT IF EXISTS %s", quoteName(edge.From), quoteList([]string{name}))
}
