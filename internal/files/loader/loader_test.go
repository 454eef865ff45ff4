package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/pgplan/internal/files/filesystem"
	"github.com/vvka-141/pgplan/pkg/pgplan"
)

const yamlManifestSrc = `
objects:
  - name: families
    body: CREATE TABLE families (id BIGINT PRIMARY KEY);
  - name: accounts
    ordinal: 2
    body: CREATE TABLE accounts (id BIGINT PRIMARY KEY);
  - name: goals
    file: tables/goals.sql
    depends_on:
      - object: families
        columns: [family_id]
        references: [id]
        on_delete: cascade
      - object: accounts
        constraint: goals_account_fk
        sql: ALTER TABLE goals ADD CONSTRAINT goals_account_fk FOREIGN KEY (account_id) REFERENCES accounts (id)
  - name: goal_summary
    type: view
    body: CREATE VIEW goal_summary AS SELECT * FROM goals;
    depends_on:
      - object: goals
        structural: true
`

const hclManifestSrc = `
object "families" {
  body = "CREATE TABLE families (id BIGINT PRIMARY KEY);"
}

object "goals" {
  ordinal = 3
  file    = "tables/goals.sql"

  depends_on "families" {
    columns    = ["family_id"]
    references = ["id"]
    on_delete  = "cascade"
  }
}

object "goal_summary" {
  type = "view"
  body = <<-SQL
    CREATE VIEW goal_summary AS SELECT * FROM goals;
  SQL

  depends_on "goals" {
    structural = true
  }
}
`

func newTestLoader() (*Loader, *filesystem.MemoryFileSystem) {
	fs := filesystem.NewMemoryFileSystem("/project")
	fs.AddFile("tables/goals.sql", "CREATE TABLE goals (id BIGINT PRIMARY KEY, family_id BIGINT, account_id BIGINT);")
	return New(fs), fs
}

func TestNew_NilFilesystem(t *testing.T) {
	assert.Panics(t, func() { New(nil) })
}

func TestLoad_YAMLManifest(t *testing.T) {
	l, fs := newTestLoader()
	fs.AddFile("pgplan-schema.yaml", yamlManifestSrc)

	defs, err := l.Load("/project/pgplan-schema.yaml")
	require.NoError(t, err)
	require.Len(t, defs, 4)

	assert.Equal(t, "families", defs[0].Name)
	assert.Equal(t, "/project/pgplan-schema.yaml", defs[0].Source)
	assert.Equal(t, 2, defs[1].Ordinal)

	goals := defs[2]
	assert.Contains(t, goals.Body, "CREATE TABLE goals")
	assert.Equal(t, "/project/tables/goals.sql", goals.Source)
	require.Len(t, goals.DependsOn, 2)
	assert.Equal(t, []string{"family_id"}, goals.DependsOn[0].Constraint.Columns)
	assert.Equal(t, "cascade", goals.DependsOn[0].Constraint.OnDelete)
	assert.Equal(t, "goals_account_fk", goals.DependsOn[1].Constraint.Name)
	assert.Contains(t, goals.DependsOn[1].Constraint.SQL, "ALTER TABLE goals")

	assert.Equal(t, "view", defs[3].Type)
	assert.True(t, defs[3].DependsOn[0].Structural)
}

func TestLoad_HCLManifest(t *testing.T) {
	l, fs := newTestLoader()
	fs.AddFile("schema.hcl", hclManifestSrc)

	defs, err := l.Load("/project/schema.hcl")
	require.NoError(t, err)
	require.Len(t, defs, 3)

	assert.Equal(t, []string{"families", "goals", "goal_summary"}, []string{defs[0].Name, defs[1].Name, defs[2].Name})
	assert.Equal(t, 3, defs[1].Ordinal)
	assert.Contains(t, defs[1].Body, "CREATE TABLE goals")
	require.Len(t, defs[1].DependsOn, 1)
	assert.Equal(t, "families", defs[1].DependsOn[0].Object)
	assert.Equal(t, []string{"id"}, defs[1].DependsOn[0].Constraint.References)
	assert.Contains(t, defs[2].Body, "CREATE VIEW goal_summary")
	assert.True(t, defs[2].DependsOn[0].Structural)
}

func TestLoad_Directory(t *testing.T) {
	l, fs := newTestLoader()
	fs.AddFile("schema/a.sql", `/* <pgplan-object name="a"/> */ CREATE TABLE a (id INT);`)

	defs, err := l.Load("/project/schema")
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "a", defs[0].Name)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		content  string
		path     string
		sentinel error
		contains string
	}{
		{"missing path", "", "", "/project/absent.yaml", pgplan.ErrInvalidConfig, "definitions not found"},
		{"unsupported extension", "schema.json", "{}", "/project/schema.json", pgplan.ErrInvalidConfig, "unsupported definitions source"},
		{"unknown yaml field", "bad.yaml", "objects:\n  - name: a\n    bodee: x\n", "/project/bad.yaml", pgplan.ErrParse, "bodee"},
		{"malformed yaml", "bad.yaml", "objects: [", "/project/bad.yaml", pgplan.ErrParse, "bad.yaml"},
		{"malformed hcl", "bad.hcl", `object "a" {`, "/project/bad.hcl", pgplan.ErrParse, "bad.hcl"},
		{"unknown hcl attribute", "bad.hcl", "object \"a\" {\n  bodee = \"x\"\n}\n", "/project/bad.hcl", pgplan.ErrParse, "bodee"},
		{"body and file", "both.yaml", "objects:\n  - name: a\n    body: x\n    file: tables/goals.sql\n", "/project/both.yaml", pgplan.ErrParse, "mutually exclusive"},
		{"missing body file", "nofile.yaml", "objects:\n  - name: a\n    file: nope.sql\n", "/project/nofile.yaml", pgplan.ErrParse, "cannot read nope.sql"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, fs := newTestLoader()
			if tt.file != "" {
				fs.AddFile(tt.file, tt.content)
			}

			_, err := l.Load(tt.path)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestLoad_EmptyYAMLManifest(t *testing.T) {
	l, fs := newTestLoader()
	fs.AddFile("empty.yaml", "")

	defs, err := l.Load("/project/empty.yaml")
	require.NoError(t, err)
	assert.Empty(t, defs)
}
