package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/pgplan/internal/ui"
	"github.com/vvka-141/pgplan/pkg/pgplan"
)

const budgetingManifest = `
objects:
  - name: families
    body: CREATE TABLE families (id BIGINT PRIMARY KEY);
  - name: accounts
    body: CREATE TABLE accounts (id BIGINT PRIMARY KEY);
  - name: goals
    body: CREATE TABLE goals (id BIGINT PRIMARY KEY, family_id BIGINT, last_transaction_id BIGINT);
    depends_on:
      - object: families
        columns: [family_id]
        references: [id]
      - object: transactions
        columns: [last_transaction_id]
        references: [id]
  - name: transactions
    body: CREATE TABLE transactions (id BIGINT PRIMARY KEY, goal_id BIGINT);
    depends_on:
      - object: goals
        columns: [goal_id]
        references: [id]
`

const cyclicManifest = `
objects:
  - name: a
    type: view
    body: CREATE VIEW a AS SELECT 1;
    depends_on:
      - object: b
        structural: true
  - name: b
    type: view
    body: CREATE VIEW b AS SELECT 1;
    depends_on:
      - object: a
        structural: true
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// runCommand invokes run as cobra would, capturing stdout.
func runCommand(t *testing.T, cmd *cobra.Command, run func(*cobra.Command, []string) error, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	t.Cleanup(func() { cmd.SetOut(nil) })
	err := run(cmd, args)
	return out.String(), err
}

func TestPlanCmd_Text(t *testing.T) {
	planFlags = planFlagValues{}
	manifest := writeFile(t, t.TempDir(), "schema.yaml", budgetingManifest)

	out, err := runCommand(t, planCmd, runPlan, manifest)

	require.NoError(t, err)
	assert.Contains(t, out, "Fingerprint:")
	assert.Contains(t, out, "1. create families")
	assert.Contains(t, out, "create goals")
	assert.Contains(t, out, "create transactions")
	assert.Contains(t, out, "5. apply deferred constraint")
}

func TestPlanCmd_JSON(t *testing.T) {
	planFlags = planFlagValues{output: "json"}
	defer func() { planFlags = planFlagValues{} }()
	manifest := writeFile(t, t.TempDir(), "schema.yaml", budgetingManifest)

	out, err := runCommand(t, planCmd, runPlan, manifest)
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.NotEmpty(t, doc["fingerprint"])
}

func TestPlanCmd_Errors(t *testing.T) {
	planFlags = planFlagValues{}
	dir := t.TempDir()

	tests := []struct {
		name     string
		path     string
		output   string
		wantCode int
	}{
		{"structural cycle", writeFile(t, dir, "cycle.yaml", cyclicManifest), "", pgplan.ExitPlanFailed},
		{"malformed manifest", writeFile(t, dir, "bad.yaml", "objects: [\n"), "", pgplan.ExitPlanFailed},
		{"missing path", filepath.Join(dir, "nope.yaml"), "", pgplan.ExitConfigError},
		{"bad output format", writeFile(t, dir, "ok.yaml", budgetingManifest), "xml", pgplan.ExitUsageError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			planFlags.output = tt.output
			defer func() { planFlags = planFlagValues{} }()

			_, err := runCommand(t, planCmd, runPlan, tt.path)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, pgplan.ExitCodeForError(err), "error: %v", err)
		})
	}
}

func TestPlanCmd_ProjectConfigDefinitions(t *testing.T) {
	planFlags = planFlagValues{}
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "schema"), 0o755))
	writeFile(t, filepath.Join(dir, "schema"), "objects.yaml", budgetingManifest)
	writeFile(t, dir, "pgplan.yaml", "definitions: schema/objects.yaml\noutput: yaml\n")

	out, err := runCommand(t, planCmd, runPlan, dir)

	require.NoError(t, err)
	assert.Contains(t, out, "fingerprint:")
	assert.Contains(t, out, "subject: families")
}

func TestDeployCmd_DryRunJournalsAndHistoryLists(t *testing.T) {
	clearConnectionEnv(t)
	dir := t.TempDir()
	manifest := writeFile(t, dir, "schema.yaml", budgetingManifest)
	journalPath := filepath.Join(dir, "runs.db")

	deployFlags = deployFlagValues{dryRun: true, journal: journalPath, timeout: time.Minute}
	defer func() { deployFlags = deployFlagValues{} }()

	out, err := runCommand(t, deployCmd, runDeploy, manifest)
	require.NoError(t, err)
	assert.Contains(t, out, "DRY_RUN")

	historyFlags = historyFlagValues{journal: journalPath, output: "json"}
	defer func() { historyFlags = historyFlagValues{} }()

	out, err = runCommand(t, historyCmd, runHistory)
	require.NoError(t, err)

	var runs []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, "DRY_RUN", runs[0]["status"])
	assert.EqualValues(t, 5, runs[0]["step_count"])

	historyFlags = historyFlagValues{journal: journalPath, runID: runs[0]["run_id"].(string)}
	out, err = runCommand(t, historyCmd, runHistory)
	require.NoError(t, err)
	assert.Contains(t, out, "ApplyDeferredConstraint")
	assert.Contains(t, out, "NOT_ATTEMPTED")
}

func TestDeployCmd_FingerprintMismatch(t *testing.T) {
	clearConnectionEnv(t)
	manifest := writeFile(t, t.TempDir(), "schema.yaml", budgetingManifest)

	deployFlags = deployFlagValues{dryRun: true, expectFingerprint: "not-a-fingerprint", timeout: time.Minute}
	defer func() { deployFlags = deployFlagValues{} }()

	_, err := runCommand(t, deployCmd, runDeploy, manifest)
	assert.Equal(t, pgplan.ExitPlanFailed, pgplan.ExitCodeForError(err))
}

func TestHistoryCmd_NoJournal(t *testing.T) {
	historyFlags = historyFlagValues{}

	_, err := runCommand(t, historyCmd, runHistory)
	assert.Equal(t, pgplan.ExitUsageError, pgplan.ExitCodeForError(err))
}

func TestHistoryCmd_EmptyJournal(t *testing.T) {
	historyFlags = historyFlagValues{journal: filepath.Join(t.TempDir(), "runs.db")}
	defer func() { historyFlags = historyFlagValues{} }()

	out, err := runCommand(t, historyCmd, runHistory)
	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded")
}

func TestSelectApprover(t *testing.T) {
	tests := []struct {
		name        string
		dryRun      bool
		yes         bool
		interactive bool
		wantAuto    bool
		wantErr     bool
	}{
		{name: "dry run", dryRun: true, wantAuto: true},
		{name: "yes", yes: true, wantAuto: true},
		{name: "interactive prompt", interactive: true},
		{name: "non-interactive without yes", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			approver, err := selectApprover(tt.dryRun, tt.yes, tt.interactive)
			if tt.wantErr {
				assert.Equal(t, pgplan.ExitUsageError, pgplan.ExitCodeForError(err))
				return
			}
			require.NoError(t, err)
			_, isAuto := approver.(ui.AutoApprover)
			assert.Equal(t, tt.wantAuto, isAuto)
		})
	}
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"plan", "deploy", "validate", "history", "version"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}
