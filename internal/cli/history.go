package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vvka-141/pgplan/internal/checksum"
	"github.com/vvka-141/pgplan/internal/journal"
	"github.com/vvka-141/pgplan/internal/logging"
	"github.com/vvka-141/pgplan/internal/report"
	"github.com/vvka-141/pgplan/internal/tui"
)

var historyCmd = &cobra.Command{
	Use:   "history [path]",
	Short: "List deployments recorded in the run journal",
	Long: `History reads the SQLite run journal written by 'pgplan deploy --journal'
and lists the recorded runs, newest first. With --run it lists the step
outcomes of one run.

The journal is taken from --journal, or from the journal entry of the
pgplan.yaml found at [path].

Examples:
  pgplan history --journal runs.db
  pgplan history ./schema --limit 5
  pgplan history --journal runs.db --run 7f0c2a4e-... -o json`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) > 1 {
			return usageError(fmt.Errorf("accepts at most 1 arg(s), received %d", len(args)))
		}
		return nil
	},
	RunE: runHistory,
}

type historyFlagValues struct {
	journal string
	limit   int
	runID   string
	output  string
}

var historyFlags historyFlagValues

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().StringVar(&historyFlags.journal, "journal", "",
		"SQLite journal file (default: pgplan.yaml journal)")
	historyCmd.Flags().IntVarP(&historyFlags.limit, "limit", "n", 20,
		"Maximum number of runs to list (0 lists all)")
	historyCmd.Flags().StringVar(&historyFlags.runID, "run", "",
		"List the steps of this run instead")
	historyCmd.Flags().StringVarP(&historyFlags.output, "output", "o", "",
		"Output format: text|json|yaml")
}

func runHistory(cmd *cobra.Command, args []string) error {
	logger := logging.NewConsoleLogger(getVerboseFlag(cmd))

	path := historyFlags.journal
	format, err := report.ParseFormat(historyFlags.output)
	if err != nil {
		return err
	}
	if len(args) == 1 {
		proj, err := loadProject(args[0])
		if err != nil {
			return err
		}
		path = proj.journal(historyFlags.journal)
		if format, err = proj.format(historyFlags.output); err != nil {
			return err
		}
	}
	if path == "" {
		return usageError(fmt.Errorf("no journal configured\n" +
			"Pass --journal <file>, or a path whose pgplan.yaml sets 'journal'"))
	}

	j, err := journal.Open(path, logger)
	if err != nil {
		return err
	}
	defer j.Close()

	ctx := commandContext(cmd.Context())
	out := cmd.OutOrStdout()

	if historyFlags.runID != "" {
		steps, err := j.Steps(ctx, historyFlags.runID)
		if err != nil {
			return err
		}
		if len(steps) == 0 {
			return fmt.Errorf("run %q not found in %s", historyFlags.runID, path)
		}
		if format != report.FormatText {
			return encodeHistory(out, format, steps)
		}
		return writeStepTable(out, steps)
	}

	runs, err := j.Runs(ctx, historyFlags.limit)
	if err != nil {
		return err
	}
	if format != report.FormatText {
		if runs == nil {
			runs = []journal.Run{}
		}
		return encodeHistory(out, format, runs)
	}
	if len(runs) == 0 {
		_, err := fmt.Fprintf(out, "No runs recorded in %s\n", path)
		return err
	}
	return writeRunTable(out, runs)
}

func encodeHistory(w io.Writer, format report.Format, v interface{}) error {
	if format == report.FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func historyTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(tui.MutedStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tui.HeaderStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
}

func writeRunTable(w io.Writer, runs []journal.Run) error {
	t := historyTable("RUN", "STARTED", "STATUS", "STEPS", "FINGERPRINT", "REASON")
	for _, r := range runs {
		status := r.Status
		if r.FailedIndex > 0 {
			status = fmt.Sprintf("%s(%d)", r.Status, r.FailedIndex)
		}
		t.Row(r.RunID, r.StartedAt, status, strconv.Itoa(r.StepCount), checksum.Short(r.Fingerprint), r.Reason)
	}
	_, err := fmt.Fprintln(w, t.String())
	return err
}

func writeStepTable(w io.Writer, steps []journal.StepRecord) error {
	t := historyTable("#", "KIND", "SUBJECT", "OUTCOME", "DURATION", "ERROR")
	for _, s := range steps {
		t.Row(strconv.Itoa(s.Index), s.Kind, s.Subject, s.Outcome, fmt.Sprintf("%dms", s.DurationMS), s.Error)
	}
	_, err := fmt.Fprintln(w, t.String())
	return err
}
