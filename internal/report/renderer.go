package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/vvka-141/pgplan/internal/tui"
	"github.com/vvka-141/pgplan/pkg/pgplan"
	"gopkg.in/yaml.v3"
)

// Renderer writes reports to w in one format.
type Renderer struct {
	w      io.Writer
	format Format
	color  bool
}

// NewRenderer creates a renderer. color only affects the text format.
func NewRenderer(w io.Writer, format Format, color bool) *Renderer {
	if w == nil {
		panic("writer cannot be nil")
	}
	return &Renderer{w: w, format: format, color: color}
}

func (r *Renderer) Plan(plan *pgplan.Plan) error {
	if r.format != FormatText {
		return r.encode(NewPlanDocument(plan))
	}
	return r.planText(plan)
}

func (r *Renderer) Execution(report *pgplan.ExecutionReport) error {
	if r.format != FormatText {
		return r.encode(NewExecutionDocument(report))
	}
	return r.executionText(report)
}

func (r *Renderer) Validation(report *pgplan.ValidationReport) error {
	if r.format != FormatText {
		return r.encode(NewValidationDocument(report))
	}
	return r.validationText(report)
}

func (r *Renderer) encode(doc interface{}) error {
	switch r.format {
	case FormatJSON:
		enc := json.NewEncoder(r.w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(r.w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format %q", r.format)
	}
}

func (r *Renderer) paint(style lipgloss.Style, s string) string {
	if !r.color {
		return s
	}
	return style.Render(s)
}

func edgeLabel(e pgplan.DependencyEdge) string {
	if name := e.ConstraintName(); name != "" {
		return fmt.Sprintf("%s [%s]", e, name)
	}
	return e.String()
}

func (r *Renderer) planText(plan *pgplan.Plan) error {
	var b strings.Builder
	steps := plan.Steps()
	deferred := len(plan.Deferred())

	fmt.Fprintf(&b, "%s %s\n", r.paint(tui.HeaderStyle, "Fingerprint:"), plan.Fingerprint())
	fmt.Fprintf(&b, "Steps:       %d (%d object(s), %d deferred constraint(s))\n\n", len(steps), len(steps)-deferred, deferred)

	for i, step := range steps {
		fmt.Fprintf(&b, "%4d. %s\n", i+1, step)
		for _, e := range step.Inline() {
			fmt.Fprintf(&b, "        %s %s\n", r.paint(tui.MutedStyle, "+"), edgeLabel(e))
		}
	}

	_, err := io.WriteString(r.w, b.String())
	return err
}

func (r *Renderer) outcomeSymbol(o pgplan.Outcome) string {
	switch o {
	case pgplan.OutcomeSuccess:
		return r.paint(tui.SuccessStyle, tui.SymbolCheck)
	case pgplan.OutcomeFailed:
		return r.paint(tui.ErrorStyle, tui.SymbolCross)
	default:
		return r.paint(tui.MutedStyle, tui.SymbolPending)
	}
}

func (r *Renderer) statusLine(report *pgplan.ExecutionReport) string {
	summary := report.Summary()
	switch report.Status {
	case pgplan.StatusSuccess:
		return r.paint(tui.SuccessStyle, summary)
	case pgplan.StatusFailed:
		return r.paint(tui.ErrorStyle, summary)
	default:
		return r.paint(tui.WarningStyle, summary)
	}
}

func (r *Renderer) executionText(report *pgplan.ExecutionReport) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Run:      %s\n", report.RunID)
	fmt.Fprintf(&b, "Status:   %s\n", r.statusLine(report))
	fmt.Fprintf(&b, "Started:  %s\n", report.StartedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Duration: %s\n\n", report.FinishedAt.Sub(report.StartedAt))

	for _, res := range report.Results {
		fmt.Fprintf(&b, "  %s %3d. %s", r.outcomeSymbol(res.Outcome), res.Index, res.Step)
		if res.Outcome != pgplan.OutcomeNotAttempted {
			fmt.Fprintf(&b, " (%s)", res.Duration)
		}
		b.WriteString("\n")
		if res.Error != "" {
			fmt.Fprintf(&b, "          error: %s\n", res.Error)
		}
	}

	if rollback := Rollback(report); len(rollback) > 0 {
		fmt.Fprintf(&b, "\n%s\n", r.paint(tui.WarningStyle, "Rollback guidance (not executed):"))
		for _, stmt := range rollback {
			fmt.Fprintf(&b, "  -- undo %d. %s\n  %s;\n", stmt.Index, stmt.Step, stmt.Statement)
		}
	}

	_, err := io.WriteString(r.w, b.String())
	return err
}

func (r *Renderer) validationText(report *pgplan.ValidationReport) error {
	var b strings.Builder
	checked := fmt.Sprintf("%d object(s), %d constraint(s) checked", report.ObjectsChecked, report.ConstraintsChecked)

	if report.Passed() {
		fmt.Fprintf(&b, "%s Target matches the catalog: %s\n", r.paint(tui.SuccessStyle, tui.SymbolCheck), checked)
	} else {
		fmt.Fprintf(&b, "%s %d finding(s): %s\n\n", r.paint(tui.ErrorStyle, tui.SymbolCross), len(report.Findings), checked)
		for _, f := range report.Findings {
			fmt.Fprintf(&b, "  %-17s  %s\n", f.Kind, f.Message)
		}
	}

	_, err := io.WriteString(r.w, b.String())
	return err
}
