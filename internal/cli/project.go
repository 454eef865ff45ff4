package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/vvka-141/pgplan/internal/config"
	"github.com/vvka-141/pgplan/internal/report"
	"github.com/vvka-141/pgplan/internal/tui"
	"github.com/vvka-141/pgplan/pkg/pgplan"
)

// project is the <path> argument resolved against an optional pgplan.yaml.
type project struct {
	SourcePath string
	Config     *config.ProjectConfig
}

// loadProject resolves path. A directory holding pgplan.yaml with a
// definitions entry plans that entry; any other path is planned as given.
func loadProject(path string) (*project, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("definitions path %q: %v: %w", path, err, pgplan.ErrInvalidConfig)
	}

	dir := path
	if !info.IsDir() {
		dir = filepath.Dir(path)
	}

	cfg, err := config.Load(dir)
	if err != nil {
		if !errors.Is(err, config.ErrConfigNotFound) {
			return nil, fmt.Errorf("failed to load %s: %w", config.ConfigFileName, err)
		}
		cfg = nil
	}

	p := &project{SourcePath: path, Config: cfg}
	if info.IsDir() && cfg != nil && cfg.DefinitionsPath() != "" {
		p.SourcePath = cfg.DefinitionsPath()
	}
	return p, nil
}

// timeout prefers an explicit --timeout, then pgplan.yaml, then the flag default.
func (p *project) timeout(cmd *cobra.Command, flagTimeout time.Duration) (time.Duration, error) {
	if p.Config == nil || p.Config.Timeout == "" || cmd.Flags().Changed("timeout") {
		return flagTimeout, nil
	}
	return p.Config.TimeoutDuration()
}

func (p *project) journal(flagJournal string) string {
	if flagJournal != "" || p.Config == nil {
		return flagJournal
	}
	return p.Config.JournalPath()
}

func (p *project) format(flagOutput string) (report.Format, error) {
	if flagOutput == "" && p.Config != nil {
		flagOutput = p.Config.Output
	}
	return report.ParseFormat(flagOutput)
}

// newRenderer writes reports to the command's stdout, in color only on a terminal.
func newRenderer(cmd *cobra.Command, format report.Format) *report.Renderer {
	out := cmd.OutOrStdout()
	color := false
	if f, ok := out.(*os.File); ok && format == report.FormatText {
		color = tui.ColorEnabled(f)
	}
	return report.NewRenderer(out, format, color)
}
