package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/vvka-141/pgplan/internal/executor"
	"github.com/vvka-141/pgplan/pkg/pgplan"
)

// eventMsg carries an executor event into the bubbletea loop.
type eventMsg executor.Event

// progressModel shows finished steps and a spinner for the one in flight.
type progressModel struct {
	spinner     spinner.Model
	keys        ProgressKeyMap
	cancel      context.CancelFunc
	total       int
	current     string
	lines       []string
	interrupted bool
	done        bool
}

func newProgressModel(cancel context.CancelFunc) progressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle
	return progressModel{spinner: s, keys: DefaultProgressKeyMap(), cancel: cancel}
}

func (m progressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Interrupt) && !m.interrupted {
			m.interrupted = true
			if m.cancel != nil {
				m.cancel()
			}
		}
		return m, nil

	case eventMsg:
		return m.apply(executor.Event(msg))

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m progressModel) apply(ev executor.Event) (tea.Model, tea.Cmd) {
	switch ev.Kind {
	case executor.EventStepStarted:
		m.total = ev.Total
		m.current = fmt.Sprintf("[%d/%d] %s", ev.Index, ev.Total, ev.Step)
	case executor.EventStepFinished:
		m.current = ""
		line := fmt.Sprintf("[%d/%d] %s (%s)", ev.Index, ev.Total, ev.Step, ev.Elapsed.Round(time.Millisecond))
		if ev.Outcome == pgplan.OutcomeSuccess {
			m.lines = append(m.lines, SuccessStyle.Render(SymbolCheck)+" "+line)
		} else {
			m.lines = append(m.lines, ErrorStyle.Render(SymbolCross)+" "+line)
		}
	case executor.EventRunFinished:
		m.done = true
		m.current = ""
		return m, tea.Quit
	}
	return m, nil
}

func (m progressModel) View() string {
	var b strings.Builder
	for _, l := range m.lines {
		b.WriteString(l)
		b.WriteString("\n")
	}
	if m.current != "" {
		b.WriteString(m.spinner.View() + " " + SubjectStyle.Render(m.current) + "\n")
	}
	if m.interrupted && !m.done {
		b.WriteString(WarningStyle.Render("Stopping after the current step...") + "\n")
	} else if !m.done {
		b.WriteString(MutedStyle.Render(m.keys.Interrupt.Help().Key+" "+m.keys.Interrupt.Help().Desc) + "\n")
	}
	return b.String()
}

// Progress renders live deployment progress. It is an executor.Observer.
type Progress struct {
	program *tea.Program
	wg      sync.WaitGroup
}

// NewProgress creates a progress display writing to out. cancel is called
// when the operator interrupts; the executor then stops between steps.
func NewProgress(out io.Writer, cancel context.CancelFunc) *Progress {
	return &Progress{
		program: tea.NewProgram(newProgressModel(cancel), tea.WithOutput(out)),
	}
}

// Start runs the display in the background.
func (p *Progress) Start() {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		_, _ = p.program.Run()
	}()
}

// OnEvent implements executor.Observer.
func (p *Progress) OnEvent(ev executor.Event) {
	p.program.Send(eventMsg(ev))
}

// Stop ends the display and waits for it to restore the terminal.
func (p *Progress) Stop() {
	p.program.Quit()
	p.wg.Wait()
}

var _ executor.Observer = (*Progress)(nil)
