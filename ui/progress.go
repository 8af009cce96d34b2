// Package ui shows a live progress screen while an analysis runs.
package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"property-agent/models"
)

var (
	statusStyle = lipgloss.NewStyle().Bold(true)
	stepStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	hintStyle   = lipgloss.NewStyle().Faint(true)
)

// RunFunc is one analysis run reporting progress through the given callback.
type RunFunc func(ctx context.Context, progress models.ProgressFunc) (*models.AnalysisResult, error)

type progressMsg struct {
	fraction float64
	status   string
}

type doneMsg struct{}

// Model is the bubbletea model of the progress screen.
type Model struct {
	spinner    spinner.Model
	bar        progress.Model
	fraction   float64
	status     string
	steps      []string
	done       bool
	cancelling bool
	cancel     context.CancelFunc
}

// NewModel creates the progress screen. cancel is called when the user
// presses ctrl+c or q.
func NewModel(cancel context.CancelFunc) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return Model{
		spinner: sp,
		bar:     progress.New(progress.WithDefaultGradient()),
		status:  "Starting analysis...",
		cancel:  cancel,
	}
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if m.cancelling {
				return m, tea.Quit
			}
			m.cancelling = true
			m.status = "Cancelling..."
			if m.cancel != nil {
				m.cancel()
			}
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.bar.Width = min(max(msg.Width-4, 20), 80)
		return m, nil

	case progressMsg:
		if m.status != "" && m.fraction > 0 {
			m.steps = append(m.steps, m.status)
		}
		m.fraction = msg.fraction
		m.status = msg.status
		return m, nil

	case doneMsg:
		m.done = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder
	for _, s := range m.steps {
		b.WriteString(stepStyle.Render("✓ " + s))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "%s %s\n\n", m.spinner.View(), statusStyle.Render(m.status))
	b.WriteString(m.bar.ViewAs(m.fraction))
	b.WriteString("\n\n")
	b.WriteString(hintStyle.Render("ctrl+c to cancel"))
	b.WriteString("\n")
	return b.String()
}

// RunWithProgress runs fn in the background while showing the progress
// screen, and returns fn's result once it finishes. Options are passed to
// the bubbletea program.
func RunWithProgress(ctx context.Context, fn RunFunc, opts ...tea.ProgramOption) (*models.AnalysisResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewModel(cancel), opts...)

	type outcome struct {
		res *models.AnalysisResult
		err error
	}
	finished := make(chan outcome, 1)
	go func() {
		res, err := fn(ctx, func(fraction float64, status string) {
			p.Send(progressMsg{fraction: fraction, status: status})
		})
		finished <- outcome{res, err}
		p.Send(doneMsg{})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-finished
		return nil, fmt.Errorf("ui: progress screen: %w", err)
	}

	// The screen can exit before fn returns when the user forces a quit.
	cancel()
	out := <-finished
	return out.res, out.err
}
