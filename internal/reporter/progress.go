package reporter

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
)

var spinnerChars = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	runStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

const maxLineWidth = 80

type tickMsg time.Time

type recordMsg Record

type jobMsg JobEvent

type closeMsg struct{}

type jobRow struct {
	owner    uuid.UUID
	parent   uuid.UUID
	alias    string
	state    JobState
	started  time.Time
	finished time.Time
	last     string
}

// ProgressModel is the bubbletea model rendering the job tree.
type ProgressModel struct {
	rows  map[uuid.UUID]*jobRow
	order []uuid.UUID
	frame int
	done  bool
}

func NewProgressModel() ProgressModel {
	return ProgressModel{rows: make(map[uuid.UUID]*jobRow)}
}

// Init implements tea.Model.
func (m ProgressModel) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(120*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if m.done {
			return m, nil
		}
		m.frame++
		return m, tickCmd()

	case jobMsg:
		row, ok := m.rows[msg.Owner]
		if !ok {
			row = &jobRow{owner: msg.Owner, parent: msg.Parent, alias: msg.Alias, started: msg.At}
			m.rows[msg.Owner] = row
			m.order = append(m.order, msg.Owner)
		}
		row.state = msg.State
		if msg.State.Finished() {
			row.finished = msg.At
		}

	case recordMsg:
		if row, ok := m.rows[msg.Owner]; ok {
			row.last = msg.Message
		}

	case closeMsg:
		m.done = true
		return m, tea.Quit

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m ProgressModel) depth(row *jobRow) int {
	d := 0
	for p, ok := m.rows[row.parent]; ok && d < 32; p, ok = m.rows[p.parent] {
		d++
	}
	return d
}

// View implements tea.Model.
func (m ProgressModel) View() string {
	var b strings.Builder
	var running, finished int
	for _, row := range m.rows {
		if row.state.Finished() {
			finished++
		} else {
			running++
		}
	}
	b.WriteString(headerStyle.Render(fmt.Sprintf("brisk: %d running, %d finished", running, finished)))
	b.WriteString("\n")

	spinner := spinnerChars[m.frame%len(spinnerChars)]
	for _, id := range m.order {
		row := m.rows[id]
		indent := strings.Repeat("  ", m.depth(row)+1)
		b.WriteString(indent)
		b.WriteString(m.rowLine(row, spinner))
		b.WriteString("\n")
		if row.last != "" && !row.state.Finished() {
			b.WriteString(indent + "  ")
			b.WriteString(dimStyle.Render(truncate(row.last, maxLineWidth)))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m ProgressModel) rowLine(row *jobRow, spinner string) string {
	switch row.state {
	case JobRunning:
		elapsed := time.Since(row.started).Truncate(time.Second)
		return runStyle.Render(fmt.Sprintf("%s %s %s", spinner, row.alias, elapsed))
	case JobDone:
		return doneStyle.Render(fmt.Sprintf("✓ %s %s", row.alias, row.finished.Sub(row.started).Truncate(time.Millisecond)))
	case JobFailed:
		return errStyle.Render("✗ " + row.alias)
	case JobSkipped:
		return skippedStyle.Render("⊘ " + row.alias + " skipped")
	case JobCancelled:
		return warnStyle.Render("■ " + row.alias + " cancelled")
	}
	return row.alias
}

func truncate(s string, n int) string {
	s = strings.TrimRight(s, "\r\n")
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// ProgressReporter drives a bubbletea program from journal events.
type ProgressReporter struct {
	program *tea.Program
	done    chan struct{}
	err     error
	once    sync.Once
}

func NewProgressReporter(w io.Writer) *ProgressReporter {
	p := &ProgressReporter{
		program: tea.NewProgram(NewProgressModel(), tea.WithOutput(w), tea.WithInput(nil)),
		done:    make(chan struct{}),
	}
	go func() {
		defer close(p.done)
		_, p.err = p.program.Run()
	}()
	return p
}

func (p *ProgressReporter) Record(rec Record) { p.program.Send(recordMsg(rec)) }
func (p *ProgressReporter) Job(ev JobEvent)   { p.program.Send(jobMsg(ev)) }

// Close stops the program after it has drawn its final frame.
func (p *ProgressReporter) Close() error {
	p.once.Do(func() {
		p.program.Send(closeMsg{})
		<-p.done
	})
	return p.err
}
