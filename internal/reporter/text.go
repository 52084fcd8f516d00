package reporter

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
)

var (
	aliasStyle   = lipgloss.NewStyle().Bold(true)
	debugStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))  // gray
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // yellow
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // red
	startStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("14")) // cyan
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green
	skippedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// TextReporter prints one line per record and per job transition.
type TextReporter struct {
	w       io.Writer
	color   bool
	started map[uuid.UUID]time.Time
	mu      sync.Mutex
}

// NewTextReporter creates a text reporter. If w is nil, defaults to os.Stdout.
func NewTextReporter(w io.Writer, color bool) *TextReporter {
	if w == nil {
		w = os.Stdout
	}
	return &TextReporter{w: w, color: color, started: make(map[uuid.UUID]time.Time)}
}

func (r *TextReporter) render(st lipgloss.Style, s string) string {
	if !r.color {
		return s
	}
	return st.Render(s)
}

func (r *TextReporter) Record(rec Record) {
	r.mu.Lock()
	defer r.mu.Unlock()

	msg := rec.Message
	switch rec.Level {
	case LevelDebug:
		msg = r.render(debugStyle, msg)
	case LevelWarn:
		msg = r.render(warnStyle, msg)
	case LevelErr:
		msg = r.render(errStyle, msg)
	}
	fmt.Fprintf(r.w, "[%s] %s\n", r.render(aliasStyle, rec.Alias), msg)
}

func (r *TextReporter) Job(ev JobEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ev.State == JobRunning {
		r.started[ev.Owner] = ev.At
		fmt.Fprintf(r.w, "%s\n", r.render(startStyle, "▶ "+ev.Alias))
		return
	}
	var elapsed time.Duration
	if at, ok := r.started[ev.Owner]; ok {
		elapsed = ev.At.Sub(at).Truncate(time.Millisecond)
		delete(r.started, ev.Owner)
	}
	switch ev.State {
	case JobDone:
		fmt.Fprintf(r.w, "%s\n", r.render(doneStyle, fmt.Sprintf("✓ %s (%s)", ev.Alias, elapsed)))
	case JobFailed:
		fmt.Fprintf(r.w, "%s\n", r.render(errStyle, fmt.Sprintf("✗ %s (%s)", ev.Alias, elapsed)))
	case JobSkipped:
		fmt.Fprintf(r.w, "%s\n", r.render(skippedStyle, "⊘ "+ev.Alias+" skipped"))
	case JobCancelled:
		fmt.Fprintf(r.w, "%s\n", r.render(warnStyle, "■ "+ev.Alias+" cancelled"))
	}
}

func (r *TextReporter) Close() error { return nil }
