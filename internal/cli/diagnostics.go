package cli

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"brisk/internal/ast"
	"brisk/internal/object"
	"brisk/internal/runtime"

	"github.com/charmbracelet/lipgloss"
)

var (
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	gutterStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	markStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// contextBefore is the number of source lines shown above the failing one.
const contextBefore = 2

// Diagnose renders err for the terminal. When err carries a source position
// and the anchor holds that source, the surrounding lines are shown with the
// failing span underlined.
func Diagnose(err error, anchor *ast.Anchor) string {
	var b strings.Builder
	header := "error"
	if code := object.Coded(err); code != "" {
		header += "[" + code + "]"
	}
	fmt.Fprintf(&b, "%s: %s\n", errorStyle.Render(header), err.Error())

	var linked *runtime.LinkedErr
	if !errors.As(err, &linked) || linked.Link == (ast.SrcLink{}) {
		return b.String()
	}
	link := linked.Link
	var src string
	var ok bool
	if anchor != nil {
		src, ok = anchor.Sources[link.File]
	}
	if !ok || link.From < 0 || link.From > len(src) {
		fmt.Fprintf(&b, "%s%s\n", gutterStyle.Render("  --> "), link)
		return b.String()
	}

	line, column := lineAndColumn(src, link.From)
	fmt.Fprintf(&b, "%s%s:%d:%d\n", gutterStyle.Render("  --> "), link.File, line, column)
	b.WriteString(contextLines(src, line, link.From, link.To))
	return b.String()
}

// lineAndColumn converts a byte offset into 1-based line and rune column.
func lineAndColumn(src string, pos int) (line int, column int) {
	before := src[:pos]
	line = strings.Count(before, "\n") + 1
	lineStart := strings.LastIndexByte(before, '\n') + 1
	column = utf8.RuneCountInString(before[lineStart:]) + 1
	return
}

// contextLines formats the failing line and the lines before it, with a
// marker under the span [from, to) clipped to the failing line.
func contextLines(src string, errorLine, from, to int) string {
	var b strings.Builder
	lines := strings.Split(src, "\n")

	start := max(errorLine-contextBefore, 1)
	for i := start; i < errorLine; i++ {
		fmt.Fprintf(&b, "%s%s\n", gutterStyle.Render(fmt.Sprintf("     %3d | ", i)), lines[i-1])
	}

	content := lines[errorLine-1]
	margin := fmt.Sprintf("  >  %3d | ", errorLine)
	fmt.Fprintf(&b, "%s%s\n", gutterStyle.Render(margin), content)

	lineStart := strings.LastIndexByte(src[:from], '\n') + 1
	prefix := src[lineStart:from]
	width := utf8.RuneCountInString(src[from:min(max(to, from), lineStart+len(content))])
	fmt.Fprintf(&b, "%s%s%s\n", strings.Repeat(" ", len(margin)), blank(prefix), markStyle.Render(strings.Repeat("^", max(width, 1))))
	return b.String()
}

// blank replaces every visible character with a space, keeping tabs so the
// marker lines up with the source.
func blank(s string) string {
	var b strings.Builder
	for _, c := range s {
		if c == '\t' {
			b.WriteRune('\t')
		} else {
			b.WriteRune(' ')
		}
	}
	return b.String()
}
