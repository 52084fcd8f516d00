package cli

import (
	"fmt"
	"io"
	"strings"

	"brisk/internal/ast"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	componentStyle = lipgloss.NewStyle().Bold(true)
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func newTasksCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "tasks <ast-file>",
		Short: "List the components and tasks of a compiled script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			anchor, err := ast.Load(args[0])
			if err != nil {
				return fmt.Errorf("load %s: %w", args[0], err)
			}
			listTasks(cmd.OutOrStdout(), anchor)
			return nil
		},
	}
}

func listTasks(w io.Writer, anchor *ast.Anchor) {
	for _, comp := range anchor.Components {
		line := componentStyle.Render(comp.Name)
		if comp.Cwd != "" {
			line += " " + dimStyle.Render("("+comp.Cwd+")")
		}
		fmt.Fprintln(w, line)
		for _, task := range comp.Tasks {
			fmt.Fprintf(w, "  %s\n", taskSignature(task))
		}
	}
}

func taskSignature(task *ast.Task) string {
	var b strings.Builder
	if task.Public {
		b.WriteString("pub ")
	}
	b.WriteString(task.Name)
	b.WriteByte('(')
	for i, arg := range task.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(arg.Name)
		if arg.Ty != "" {
			b.WriteString(": " + string(arg.Ty))
		}
	}
	b.WriteByte(')')
	if len(task.Dependencies) > 0 {
		deps := make([]string, len(task.Dependencies))
		for i, dep := range task.Dependencies {
			deps[i] = dep.Task
			if dep.Component != "" {
				deps[i] = dep.Component + ":" + dep.Task
			}
		}
		b.WriteString(" " + dimStyle.Render("after "+strings.Join(deps, ", ")))
	}
	return b.String()
}
