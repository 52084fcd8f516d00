package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"brisk/internal/ast"
	"brisk/internal/functions"
	"brisk/internal/interpreter"
	"brisk/internal/object"
	"brisk/internal/reporter"
	"brisk/internal/runtime"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

type runFlags struct {
	cwd           string
	output        string
	maxIterations int
	watch         bool
}

func newRunCmd(o *options) *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "run <ast-file> [component:task] [args...]",
		Short: "Run a task of a compiled script",
		Long: `Run executes one task of a compiled script document. The target is either
"task", "component:task" or "component:". Without a target the first task of
the first component runs. Remaining arguments are passed to the task.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := args[0]
			var target string
			if len(args) > 1 {
				target = args[1]
			}
			var taskArgs []string
			if len(args) > 2 {
				taskArgs = args[2:]
			}
			params, err := o.parameters(cmd, f, target, taskArgs)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if f.watch {
				return watch(ctx, file, func() {
					val, anchor, err := runScript(ctx, file, params)
					report(cmd.ErrOrStderr(), anchor, val, err)
				})
			}
			val, anchor, err := runScript(ctx, file, params)
			if code := report(cmd.ErrOrStderr(), anchor, val, err); code != 0 {
				return &exitStatus{code: code}
			}
			return nil
		},
	}
	cmd.Flags().SetInterspersed(false)

	cmd.Flags().StringVar(&f.cwd, "cwd", "", "working directory of the script (default: current directory)")
	cmd.Flags().StringVar(&f.output, "output", "logs", "journal output: logs, progress or none")
	cmd.Flags().IntVar(&f.maxIterations, "max-iterations", runtime.DefaultMaxIterations, "iteration limit of a single loop")
	cmd.Flags().BoolVar(&f.watch, "watch", false, "re-run whenever the script file changes")

	return cmd
}

// parameters merges flags over settings over defaults.
func (o *options) parameters(cmd *cobra.Command, f runFlags, target string, args []string) (runtime.RtParameters, error) {
	s := o.settings
	if !cmd.Flags().Changed("cwd") && s.Cwd != "" {
		f.cwd = s.Cwd
	}
	if !cmd.Flags().Changed("output") && s.Output != "" {
		f.output = s.Output
	}
	if !cmd.Flags().Changed("max-iterations") && s.MaxIterations > 0 {
		f.maxIterations = s.MaxIterations
	}
	if f.maxIterations <= 0 {
		return runtime.RtParameters{}, fmt.Errorf("--max-iterations must be positive, got %d", f.maxIterations)
	}
	mode, err := reporter.ParseMode(f.output)
	if err != nil {
		return runtime.RtParameters{}, err
	}
	component, task := splitTarget(target)
	return runtime.RtParameters{
		Cwd:           f.cwd,
		Output:        mode,
		MaxIterations: f.maxIterations,
		Component:     component,
		Task:          task,
		Args:          args,
		Shell:         s.Shell,
		Env:           s.Environ(),
		Writer:        cmd.OutOrStdout(),
		Color:         mode == reporter.ModeLogs && isTerminal(),
	}, nil
}

func splitTarget(target string) (component, task string) {
	if component, task, ok := strings.Cut(target, ":"); ok {
		return component, task
	}
	return "", target
}

// runScript loads the document and runs its entry task on a fresh runtime.
// Cancelling ctx aborts every job of the run.
func runScript(ctx context.Context, file string, params runtime.RtParameters) (object.Object, *ast.Anchor, error) {
	anchor, err := ast.Load(file)
	if err != nil {
		return nil, nil, fmt.Errorf("load %s: %w", file, err)
	}
	rt, err := runtime.New(params, anchor, runtime.WithEmbedded(functions.All()...))
	if err != nil {
		return nil, anchor, err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := rt.Destroy(stopCtx); err != nil {
			slog.Warn("runtime shutdown incomplete", slog.Any("error", err))
		}
	}()
	defer context.AfterFunc(ctx, rt.Abort)()

	started := time.Now()
	val, err := interpreter.Run(rt)
	slog.Debug("run finished",
		slog.String("file", file),
		slog.Duration("elapsed", time.Since(started)),
		slog.Bool("failed", err != nil))
	return val, anchor, err
}

// report prints a diagnostic for a failed run and returns its exit code.
func report(w io.Writer, anchor *ast.Anchor, val object.Object, err error) int {
	code := ExitCode(val, err)
	var exit *runtime.ExitError
	if err != nil && !errors.As(err, &exit) {
		fmt.Fprint(w, Diagnose(err, anchor))
	}
	return code
}

// ExitCode maps the outcome of a run to a process exit status: the code
// requested by process::exit, the code of a failed command result, 1 for any
// other error and 0 otherwise.
func ExitCode(val object.Object, err error) int {
	var exit *runtime.ExitError
	if errors.As(err, &exit) {
		return exit.Code
	}
	if err != nil {
		return 1
	}
	if res, ok := val.(*object.ExecuteResult); ok && !res.IsSuccess() {
		if res.Code > 0 {
			return res.Code
		}
		return 1
	}
	return 0
}
