package spawner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"brisk/internal/object"
	"brisk/internal/runtime"
)

// waitDelay bounds how long Wait keeps copying output from pipes held open
// by grandchildren after the shell itself has exited.
const waitDelay = 2 * time.Second

// Output receives the command's lines. runtime.Journal satisfies it.
type Output interface {
	Info(msg string)
	Err(msg string)
}

type Options struct {
	Command string
	Cwd     string
	Shell   string   // "sh" when empty
	Env     []string // appended to the current environment
}

// Spawn runs opts.Command through the shell and streams stdout to
// out.Info and stderr to out.Err line by line. Process outcomes are values:
// a non-zero exit or a kill is Failed, a start failure is RunError. Only
// failures to set up the child are returned as errors.
func Spawn(ctx context.Context, opts Options, out Output) (object.Object, error) {
	shell := opts.Shell
	if shell == "" {
		shell = "sh"
	}
	cmd := exec.CommandContext(ctx, shell, "-c", opts.Command)
	cmd.Dir = opts.Cwd
	cmd.Env = append(os.Environ(), opts.Env...)
	cmd.WaitDelay = waitDelay
	setupProcessGroup(cmd)

	stdout := &lineWriter{emit: out.Info}
	stderr := &lineWriter{emit: out.Err}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		slog.Debug("spawn failed", slog.String("command", opts.Command), slog.Any("error", err))
		var sysErr *os.SyscallError
		if errors.As(err, &sysErr) {
			return nil, fmt.Errorf("%w: %v", runtime.ErrSpawnSetup, err)
		}
		return object.RunError(err.Error()), nil
	}
	slog.Debug("spawned",
		slog.String("command", opts.Command),
		slog.String("cwd", opts.Cwd),
		slog.Int("pid", cmd.Process.Pid))

	err := cmd.Wait()
	stdout.flush()
	stderr.flush()
	slog.Debug("process exited",
		slog.String("command", opts.Command),
		slog.Duration("elapsed", time.Since(start)),
		slog.Any("error", err))
	return outcome(err), nil
}

func outcome(err error) object.Object {
	if err == nil {
		return object.Success()
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// -1 when the process was terminated by a signal
		return object.Failed(exitErr.ExitCode())
	}
	if errors.Is(err, exec.ErrWaitDelay) {
		return object.Success()
	}
	return object.RunError(err.Error())
}

// maxLine caps a buffered line; longer output is emitted in chunks.
const maxLine = 1024 * 1024

// lineWriter splits process output into lines. exec.Cmd copies each pipe
// from its own goroutine, so a writer is never used concurrently.
type lineWriter struct {
	emit func(string)
	buf  []byte
}

func (w *lineWriter) Write(p []byte) (int, error) {
	n := len(p)
	for len(p) > 0 {
		i := bytes.IndexByte(p, '\n')
		if i < 0 {
			w.buf = append(w.buf, p...)
			if len(w.buf) >= maxLine {
				w.flush()
			}
			break
		}
		w.buf = append(w.buf, p[:i]...)
		w.line()
		p = p[i+1:]
	}
	return n, nil
}

func (w *lineWriter) line() {
	line := strings.TrimSuffix(string(w.buf), "\r")
	w.buf = w.buf[:0]
	w.emit(line)
}

// flush emits the pending partial line, if any.
func (w *lineWriter) flush() {
	if len(w.buf) > 0 {
		w.line()
	}
}
