//go:build !windows

package spawner

import (
	"context"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"brisk/internal/object"

	"github.com/google/go-cmp/cmp"
)

type lines struct {
	mu  sync.Mutex
	out []string
	err []string
}

func (l *lines) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out = append(l.out, msg)
}

func (l *lines) Err(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.err = append(l.err, msg)
}

func TestSpawnOutcomes(t *testing.T) {
	tests := []struct {
		name    string
		command string
		want    *object.ExecuteResult
	}{
		{"success", "true", object.Success()},
		{"exit code", "exit 3", object.Failed(3)},
		{"missing binary", "definitely-not-a-binary-xyz", object.Failed(127)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Spawn(context.Background(), Options{Command: tt.command, Cwd: t.TempDir()}, &lines{})
			if err != nil {
				t.Fatalf("spawn: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("outcome mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSpawnStartFailureIsRunError(t *testing.T) {
	got, err := Spawn(context.Background(), Options{Command: "true", Shell: "/nonexistent/shell"}, &lines{})
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	res, ok := object.AsExecuteResult(got)
	if !ok || res.Executed() {
		t.Fatalf("expected a run error, got %s", got.Inspect())
	}
}

func TestSpawnStreamsLines(t *testing.T) {
	out := &lines{}
	dir := t.TempDir()
	_, err := Spawn(context.Background(), Options{
		Command: `echo one; echo two; echo oops >&2; echo "$BRISK_TEST_VAR"; pwd`,
		Cwd:     dir,
		Env:     []string{"BRISK_TEST_VAR=from-env"},
	}, out)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	if len(out.out) != 4 {
		t.Fatalf("stdout lines = %q", out.out)
	}
	if diff := cmp.Diff([]string{"one", "two", "from-env"}, out.out[:3]); diff != "" {
		t.Fatalf("stdout mismatch (-want +got):\n%s", diff)
	}
	if !strings.HasSuffix(out.out[3], dir[strings.LastIndex(dir, "/"):]) {
		t.Fatalf("command did not run in %s: %s", dir, out.out[3])
	}
	if diff := cmp.Diff([]string{"oops"}, out.err); diff != "" {
		t.Fatalf("stderr mismatch (-want +got):\n%s", diff)
	}
}

func TestSpawnReturnsWhileBackgroundChildHoldsOutput(t *testing.T) {
	out := &lines{}
	start := time.Now()
	got, err := Spawn(context.Background(), Options{Command: "sleep 6 & echo started", Cwd: t.TempDir()}, out)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	if elapsed := time.Since(start); elapsed > waitDelay+time.Second {
		t.Fatalf("spawn returned after %v, want at most %v", elapsed, waitDelay+time.Second)
	}
	if diff := cmp.Diff(object.Success(), got); diff != "" {
		t.Fatalf("outcome mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"started"}, out.out); diff != "" {
		t.Fatalf("stdout mismatch (-want +got):\n%s", diff)
	}
}

func TestLineWriter(t *testing.T) {
	tests := []struct {
		name   string
		writes []string
		want   []string
	}{
		{"split across writes", []string{"hel", "lo\nwor", "ld\n"}, []string{"hello", "world"}},
		{"empty lines kept", []string{"a\n\nb\n"}, []string{"a", "", "b"}},
		{"trailing partial line", []string{"done"}, []string{"done"}},
		{"crlf", []string{"win\r\n"}, []string{"win"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			w := &lineWriter{emit: func(s string) { got = append(got, s) }}
			for _, chunk := range tt.writes {
				if n, err := w.Write([]byte(chunk)); err != nil || n != len(chunk) {
					t.Fatalf("write %q = %d, %v", chunk, n, err)
				}
			}
			w.flush()
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("lines mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSpawnCancelKillsProcessGroup(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	out := &lines{}
	done := make(chan object.Object, 1)
	go func() {
		res, err := Spawn(ctx, Options{Command: "sleep 60 & echo $!; sleep 60"}, out)
		if err != nil {
			t.Errorf("spawn: %v", err)
		}
		done <- res
	}()

	var child string
	deadline := time.Now().Add(5 * time.Second)
	for child == "" && time.Now().Before(deadline) {
		out.mu.Lock()
		if len(out.out) > 0 {
			child = out.out[0]
		}
		out.mu.Unlock()
		time.Sleep(10 * time.Millisecond)
	}
	if child == "" {
		t.Fatal("background child never reported its pid")
	}
	cancel()

	select {
	case res := <-done:
		r, ok := object.AsExecuteResult(res)
		if !ok || r.IsSuccess() {
			t.Fatalf("expected a failed result after cancel, got %v", res)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("spawn did not return after cancel")
	}

	pid, err := strconv.Atoi(child)
	if err != nil {
		t.Fatalf("bad pid %q: %v", child, err)
	}
	time.Sleep(50 * time.Millisecond)
	if err := syscall.Kill(pid, 0); err == nil {
		t.Errorf("background child %d still alive after cancel", pid)
	}
}

func TestSetupProcessGroup(t *testing.T) {
	cmd := exec.Command("sh", "-c", "true")
	setupProcessGroup(cmd)
	if cmd.SysProcAttr == nil || !cmd.SysProcAttr.Setpgid {
		t.Fatal("Setpgid not set")
	}
	if err := cmd.Cancel(); err != nil {
		t.Fatalf("cancel before start: %v", err)
	}
}
