package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"brisk/internal/config"
	"brisk/internal/object"
	"brisk/internal/reporter"
	"brisk/internal/runtime"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const script = `{
  "sources": {"main.brisk": "task broken {\n  missing\n}\n"},
  "components": [
    {"type": "Component", "name": "app",
     "tasks": [
       {"type": "Task", "name": "greet",
        "args": [{"type": "ArgumentDeclaration", "name": "who", "ty": "str"}],
        "block": {"type": "Block", "nodes": [
          {"type": "FunctionCall", "name": "fs::write",
           "args": [{"type": "PrimitiveString", "value": "out.txt"}, {"type": "Variable", "name": "who"}]}
        ]}},
       {"type": "Task", "name": "quit",
        "block": {"type": "Block", "nodes": [
          {"type": "FunctionCall", "name": "process::exit", "args": [{"type": "Number", "value": 3}]}
        ]}},
       {"type": "Task", "name": "broken",
        "block": {"type": "Block", "nodes": [
          {"type": "Variable", "name": "missing", "link": {"file": "main.brisk", "from": 16, "to": 23}}
        ]}},
       {"type": "Task", "name": "spin",
        "block": {"type": "Block", "nodes": [
          {"type": "Loop", "block": {"type": "Block", "nodes": []}}
        ]}}
     ]}
  ]
}`

var testConf = config.Configuration{Version: "1.2.3", BuildDate: "2026-01-01", Commit: "abc1234"}

func writeScript(t *testing.T) (dir, file string) {
	t.Helper()
	dir = t.TempDir()
	file = filepath.Join(dir, "main.json")
	require.NoError(t, os.WriteFile(file, []byte(script), 0o644))
	return dir, file
}

// execute runs the command line with a config path that does not exist
// unless the caller wrote one.
func execute(t *testing.T, dir string, args ...string) (int, string) {
	t.Helper()
	var stderr bytes.Buffer
	args = append([]string{"--config", filepath.Join(dir, config.DefaultFile)}, args...)
	code := Execute(testConf, args, &stderr)
	return code, stderr.String()
}

func TestRunPassesArgumentsAndCwd(t *testing.T) {
	dir, file := writeScript(t)
	work := t.TempDir()

	code, stderr := execute(t, dir, "run", "--output", "none", "--cwd", work, file, "app:greet", "brisk")
	require.Equal(t, 0, code, stderr)

	data, err := os.ReadFile(filepath.Join(work, "out.txt"))
	require.NoError(t, err)
	assert.Equal(t, "brisk", string(data))
}

func TestRunExitCodes(t *testing.T) {
	dir, file := writeScript(t)

	tests := []struct {
		name   string
		target string
		want   int
		stderr string
	}{
		{"process exit", "quit", 3, ""},
		{"runtime error", "broken", 1, "main.brisk:2:3"},
		{"unknown task", "app:quti", 1, "did you mean quit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stderr := execute(t, dir, "run", "--output", "none", "--cwd", t.TempDir(), file, tt.target)
			assert.Equal(t, tt.want, code)
			assert.Contains(t, stderr, tt.stderr)
		})
	}

	code, stderr := execute(t, dir, "run", filepath.Join(dir, "absent.json"))
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "absent.json")
}

func TestRunUsesSettings(t *testing.T) {
	dir, file := writeScript(t)
	settings := "output: none\nmax_iterations: 5\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.DefaultFile), []byte(settings), 0o644))

	code, stderr := execute(t, dir, "run", "--cwd", t.TempDir(), file, "spin")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, runtime.ErrMaxIterations.Code)

	code, stderr = execute(t, dir, "run", "--max-iterations", "0", file, "spin")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "--max-iterations must be positive")
}

func TestParametersPrecedence(t *testing.T) {
	o := &options{settings: &config.Settings{
		Cwd:           "/from/settings",
		Output:        "none",
		MaxIterations: 7,
		Shell:         "bash",
		Env:           map[string]string{"STAGE": "dev"},
	}}
	cmd := newRunCmd(o)
	require.NoError(t, cmd.Flags().Set("cwd", "/from/flag"))

	params, err := o.parameters(cmd, runFlags{cwd: "/from/flag", output: "logs", maxIterations: runtime.DefaultMaxIterations}, "ops:deploy", []string{"prod"})
	require.NoError(t, err)
	assert.Equal(t, "/from/flag", params.Cwd)
	assert.Equal(t, reporter.ModeNone, params.Output)
	assert.Equal(t, 7, params.MaxIterations)
	assert.Equal(t, "bash", params.Shell)
	assert.Equal(t, []string{"STAGE=dev"}, params.Env)
	assert.Equal(t, "ops", params.Component)
	assert.Equal(t, "deploy", params.Task)
	assert.Equal(t, []string{"prod"}, params.Args)
	assert.False(t, params.Color)

	_, err = o.parameters(cmd, runFlags{output: "fancy", maxIterations: 1}, "", nil)
	assert.Error(t, err)
}

func TestSplitTarget(t *testing.T) {
	tests := []struct {
		target, component, task string
	}{
		{"", "", ""},
		{"build", "", "build"},
		{"app:build", "app", "build"},
		{"app:", "app", ""},
		{":build", "", "build"},
	}
	for _, tt := range tests {
		component, task := splitTarget(tt.target)
		if component != tt.component || task != tt.task {
			t.Errorf("splitTarget(%q) = %q, %q; want %q, %q", tt.target, component, task, tt.component, tt.task)
		}
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		val  object.Object
		err  error
		want int
	}{
		{"value", object.Str("done"), nil, 0},
		{"skipped", object.SKIPPED, nil, 0},
		{"success", object.Success(), nil, 0},
		{"failed command", object.Failed(4), nil, 4},
		{"killed command", object.Failed(-1), nil, 1},
		{"run error", object.RunError("no such file"), nil, 1},
		{"exit", nil, &runtime.ExitError{Code: 9}, 9},
		{"exit zero", nil, &runtime.ExitError{Code: 0}, 0},
		{"error", nil, errors.New("boom"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.val, tt.err))
		})
	}
}

func TestTasksCommand(t *testing.T) {
	dir, file := writeScript(t)
	var out bytes.Buffer
	root := NewRootCmd(testConf)
	root.SetOut(&out)
	root.SetArgs([]string{"--config", filepath.Join(dir, config.DefaultFile), "tasks", file})
	require.NoError(t, root.Execute())

	assert.Contains(t, out.String(), "app")
	assert.Contains(t, out.String(), "  greet(who: str)\n")
	assert.Contains(t, out.String(), "  spin()\n")
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	root := NewRootCmd(testConf)
	root.SetOut(&out)
	root.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "none.yml"), "version"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "brisk version 'v1.2.3 2026-01-01 abc1234'")
}

func TestLogFile(t *testing.T) {
	dir, file := writeScript(t)
	logFile := filepath.Join(dir, "logs", "brisk.log")

	code, stderr := execute(t, dir, "--log-level", "debug", "--log-file", logFile,
		"run", "--output", "none", "--cwd", t.TempDir(), file, "greet", "x")
	require.Equal(t, 0, code, stderr)

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"run finished"`)

	code, _ = execute(t, dir, "--log-format", "xml", "version")
	assert.Equal(t, 1, code)
}
