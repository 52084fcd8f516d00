package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFile)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadSettings_Valid(t *testing.T) {
	path := writeTemp(t, `
cwd: /srv/app
output: progress
max_iterations: 500
log_level: debug
log_format: text
shell: bash
env:
  STAGE: dev
  API_URL: http://localhost
`)
	s, err := LoadSettings(path)
	if err != nil {
		t.Fatal(err)
	}

	want := &Settings{
		Cwd:           "/srv/app",
		Output:        "progress",
		MaxIterations: 500,
		LogLevel:      "debug",
		LogFormat:     "text",
		Shell:         "bash",
		Env:           map[string]string{"STAGE": "dev", "API_URL": "http://localhost"},
	}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Errorf("settings mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"API_URL=http://localhost", "STAGE=dev"}, s.Environ()); diff != "" {
		t.Errorf("environ mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadSettings_RelativeCwd(t *testing.T) {
	path := writeTemp(t, `cwd: scripts`)
	s, err := LoadSettings(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(filepath.Dir(path), "scripts"); s.Cwd != want {
		t.Errorf("cwd: got %q, want %q", s.Cwd, want)
	}
}

func TestLoadSettings_Missing(t *testing.T) {
	s, err := LoadSettings(filepath.Join(t.TempDir(), "nope.yml"))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(&Settings{}, s); diff != "" {
		t.Errorf("expected zero settings (-want +got):\n%s", diff)
	}
	if len(s.Environ()) != 0 {
		t.Errorf("environ: got %v, want empty", s.Environ())
	}
}

func TestLoadSettings_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed yaml", "output: [unclosed"},
		{"unknown output", "output: fancy"},
		{"negative iterations", "max_iterations: -1"},
		{"unknown log format", "log_format: xml"},
		{"bad env name", "env:\n  \"A=B\": x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadSettings(writeTemp(t, tt.content)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
