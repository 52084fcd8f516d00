package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"brisk/internal/reporter"

	"gopkg.in/yaml.v3"
)

// DefaultFile is looked up in the working directory when --config is not given.
const DefaultFile = ".brisk.yml"

// Configuration is the build information stamped into the binary.
type Configuration struct {
	Version   string
	BuildDate string
	Commit    string
}

func (c Configuration) String() string {
	return fmt.Sprintf("v%s %s %s", c.Version, c.BuildDate, c.Commit)
}

// Settings holds persistent CLI defaults loaded from a config file.
// Command line flags take precedence over every field.
type Settings struct {
	Cwd           string            `yaml:"cwd"`
	Output        string            `yaml:"output"`
	MaxIterations int               `yaml:"max_iterations"`
	LogLevel      string            `yaml:"log_level"`
	LogFormat     string            `yaml:"log_format"`
	Shell         string            `yaml:"shell"`
	Env           map[string]string `yaml:"env"` // extra environment for spawned commands
}

// LoadSettings reads a YAML config file into Settings. A relative cwd is
// resolved against the directory holding the file.
// If the file does not exist, it returns zero-value Settings and nil error.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Settings{}, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if s.Cwd != "" && !filepath.IsAbs(s.Cwd) {
		s.Cwd = filepath.Join(filepath.Dir(path), s.Cwd)
	}

	return &s, nil
}

func (s *Settings) validate() error {
	if _, err := reporter.ParseMode(s.Output); err != nil {
		return err
	}
	if s.MaxIterations < 0 {
		return fmt.Errorf("max_iterations must not be negative, got %d", s.MaxIterations)
	}
	switch s.LogFormat {
	case "", "json", "text":
	default:
		return fmt.Errorf("unknown log_format %q (expected json or text)", s.LogFormat)
	}
	for key := range s.Env {
		if key == "" || strings.ContainsRune(key, '=') {
			return fmt.Errorf("invalid env name %q", key)
		}
	}
	return nil
}

// Environ renders Env as sorted KEY=VALUE pairs.
func (s *Settings) Environ() []string {
	env := make([]string, 0, len(s.Env))
	for key, value := range s.Env {
		env = append(env, key+"="+value)
	}
	slices.Sort(env)
	return env
}
