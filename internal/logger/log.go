package logger

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
)

type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
	FATAL
	NONE
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	case NONE:
		return "NONE"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a case-insensitive level name to a Level, ERROR when unknown.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG", "TRACE":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	case "FATAL":
		return FATAL
	case "NONE", "OFF":
		return NONE
	default:
		return ERROR
	}
}

func (l Level) slogLevel() slog.Level {
	switch l {
	case DEBUG:
		return slog.LevelDebug
	case INFO:
		return slog.LevelInfo
	case WARN:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// Logger is a leveled logger tagged with a component name. Records go to
// slog.Default() so the CLI handler decides format and destination.
type Logger struct {
	level  Level
	prefix string
	mu     sync.RWMutex
}

// NewLogger creates a new logger instance
func NewLogger(prefix string, level Level) *Logger {
	return &Logger{level: level, prefix: prefix}
}

// FromEnv builds a logger whose level is read from the named environment
// variable, falling back to def.
func FromEnv(prefix, envVar string, def Level) *Logger {
	if v := os.Getenv(envVar); v != "" {
		return NewLogger(prefix, ParseLevel(v))
	}
	return NewLogger(prefix, def)
}

// SetLevel sets the minimum log level
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

func (l *Logger) Enabled(level Level) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level != NONE && level >= l.level
}

func (l *Logger) logf(level Level, format string, v ...any) {
	if !l.Enabled(level) {
		return
	}
	slog.Default().Log(context.Background(), level.slogLevel(), fmt.Sprintf(format, v...),
		slog.String("component", l.prefix))
}

func (l *Logger) Debugf(format string, v ...any) { l.logf(DEBUG, format, v...) }
func (l *Logger) Infof(format string, v ...any)  { l.logf(INFO, format, v...) }
func (l *Logger) Warnf(format string, v ...any)  { l.logf(WARN, format, v...) }
func (l *Logger) Errorf(format string, v ...any) { l.logf(ERROR, format, v...) }
