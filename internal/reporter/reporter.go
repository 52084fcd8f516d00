package reporter

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
)

// Mode selects how journal records reach the user.
type Mode string

const (
	ModeLogs     Mode = "logs"
	ModeProgress Mode = "progress"
	ModeNone     Mode = "none"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeLogs, ModeProgress, ModeNone:
		return Mode(s), nil
	case "":
		return ModeLogs, nil
	}
	return "", fmt.Errorf("unknown output mode %q (expected logs, progress or none)", s)
}

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelErr
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelErr:
		return "err"
	}
	return "unknown"
}

// Record is one journal line attributed to a job.
type Record struct {
	Owner   uuid.UUID
	Alias   string
	Level   Level
	Message string
	Time    time.Time
}

type JobState int

const (
	JobRunning JobState = iota
	JobDone
	JobFailed
	JobSkipped
	JobCancelled
)

func (s JobState) String() string {
	switch s {
	case JobRunning:
		return "running"
	case JobDone:
		return "done"
	case JobFailed:
		return "failed"
	case JobSkipped:
		return "skipped"
	case JobCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Finished reports whether the job reached a terminal state.
func (s JobState) Finished() bool { return s != JobRunning }

// JobEvent announces a job state change. Parent is uuid.Nil for root jobs.
type JobEvent struct {
	Owner  uuid.UUID
	Parent uuid.UUID
	Alias  string
	State  JobState
	At     time.Time
}

// Reporter renders the journal. Implementations are called from a single
// goroutine (the journal service) and must not block for long.
type Reporter interface {
	Record(Record)
	Job(JobEvent)
	Close() error
}

// New builds the reporter for mode writing to w. A nil w means os.Stdout.
func New(mode Mode, w io.Writer, color bool) (Reporter, error) {
	if w == nil {
		w = os.Stdout
	}
	switch mode {
	case ModeLogs, "":
		return NewTextReporter(w, color), nil
	case ModeProgress:
		return NewProgressReporter(w), nil
	case ModeNone:
		return Silent{}, nil
	}
	return nil, fmt.Errorf("unknown output mode %q", mode)
}

// Silent drops everything.
type Silent struct{}

func (Silent) Record(Record) {}
func (Silent) Job(JobEvent)  {}
func (Silent) Close() error  { return nil }
