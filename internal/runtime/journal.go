package runtime

import (
	"log/slog"
	"reflect"
	"time"

	"brisk/internal/kernel"
	"brisk/internal/reporter"

	"github.com/google/uuid"
)

var journalOperations = kernel.OpRights{
	reflect.TypeOf(JournalWrite{}): kernel.RightWrite,
	reflect.TypeOf(JournalJob{}):   kernel.RightWrite,
	reflect.TypeOf(JournalTail{}):  kernel.RightRead,
}

const journalCapacity = 4096

// recordRing keeps the last cap records; once full, head is the oldest.
type recordRing struct {
	buf  []reporter.Record
	head int
	cap  int
}

func newRecordRing(capacity int) *recordRing {
	return &recordRing{cap: capacity}
}

func (r *recordRing) push(rec reporter.Record) {
	if len(r.buf) < r.cap {
		r.buf = append(r.buf, rec)
		return
	}
	r.buf[r.head] = rec
	r.head = (r.head + 1) % r.cap
}

// last returns up to n of the newest records, oldest first. n <= 0 means all.
func (r *recordRing) last(n int) []reporter.Record {
	size := len(r.buf)
	if n <= 0 || n > size {
		n = size
	}
	out := make([]reporter.Record, n)
	start := r.head + size - n
	for i := range out {
		out[i] = r.buf[(start+i)%size]
	}
	return out
}

// journalStore forwards records to the reporter and keeps the most recent
// ones for Tail.
type journalStore struct {
	rep     reporter.Reporter
	records *recordRing
	closed  bool
}

func (s *journalStore) Handler(ctx *kernel.ActCtx, msg kernel.Message) kernel.HandlerSignal {
	switch payload := msg.Payload.(type) {
	case JournalWrite:
		rec := payload.Record
		slog.Debug("journal",
			slog.String("owner", rec.Owner.String()),
			slog.String("alias", rec.Alias),
			slog.String("level", rec.Level.String()),
			slog.String("message", rec.Message))
		s.records.push(rec)
		if !s.closed {
			s.rep.Record(rec)
		}
		ack(ctx, msg, nil)
	case JournalJob:
		if !s.closed {
			s.rep.Job(payload.Event)
		}
		ack(ctx, msg, nil)
	case JournalTail:
		kernel.Reply(ctx, msg, Result[[]reporter.Record]{Value: s.records.last(payload.N)})
	case kernel.Shutdown:
		if !s.closed {
			s.closed = true
			if err := s.rep.Close(); err != nil {
				log.Warnf("journal: reporter close: %v", err)
			}
		}
	default:
		kernel.Reply(ctx, msg, kernel.UnknownOperation{})
	}
	return kernel.Continue{}
}

// Journal writes records on behalf of one job.
type Journal struct {
	rt    *Runtime
	owner uuid.UUID
	alias string
}

func (j Journal) write(level reporter.Level, msg string) {
	rec := reporter.Record{Owner: j.owner, Alias: j.alias, Level: level, Message: msg, Time: time.Now()}
	if err := j.rt.send(JournalService, JournalWrite{Record: rec}); err != nil {
		log.Warnf("journal: dropping record of %s: %v", j.alias, err)
	}
}

func (j Journal) Debug(msg string) { j.write(reporter.LevelDebug, msg) }
func (j Journal) Info(msg string)  { j.write(reporter.LevelInfo, msg) }
func (j Journal) Warn(msg string)  { j.write(reporter.LevelWarn, msg) }
func (j Journal) Err(msg string)   { j.write(reporter.LevelErr, msg) }

// Tail returns up to n of the most recent records, oldest first.
func (j Journal) Tail(n int) ([]reporter.Record, error) {
	return request[[]reporter.Record](j.rt, JournalService, JournalTail{N: n})
}
