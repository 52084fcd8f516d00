package runtime

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"brisk/internal/kernel"
	"brisk/internal/reporter"

	"github.com/google/uuid"
)

var jobOperations = kernel.OpRights{
	reflect.TypeOf(JobRegister{}): kernel.RightWrite,
	reflect.TypeOf(JobFinish{}):   kernel.RightWrite,
	reflect.TypeOf(JobCancel{}):   kernel.RightExec,
	reflect.TypeOf(JobSnapshot{}): kernel.RightRead,
}

// Job is one node of the job tree. Ctx is cancelled when the job or any of
// its ancestors is cancelled, and when the job finishes.
type Job struct {
	Owner  uuid.UUID
	Parent uuid.UUID
	Alias  string
	Ctx    context.Context
	cancel context.CancelFunc
}

func (j *Job) Cancelled() bool { return j.Ctx.Err() != nil }

// JobInfo is a snapshot of one job.
type JobInfo struct {
	Owner  uuid.UUID
	Parent uuid.UUID
	Alias  string
	State  reporter.JobState
}

type jobEntry struct {
	job   *Job
	state reporter.JobState
}

type jobStore struct {
	base    context.Context
	entries map[uuid.UUID]*jobEntry
	order   []uuid.UUID
	journal kernel.ActorID
}

func newJobStore(base context.Context, journal kernel.ActorID) *jobStore {
	return &jobStore{base: base, entries: make(map[uuid.UUID]*jobEntry), journal: journal}
}

func (s *jobStore) notify(ctx *kernel.ActCtx, job *Job, state reporter.JobState) {
	ev := reporter.JobEvent{Owner: job.Owner, Parent: job.Parent, Alias: job.Alias, State: state, At: time.Now()}
	if err := ctx.SendAsync(s.journal, JournalJob{Event: ev}); err != nil {
		log.Warnf("jobs: fail to report %s as %s: %v", job.Alias, state, err)
	}
}

func (s *jobStore) register(p JobRegister) (*Job, error) {
	if _, ok := s.entries[p.Owner]; ok {
		return nil, fmt.Errorf("%w: %s (%s)", ErrJobAlreadyExists, p.Alias, p.Owner)
	}
	parentCtx := s.base
	if p.Parent != uuid.Nil {
		parent, ok := s.entries[p.Parent]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrJobDoesNotExist, p.Parent)
		}
		parentCtx = parent.job.Ctx
	}
	jobCtx, cancel := context.WithCancel(parentCtx)
	job := &Job{Owner: p.Owner, Parent: p.Parent, Alias: p.Alias, Ctx: jobCtx, cancel: cancel}
	s.entries[p.Owner] = &jobEntry{job: job, state: reporter.JobRunning}
	s.order = append(s.order, p.Owner)
	return job, nil
}

func (s *jobStore) Handler(ctx *kernel.ActCtx, msg kernel.Message) kernel.HandlerSignal {
	switch payload := msg.Payload.(type) {
	case JobRegister:
		job, err := s.register(payload)
		if err == nil {
			s.notify(ctx, job, reporter.JobRunning)
		}
		kernel.Reply(ctx, msg, Result[*Job]{Value: job, Err: err})
	case JobFinish:
		entry, ok := s.entries[payload.Owner]
		if !ok {
			ack(ctx, msg, fmt.Errorf("%w: %s", ErrJobDoesNotExist, payload.Owner))
			break
		}
		if entry.state.Finished() {
			ack(ctx, msg, nil)
			break
		}
		entry.state = payload.State
		entry.job.cancel()
		s.notify(ctx, entry.job, payload.State)
		ack(ctx, msg, nil)
	case JobCancel:
		entry, ok := s.entries[payload.Owner]
		if !ok {
			ack(ctx, msg, fmt.Errorf("%w: %s", ErrJobDoesNotExist, payload.Owner))
			break
		}
		entry.job.cancel()
		ack(ctx, msg, nil)
	case JobSnapshot:
		out := make([]JobInfo, 0, len(s.order))
		for _, id := range s.order {
			e := s.entries[id]
			out = append(out, JobInfo{Owner: id, Parent: e.job.Parent, Alias: e.job.Alias, State: e.state})
		}
		kernel.Reply(ctx, msg, Result[[]JobInfo]{Value: out})
	case kernel.Shutdown:
		for _, e := range s.entries {
			e.job.cancel()
		}
	default:
		kernel.Reply(ctx, msg, kernel.UnknownOperation{})
	}
	return kernel.Continue{}
}

// Jobs is the client side of the job store.
type Jobs struct {
	rt *Runtime
}

// Register adds a job under parent. Use uuid.Nil for a root job.
func (j Jobs) Register(alias string, owner, parent uuid.UUID) (*Job, error) {
	return request[*Job](j.rt, JobsService, JobRegister{Alias: alias, Owner: owner, Parent: parent})
}

func (j Jobs) Finish(owner uuid.UUID, state reporter.JobState) error {
	return j.rt.ack(JobsService, JobFinish{Owner: owner, State: state})
}

// Cancel cancels the job and its whole subtree.
func (j Jobs) Cancel(owner uuid.UUID) error {
	return j.rt.ack(JobsService, JobCancel{Owner: owner})
}

func (j Jobs) Snapshot() ([]JobInfo, error) {
	return request[[]JobInfo](j.rt, JobsService, JobSnapshot{})
}
