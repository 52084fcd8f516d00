package runtime

// A Runtime owns a kernel hosting one service actor per store. Interpreter
// branches talk to the stores through a single client actor that holds a
// capability on each of them. Stores key their state by branch owner, so
// concurrent branches share the actors but never each other's state.

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"brisk/internal/ast"
	"brisk/internal/kernel"
	"brisk/internal/logger"
	"brisk/internal/reporter"

	"github.com/google/uuid"
)

var log = logger.FromEnv("runtime", kernel.LogLevelEnv, logger.ERROR)

const (
	DefaultMaxIterations = 1_000_000

	storeTimeout = 5 * time.Second
)

type RtParameters struct {
	Cwd           string
	Output        reporter.Mode
	MaxIterations int
	Component     string
	Task          string
	Args          []string
	Shell         string   // shell used for commands, "sh" when empty
	Env           []string // extra KEY=VALUE pairs for spawned commands
	Writer        io.Writer
	Color         bool
}

type Option func(*Runtime)

// WithEmbedded registers native functions in the fns store.
func WithEmbedded(fns ...Embedded) Option {
	return func(rt *Runtime) {
		rt.embedded = append(rt.embedded, fns...)
	}
}

// WithReporter replaces the reporter selected by RtParameters.Output.
func WithReporter(r reporter.Reporter) Option {
	return func(rt *Runtime) {
		rt.rep = r
	}
}

type Runtime struct {
	Params RtParameters
	Anchor *ast.Anchor

	kernel    *kernel.Kernel
	client    *kernel.ActCtx
	services  map[string]kernel.ActorID
	embedded  []Embedded
	rep       reporter.Reporter
	ctx       context.Context
	cancel    context.CancelFunc
	destroyed atomic.Bool
}

// New starts the store services and loads the anchor's functions, tasks and
// type table into them.
func New(params RtParameters, anchor *ast.Anchor, opts ...Option) (*Runtime, error) {
	if params.MaxIterations <= 0 {
		params.MaxIterations = DefaultMaxIterations
	}
	if params.Cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIO, err)
		}
		params.Cwd = wd
	}
	if params.Shell == "" {
		params.Shell = "sh"
	}
	if anchor == nil {
		anchor = &ast.Anchor{}
	}

	rt := &Runtime{Params: params, Anchor: anchor, services: make(map[string]kernel.ActorID)}
	for _, opt := range opts {
		opt(rt)
	}
	if rt.rep == nil {
		rep, err := reporter.New(params.Output, params.Writer, params.Color)
		if err != nil {
			return nil, err
		}
		rt.rep = rep
	}
	rt.ctx, rt.cancel = context.WithCancel(context.Background())

	k := kernel.NewKernel()
	rt.kernel = k
	journal := k.RegisterService(JournalService, journalOperations, (&journalStore{rep: rt.rep, records: newRecordRing(journalCapacity)}).Handler)
	rt.services[JournalService] = journal
	rt.services[ScopesService] = k.RegisterService(ScopesService, scopeOperations, newScopeStore().Handler)
	rt.services[TypesService] = k.RegisterService(TypesService, typeOperations, (&typeStore{table: make(map[uuid.UUID]ast.Ty)}).Handler)
	rt.services[FnsService] = k.RegisterService(FnsService, fnOperations, newFnStore().Handler)
	rt.services[ReturnsService] = k.RegisterService(ReturnsService, returnOperations, newReturnStore().Handler)
	rt.services[LoopsService] = k.RegisterService(LoopsService, loopOperations, newLoopStore().Handler)
	rt.services[SignalsService] = k.RegisterService(SignalsService, signalOperations, (&signalStore{signals: make(map[string]*signal)}).Handler)
	rt.services[SqlService] = k.RegisterService(SqlService, sqlOperations, newSqlStore(rt.ctx).Handler)
	jobs := k.RegisterService(JobsService, jobOperations, newJobStore(rt.ctx, journal).Handler)
	rt.services[JobsService] = jobs
	k.GrantCap(jobs, journal, kernel.RightWrite)

	client := k.RegisterActor("runtime", func(ctx *kernel.ActCtx, msg kernel.Message) kernel.HandlerSignal {
		return kernel.Continue{}
	})
	for _, id := range rt.services {
		k.GrantCap(client, id, kernel.RightRead|kernel.RightWrite|kernel.RightExec)
	}
	rt.client = &kernel.ActCtx{K: k, Self: client}

	if err := rt.load(); err != nil {
		_ = rt.Destroy(context.Background())
		return nil, err
	}
	return rt, nil
}

func (rt *Runtime) load() error {
	if err := rt.ack(TypesService, TypesLoad{Table: rt.Anchor.Types}); err != nil {
		return err
	}
	if err := rt.ack(FnsService, FnsLoad{Anchor: rt.Anchor}); err != nil {
		return err
	}
	for i := range rt.embedded {
		desc := &FnDescriptor{Kind: FnEmbedded, Name: rt.embedded[i].Name, Embedded: &rt.embedded[i]}
		if err := rt.ack(FnsService, FnRegister{Desc: desc}); err != nil {
			return err
		}
	}
	return nil
}

// Destroy cancels every job and stops the store actors, waiting until each
// has exited. Only the first call does anything.
func (rt *Runtime) Destroy(ctx context.Context) error {
	if rt.destroyed.Swap(true) {
		return nil
	}
	rt.cancel()
	if err := rt.kernel.Stop(ctx, "runtime destroyed"); err != nil {
		return fmt.Errorf("fail to stop runtime stores: %w", err)
	}
	return nil
}

// Abort cancels every job. The stores keep running until Destroy.
func (rt *Runtime) Abort() {
	log.Infof("abort requested")
	rt.cancel()
}

// Context is cancelled when the runtime is destroyed or aborted.
func (rt *Runtime) Context() context.Context { return rt.ctx }

func (rt *Runtime) Registry() Registry { return Registry{rt: rt} }
func (rt *Runtime) Jobs() Jobs         { return Jobs{rt: rt} }
func (rt *Runtime) Signals() Signals   { return Signals{rt: rt} }
func (rt *Runtime) SQL() SQL           { return SQL{rt: rt} }

// Status reports the store actors' accounting.
func (rt *Runtime) Status() []kernel.ActorStatus { return rt.kernel.Status() }

func request[T any](rt *Runtime, service string, payload any) (T, error) {
	return requestWithin[T](rt, service, payload, storeTimeout)
}

// requestWithin is request with an explicit reply deadline, for stores whose
// operations may block on external systems.
func requestWithin[T any](rt *Runtime, service string, payload any, timeout time.Duration) (T, error) {
	var zero T
	id, ok := rt.services[service]
	if !ok {
		return zero, fmt.Errorf("E_NO_SUCH: service %s", service)
	}
	msg, err := rt.client.SendSyncWithTimeout(id, payload, timeout)
	if err != nil {
		return zero, fmt.Errorf("%s: %T: %w", service, payload, err)
	}
	switch resp := msg.Payload.(type) {
	case Result[T]:
		return resp.Value, resp.Err
	case kernel.UnknownOperation:
		return zero, fmt.Errorf("%w: %T on %s", ErrUnknownOperation, payload, service)
	}
	return zero, fmt.Errorf("%s: unexpected reply %T to %T", service, msg.Payload, payload)
}

func (rt *Runtime) ack(service string, payload any) error {
	_, err := request[struct{}](rt, service, payload)
	return err
}

// send delivers payload without waiting for the store to process it.
func (rt *Runtime) send(service string, payload any) error {
	id, ok := rt.services[service]
	if !ok {
		return fmt.Errorf("E_NO_SUCH: service %s", service)
	}
	return rt.client.SendAsync(id, payload)
}

func ack(ctx *kernel.ActCtx, msg kernel.Message, err error) {
	kernel.Reply(ctx, msg, Result[struct{}]{Err: err})
}
