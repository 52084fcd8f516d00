package runtime

import (
	"context"
	"errors"
	"fmt"

	"brisk/internal/ast"
	"brisk/internal/reporter"

	"github.com/google/uuid"
)

// Context is one branch of execution: a task, function or top-level run, or
// a join member. Owner keys the branch's scope, return and loop stacks.
type Context struct {
	Owner     uuid.UUID
	Job       *Job
	Component *ast.Component
	rt        *Runtime
}

// RootContext registers a root job and opens its branch at the runtime cwd.
func (rt *Runtime) RootContext(alias string) (*Context, error) {
	owner := uuid.New()
	job, err := rt.Jobs().Register(alias, owner, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if err := rt.ack(ScopesService, ScopeOpen{Owner: owner, Cwd: rt.Params.Cwd}); err != nil {
		_ = rt.Jobs().Finish(owner, reporter.JobFailed)
		return nil, err
	}
	return &Context{Owner: owner, Job: job, rt: rt}, nil
}

func (cx *Context) Runtime() *Runtime    { return cx.rt }
func (cx *Context) Scope() ScopeCx       { return ScopeCx{rt: cx.rt, owner: cx.Owner} }
func (cx *Context) Returns() ReturnCx    { return ReturnCx{rt: cx.rt, owner: cx.Owner} }
func (cx *Context) Loops() LoopCx        { return LoopCx{rt: cx.rt, owner: cx.Owner} }
func (cx *Context) Ctx() context.Context { return cx.Job.Ctx }
func (cx *Context) Registry() Registry   { return cx.rt.Registry() }
func (cx *Context) Signals() Signals     { return cx.rt.Signals() }
func (cx *Context) Journal() Journal {
	return Journal{rt: cx.rt, owner: cx.Job.Owner, alias: cx.Job.Alias}
}

// Check returns ErrCancelled once the branch's job has been cancelled.
func (cx *Context) Check() error {
	if err := cx.Job.Ctx.Err(); err != nil {
		return fmt.Errorf("%w: %s", ErrCancelled, cx.Job.Alias)
	}
	return nil
}

// IsStopped reports whether the innermost loop was broken or a return is
// pending in the current return context.
func (cx *Context) IsStopped() (bool, error) {
	broken, err := cx.Loops().IsBroken()
	if err != nil || broken {
		return broken, err
	}
	return cx.Returns().IsPending()
}

// Branch opens a new branch with an empty scope stack and a child job.
func (cx *Context) Branch(alias string, comp *ast.Component, cwd string) (*Context, error) {
	owner := uuid.New()
	job, err := cx.rt.Jobs().Register(alias, owner, cx.Job.Owner)
	if err != nil {
		return nil, err
	}
	if err := cx.rt.ack(ScopesService, ScopeOpen{Owner: owner, Cwd: cwd}); err != nil {
		_ = cx.rt.Jobs().Finish(owner, reporter.JobFailed)
		return nil, err
	}
	return &Context{Owner: owner, Job: job, Component: comp, rt: cx.rt}, nil
}

// Fork opens a branch that reads through the caller's current scope level and
// runs under a child job.
func (cx *Context) Fork(alias string) (*Context, error) {
	owner := uuid.New()
	job, err := cx.rt.Jobs().Register(alias, owner, cx.Job.Owner)
	if err != nil {
		return nil, err
	}
	if err := cx.rt.ack(ScopesService, ScopeFork{Parent: cx.Owner, Child: owner}); err != nil {
		_ = cx.rt.Jobs().Finish(owner, reporter.JobFailed)
		return nil, err
	}
	return &Context{Owner: owner, Job: job, Component: cx.Component, rt: cx.rt}, nil
}

// Close drops the branch's stacks and finishes its job with state.
func (cx *Context) Close(state reporter.JobState) error {
	return errors.Join(
		cx.rt.ack(ScopesService, ScopeClose{Owner: cx.Owner}),
		cx.rt.ack(ReturnsService, ReturnDrop{Owner: cx.Owner}),
		cx.rt.ack(LoopsService, LoopDrop{Owner: cx.Owner}),
		cx.rt.Jobs().Finish(cx.Job.Owner, state),
	)
}
