package interpreter

import (
	"fmt"
	"path/filepath"

	"brisk/internal/ast"
	"brisk/internal/object"
	"brisk/internal/reporter"
	"brisk/internal/runtime"
)

func (in *Interpreter) evalTaskCall(node *ast.TaskCall, cx *runtime.Context) (object.Object, error) {
	args := make([]object.Object, 0, len(node.Args))
	for _, arg := range node.Args {
		val, err := in.Eval(arg, cx)
		if err != nil {
			return nil, err
		}
		args = append(args, val)
	}
	return in.CallTask(cx, node.Component, node.Task, args)
}

// CallTask runs component:task with args in a new branch under cx. An empty
// component means the caller's own. The result is Skipped when a
// gatekeeper turned the call off.
func (in *Interpreter) CallTask(cx *runtime.Context, component, task string, args []object.Object) (object.Object, error) {
	if component == "" {
		if cx.Component == nil {
			return nil, fmt.Errorf("%w: :%s called outside of a component", runtime.ErrComponentNotFound, task)
		}
		component = cx.Component.Name
	}
	if _, ok := in.rt.Anchor.Component(component); !ok {
		return nil, notFound(runtime.ErrComponentNotFound, component, componentNames(in.rt.Anchor))
	}
	desc, err := cx.Registry().Task(component, task)
	if err != nil {
		names, namesErr := cx.Registry().TaskNames()
		if namesErr != nil {
			return nil, err
		}
		return nil, notFound(runtime.ErrTaskNotFound, component+":"+task, names)
	}
	if len(args) != len(desc.Task.Args) {
		return nil, fmt.Errorf("%w: %s expects %d, got %d",
			runtime.ErrDismatchTaskArgumentsCount, desc.Ref(), len(desc.Task.Args), len(args))
	}

	branch, err := cx.Branch(desc.Ref(), desc.Component, in.componentCwd(desc.Component))
	if err != nil {
		return nil, err
	}
	val, state, err := in.runTask(desc, args, branch)
	if closeErr := branch.Close(state); err == nil {
		err = closeErr
	}
	return val, err
}

func (in *Interpreter) runTask(desc *runtime.TaskDescriptor, args []object.Object, cx *runtime.Context) (object.Object, reporter.JobState, error) {
	task := desc.Task
	for _, gk := range task.Gatekeepers {
		if !gatekeeperApplies(gk, args) {
			continue
		}
		pass, err := in.gate(gk, task, args, cx)
		if err != nil {
			return nil, reporter.JobFailed, runtime.Link(err, gk)
		}
		if !pass {
			cx.Journal().Info("skipped by " + gk.String())
			return object.SKIPPED, reporter.JobSkipped, nil
		}
	}
	for _, dep := range task.Dependencies {
		if _, err := in.Eval(dep, cx); err != nil {
			return nil, reporter.JobFailed, err
		}
	}
	val, err := in.invoke(task.Uuid, task.Args, task.Block, args, cx)
	if err != nil {
		return nil, reporter.JobFailed, err
	}
	if res, ok := object.AsExecuteResult(val); ok && !res.IsSuccess() {
		return val, reporter.JobFailed, nil
	}
	return val, reporter.JobDone, nil
}

// gate evaluates a gatekeeper predicate with the task's arguments bound by
// name.
func (in *Interpreter) gate(gk *ast.Gatekeeper, task *ast.Task, args []object.Object, cx *runtime.Context) (bool, error) {
	if gk.Predicate == nil {
		return true, nil
	}
	scope := cx.Scope()
	if err := scope.Enter(gk.Uuid); err != nil {
		return false, err
	}
	var pass bool
	err := func() error {
		for i, param := range task.Args {
			if err := scope.Insert(param.Name, args[i]); err != nil {
				return err
			}
		}
		var err error
		pass, err = in.evalBool(gk.Predicate, cx)
		return err
	}()
	if leaveErr := scope.Leave(); err == nil {
		err = leaveErr
	}
	return pass, err
}

// gatekeeperApplies reports whether gk guards a call with args: always when
// it names no task refs, otherwise when a ref matches args position by
// position.
func gatekeeperApplies(gk *ast.Gatekeeper, args []object.Object) bool {
	if len(gk.Refs) == 0 {
		return true
	}
	for _, ref := range gk.Refs {
		if refMatches(ref, args) {
			return true
		}
	}
	return false
}

func refMatches(ref ast.TaskRef, args []object.Object) bool {
	if len(ref.Args) != len(args) {
		return false
	}
	for i, pattern := range ref.Args {
		if pattern.Any {
			continue
		}
		s, ok := object.AsString(args[i])
		if !ok || s != pattern.Value {
			return false
		}
	}
	return true
}

func (in *Interpreter) componentCwd(comp *ast.Component) string {
	switch {
	case comp.Cwd == "":
		return in.rt.Params.Cwd
	case filepath.IsAbs(comp.Cwd):
		return comp.Cwd
	}
	return filepath.Join(in.rt.Params.Cwd, comp.Cwd)
}

func componentNames(anchor *ast.Anchor) []string {
	names := make([]string, 0, len(anchor.Components))
	for _, c := range anchor.Components {
		names = append(names, c.Name)
	}
	return names
}
