package interpreter

import (
	"errors"
	"fmt"
	"log/slog"

	"brisk/internal/ast"
	"brisk/internal/object"
	"brisk/internal/reporter"
	"brisk/internal/runtime"
)

// Run calls the entry task named by rt.Params under a root job and returns
// its value. Without a task the first task of the first component runs.
func Run(rt *runtime.Runtime) (object.Object, error) {
	comp, task, err := Entry(rt.Anchor, rt.Params.Component, rt.Params.Task)
	if err != nil {
		return nil, err
	}
	args, err := parseArgs(task, rt.Params.Args)
	if err != nil {
		return nil, err
	}
	cx, err := rt.RootContext(comp.Name + ":" + task.Name)
	if err != nil {
		return nil, err
	}
	slog.Debug("running entry task",
		slog.String("component", comp.Name),
		slog.String("task", task.Name),
		slog.Int("args", len(args)))

	val, err := New(rt).CallTask(cx, comp.Name, task.Name, args)
	state := reporter.JobDone
	var exit *runtime.ExitError
	switch {
	case errors.As(err, &exit):
	case err != nil:
		state = reporter.JobFailed
	case val == object.SKIPPED:
		state = reporter.JobSkipped
	}
	if closeErr := cx.Close(state); err == nil {
		err = closeErr
	}
	return val, err
}

// Entry finds the component and task to run. An empty component means the
// first component declaring task; an empty task means the component's first.
func Entry(anchor *ast.Anchor, component, task string) (*ast.Component, *ast.Task, error) {
	if len(anchor.Components) == 0 {
		return nil, nil, fmt.Errorf("%w: script declares no components", runtime.ErrComponentNotFound)
	}
	if component == "" {
		if task == "" {
			comp := anchor.Components[0]
			if len(comp.Tasks) == 0 {
				return nil, nil, fmt.Errorf("%w: %s declares no tasks", runtime.ErrTaskNotFound, comp.Name)
			}
			return comp, comp.Tasks[0], nil
		}
		var refs []string
		for _, comp := range anchor.Components {
			if t, ok := comp.Task(task); ok {
				return comp, t, nil
			}
			for _, t := range comp.Tasks {
				refs = append(refs, comp.Name+":"+t.Name)
			}
		}
		return nil, nil, notFound(runtime.ErrTaskNotFound, task, refs)
	}
	comp, ok := anchor.Component(component)
	if !ok {
		return nil, nil, notFound(runtime.ErrComponentNotFound, component, componentNames(anchor))
	}
	if task == "" {
		if len(comp.Tasks) == 0 {
			return nil, nil, fmt.Errorf("%w: %s declares no tasks", runtime.ErrTaskNotFound, comp.Name)
		}
		return comp, comp.Tasks[0], nil
	}
	t, ok := comp.Task(task)
	if !ok {
		names := make([]string, 0, len(comp.Tasks))
		for _, t := range comp.Tasks {
			names = append(names, t.Name)
		}
		return nil, nil, notFound(runtime.ErrTaskNotFound, task, names)
	}
	return comp, t, nil
}

// parseArgs converts command line arguments to the declared argument types.
// A count mismatch is left for CallTask to report.
func parseArgs(task *ast.Task, raw []string) ([]object.Object, error) {
	args := make([]object.Object, len(raw))
	for i, text := range raw {
		ty := ast.TyStr
		if len(raw) == len(task.Args) {
			ty = task.Args[i].Ty
		}
		val, err := parseArg(ty, text)
		if err != nil {
			return nil, fmt.Errorf("argument %d of %s: %w", i+1, task.Name, err)
		}
		args[i] = val
	}
	return args, nil
}

func parseArg(ty ast.Ty, text string) (object.Object, error) {
	switch ty {
	case ast.TyNum:
		return object.ParseLiteral(object.NUMBER_OBJ, text)
	case ast.TyBool:
		return object.ParseLiteral(object.BOOLEAN_OBJ, text)
	case ast.TyPath:
		return object.NewPath(text), nil
	}
	return object.Str(text), nil
}
