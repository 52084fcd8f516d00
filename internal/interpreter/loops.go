package interpreter

import (
	"fmt"

	"brisk/internal/ast"
	"brisk/internal/object"
	"brisk/internal/runtime"

	"github.com/google/uuid"
)

// cycle drives one loop: next reports whether iteration i should run, run
// executes it.
type cycle struct {
	next func(i int) (bool, error)
	run  func(i int) error
}

// iterate opens a loop context keyed by id and runs c until next says stop,
// the loop is broken, a return is pending or the job is cancelled. Loops
// always yield Void.
func (in *Interpreter) iterate(id uuid.UUID, c cycle, cx *runtime.Context) (object.Object, error) {
	loops := cx.Loops()
	if err := loops.Open(id); err != nil {
		return nil, err
	}
	err := in.drive(c, cx)
	if closeErr := loops.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, err
	}
	return object.VOID, nil
}

func (in *Interpreter) drive(c cycle, cx *runtime.Context) error {
	limit := in.rt.Params.MaxIterations
	for i := 0; ; i++ {
		if err := cx.Check(); err != nil {
			return err
		}
		stopped, err := cx.IsStopped()
		if err != nil || stopped {
			return err
		}
		more, err := c.next(i)
		if err != nil || !more {
			return err
		}
		if i >= limit {
			return fmt.Errorf("%w: %d", runtime.ErrMaxIterations, limit)
		}
		if err := c.run(i); err != nil {
			return err
		}
	}
}

func (in *Interpreter) evalFor(node *ast.For, cx *runtime.Context) (object.Object, error) {
	src, err := in.Eval(node.Source, cx)
	if err != nil {
		return nil, err
	}
	var (
		size int
		at   func(i int) object.Object
	)
	switch s := src.(type) {
	case *object.Range:
		size = s.Len()
		at = func(i int) object.Object { return object.Num(float64(s.At(i))) }
	case *object.Vec:
		size = len(s.Elements)
		at = func(i int) object.Object { return s.Elements[i] }
	case *object.String:
		runes := []rune(s.Value)
		size = len(runes)
		at = func(i int) object.Object { return object.Str(string(runes[i])) }
	default:
		return nil, runtime.Link(fmt.Errorf("%w: %s", runtime.ErrInvalidIterationSource, src.Type()), node.Source)
	}

	scope := cx.Scope()
	return in.iterate(node.Uuid, cycle{
		next: func(i int) (bool, error) { return i < size, nil },
		run: func(i int) error {
			if err := scope.Enter(uuid.New()); err != nil {
				return err
			}
			err := scope.Insert(node.Element, at(i))
			if err == nil && node.Index != "" {
				err = scope.Insert(node.Index, object.Num(float64(i)))
			}
			if err == nil {
				_, err = in.evalBlock(node.Block, cx)
			}
			if leaveErr := scope.Leave(); err == nil {
				err = leaveErr
			}
			return err
		},
	}, cx)
}

func (in *Interpreter) evalWhile(node *ast.While, cx *runtime.Context) (object.Object, error) {
	return in.iterate(node.Uuid, cycle{
		next: func(int) (bool, error) { return in.evalBool(node.Cond, cx) },
		run:  func(int) error { return in.runBody(node.Block, cx) },
	}, cx)
}

func (in *Interpreter) evalLoop(node *ast.Loop, cx *runtime.Context) (object.Object, error) {
	return in.iterate(node.Uuid, cycle{
		next: func(int) (bool, error) { return true, nil },
		run:  func(int) error { return in.runBody(node.Block, cx) },
	}, cx)
}

func (in *Interpreter) runBody(block *ast.Block, cx *runtime.Context) error {
	_, err := in.evalBlock(block, cx)
	return err
}
