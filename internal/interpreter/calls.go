package interpreter

import (
	"fmt"
	"strings"

	"brisk/internal/ast"
	"brisk/internal/object"
	"brisk/internal/reporter"
	"brisk/internal/runtime"

	"github.com/google/uuid"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// callee is what a function call name resolved to: a closure or a
// registered function.
type callee struct {
	closure *ast.ClosureDeclaration
	fn      *runtime.FnDescriptor
}

// call evaluates a function call. In a postfix chain parent is the value the
// call follows, passed as the first argument.
func (in *Interpreter) call(node *ast.FunctionCall, parent object.Object, cx *runtime.Context) (object.Object, error) {
	target, err := in.resolve(node, parent, cx)
	if err != nil {
		return nil, err
	}
	args := make([]object.Object, 0, len(node.Args)+1)
	if parent != nil {
		args = append(args, parent)
	}
	for _, arg := range node.Args {
		val, err := in.Eval(arg, cx)
		if err != nil {
			return nil, err
		}
		args = append(args, val)
	}

	if decl := target.closure; decl != nil {
		if len(args) != len(decl.Args) {
			return nil, fmt.Errorf("%w: closure %s expects %d, got %d",
				runtime.ErrInvalidFnArgumentsNumber, node.Name, len(decl.Args), len(args))
		}
		return in.invoke(uuid.New(), decl.Args, decl.Block, args, cx)
	}
	fn := target.fn
	if arity := fn.Arity(); arity != runtime.Variadic && arity != len(args) {
		return nil, fmt.Errorf("%w: %s expects %d, got %d",
			runtime.ErrInvalidFnArgumentsNumber, fn.Name, arity, len(args))
	}
	if fn.Kind == runtime.FnEmbedded {
		return fn.Embedded.Fn(in.rt, cx, args)
	}
	return in.callUser(fn.Decl, args, cx)
}

// resolve looks the name up as a closure variable, then as a user or embedded
// function, then, for postfix calls, in the namespace of the parent's type.
func (in *Interpreter) resolve(node *ast.FunctionCall, parent object.Object, cx *runtime.Context) (callee, error) {
	reg := cx.Registry()
	bound, found, err := cx.Scope().Lookup(node.Name)
	if err != nil {
		return callee{}, err
	}
	fn, err := reg.Fn(node.Name)
	if err != nil {
		return callee{}, err
	}
	if closure, ok := bound.(*object.Closure); found && ok {
		useVariable := fn == nil
		if !useVariable {
			// name is also a function: the semantic pass decides
			ty, err := reg.TypeOf(node.Uuid)
			if err != nil {
				return callee{}, err
			}
			useVariable = ty == ast.TyClosure
		}
		if useVariable {
			decl, err := reg.Closure(closure.Uuid)
			if err != nil {
				return callee{}, err
			}
			return callee{closure: decl}, nil
		}
	}
	if fn == nil && parent != nil && !strings.Contains(node.Name, "::") {
		for _, ns := range namespaces(parent) {
			if fn, err = reg.Fn(ns + "::" + node.Name); err != nil {
				return callee{}, err
			}
			if fn != nil {
				break
			}
		}
	}
	if fn == nil {
		names, err := reg.FnNames()
		if err != nil {
			return callee{}, err
		}
		return callee{}, notFound(runtime.ErrFunctionNotFound, node.Name, names)
	}
	return callee{fn: fn}, nil
}

// callUser runs a user function in a branch of its own, at the caller's cwd.
func (in *Interpreter) callUser(decl *ast.FunctionDeclaration, args []object.Object, cx *runtime.Context) (object.Object, error) {
	cwd, err := cx.Scope().Cwd()
	if err != nil {
		return nil, err
	}
	branch, err := cx.Branch(decl.Name, cx.Component, cwd)
	if err != nil {
		return nil, err
	}
	val, err := in.invoke(decl.Uuid, decl.Args, decl.Block, args, branch)
	state := reporter.JobDone
	if err != nil {
		state = reporter.JobFailed
	}
	if closeErr := branch.Close(state); err == nil {
		err = closeErr
	}
	return val, err
}

// invoke binds args at a new level inside a new return context and runs
// block. A returned value wins over the block's value.
func (in *Interpreter) invoke(level uuid.UUID, params []*ast.ArgumentDeclaration, block *ast.Block, args []object.Object, cx *runtime.Context) (object.Object, error) {
	ret := uuid.New()
	if err := cx.Returns().Open(ret); err != nil {
		return nil, err
	}
	scope := cx.Scope()
	if err := scope.Enter(level); err != nil {
		_ = cx.Returns().Close()
		return nil, err
	}

	val, err := in.bindAndRun(params, block, args, cx)
	if err == nil {
		var returned object.Object
		if returned, err = cx.Returns().Withdraw(ret); returned != nil {
			val = returned
		}
	}
	if leaveErr := scope.Leave(); err == nil {
		err = leaveErr
	}
	if closeErr := cx.Returns().Close(); err == nil {
		err = closeErr
	}
	return val, err
}

func (in *Interpreter) bindAndRun(params []*ast.ArgumentDeclaration, block *ast.Block, args []object.Object, cx *runtime.Context) (object.Object, error) {
	for i, param := range params {
		if err := cx.Scope().Insert(param.Name, args[i]); err != nil {
			return nil, runtime.Link(err, param)
		}
	}
	if block == nil {
		return object.VOID, nil
	}
	return in.evalBlock(block, cx)
}

// namespaces lists the embedded function namespaces searched for a postfix
// call on val, in order. Vectors also reach the result combinators, since
// join yields a vector of results.
func namespaces(val object.Object) []string {
	switch val.(type) {
	case *object.String:
		return []string{"str"}
	case *object.Vec:
		return []string{"vec", "result"}
	case *object.Path:
		return []string{"path", "fs"}
	case *object.Number:
		return []string{"num"}
	case *object.Boolean:
		return []string{"bool"}
	case *object.ExecuteResult:
		return []string{"result"}
	}
	return nil
}

func notFound(sentinel error, name string, candidates []string) error {
	if match := closestMatch(name, candidates); match != "" {
		return fmt.Errorf("%w: %s, did you mean %s?", sentinel, name, match)
	}
	return fmt.Errorf("%w: %s", sentinel, name)
}

// closestMatch finds the closest candidate using fuzzy matching, preferring
// a candidate whose last path segment equals name.
func closestMatch(name string, candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	for _, c := range candidates {
		if i := strings.LastIndex(c, "::"); i >= 0 && c[i+2:] == name {
			return c
		}
	}
	ranks := fuzzy.RankFindFold(name, candidates)
	if len(ranks) == 0 {
		return nearest(name, candidates)
	}
	best := ranks[0]
	for _, r := range ranks[1:] {
		if r.Distance < best.Distance {
			best = r
		}
	}
	return best.Target
}

// nearest catches typos fuzzy matching misses, like swapped letters, by edit
// distance.
func nearest(name string, candidates []string) string {
	limit := max(2, len(name)/3)
	best, bestDist := "", limit+1
	for _, c := range candidates {
		if d := fuzzy.LevenshteinDistance(strings.ToLower(name), strings.ToLower(c)); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}
