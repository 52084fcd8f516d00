package runtime

import (
	"fmt"
	"reflect"
	"sort"

	"brisk/internal/ast"
	"brisk/internal/kernel"
	"brisk/internal/object"

	"github.com/google/uuid"
)

// EmbeddedFn is a natively implemented function. It runs on the caller's
// goroutine with the caller's context.
type EmbeddedFn func(rt *Runtime, cx *Context, args []object.Object) (object.Object, error)

// Variadic marks an embedded function accepting any number of arguments.
const Variadic = -1

type Embedded struct {
	Name  string // namespace::name
	Arity int
	Fn    EmbeddedFn
}

type FnKind int

const (
	FnUser FnKind = iota
	FnEmbedded
)

type FnDescriptor struct {
	Kind     FnKind
	Name     string
	Decl     *ast.FunctionDeclaration
	Embedded *Embedded
}

// Arity is the exact number of arguments the function takes, or Variadic.
func (d *FnDescriptor) Arity() int {
	if d.Kind == FnEmbedded {
		return d.Embedded.Arity
	}
	return len(d.Decl.Args)
}

type TaskDescriptor struct {
	Component *ast.Component
	Task      *ast.Task
}

func (t *TaskDescriptor) Ref() string { return t.Component.Name + ":" + t.Task.Name }

var typeOperations = kernel.OpRights{
	reflect.TypeOf(TypesLoad{}): kernel.RightWrite,
	reflect.TypeOf(TypeOf{}):    kernel.RightRead,
}

type typeStore struct {
	table map[uuid.UUID]ast.Ty
}

func (s *typeStore) Handler(ctx *kernel.ActCtx, msg kernel.Message) kernel.HandlerSignal {
	switch payload := msg.Payload.(type) {
	case TypesLoad:
		for id, ty := range payload.Table {
			s.table[id] = ty
		}
		ack(ctx, msg, nil)
	case TypeOf:
		kernel.Reply(ctx, msg, Result[ast.Ty]{Value: s.table[payload.Node]})
	case kernel.Shutdown:
	default:
		kernel.Reply(ctx, msg, kernel.UnknownOperation{})
	}
	return kernel.Continue{}
}

var fnOperations = kernel.OpRights{
	reflect.TypeOf(FnsLoad{}):         kernel.RightWrite,
	reflect.TypeOf(FnRegister{}):      kernel.RightWrite,
	reflect.TypeOf(ClosureRegister{}): kernel.RightWrite,
	reflect.TypeOf(FnLookup{}):        kernel.RightRead,
	reflect.TypeOf(TaskLookup{}):      kernel.RightRead,
	reflect.TypeOf(ClosureLookup{}):   kernel.RightRead,
	reflect.TypeOf(FnNames{}):         kernel.RightRead,
	reflect.TypeOf(TaskNames{}):       kernel.RightRead,
}

// fnStore holds user functions, tasks, closures and embedded functions.
type fnStore struct {
	fns      map[string]*FnDescriptor
	embedded map[string]*FnDescriptor
	tasks    map[string]*TaskDescriptor
	closures map[uuid.UUID]*ast.ClosureDeclaration
}

func newFnStore() *fnStore {
	return &fnStore{
		fns:      make(map[string]*FnDescriptor),
		embedded: make(map[string]*FnDescriptor),
		tasks:    make(map[string]*TaskDescriptor),
		closures: make(map[uuid.UUID]*ast.ClosureDeclaration),
	}
}

func (s *fnStore) load(anchor *ast.Anchor) error {
	for _, fn := range anchor.Functions {
		s.fns[fn.Name] = &FnDescriptor{Kind: FnUser, Name: fn.Name, Decl: fn}
	}
	for _, comp := range anchor.Components {
		for _, task := range comp.Tasks {
			ref := comp.Name + ":" + task.Name
			if _, ok := s.tasks[ref]; ok {
				return fmt.Errorf("task %s declared twice", ref)
			}
			s.tasks[ref] = &TaskDescriptor{Component: comp, Task: task}
		}
	}
	return nil
}

func (s *fnStore) Handler(ctx *kernel.ActCtx, msg kernel.Message) kernel.HandlerSignal {
	switch payload := msg.Payload.(type) {
	case FnsLoad:
		ack(ctx, msg, s.load(payload.Anchor))
	case FnRegister:
		if payload.Desc.Kind == FnEmbedded {
			s.embedded[payload.Desc.Name] = payload.Desc
		} else {
			s.fns[payload.Desc.Name] = payload.Desc
		}
		ack(ctx, msg, nil)
	case ClosureRegister:
		s.closures[payload.Decl.Uuid] = payload.Decl
		ack(ctx, msg, nil)
	case FnLookup:
		desc, ok := s.fns[payload.Name]
		if !ok {
			desc = s.embedded[payload.Name]
		}
		kernel.Reply(ctx, msg, Result[*FnDescriptor]{Value: desc})
	case TaskLookup:
		ref := payload.Component + ":" + payload.Task
		task, ok := s.tasks[ref]
		var err error
		if !ok {
			err = fmt.Errorf("%w: %s", ErrTaskNotFound, ref)
		}
		kernel.Reply(ctx, msg, Result[*TaskDescriptor]{Value: task, Err: err})
	case ClosureLookup:
		decl, ok := s.closures[payload.Uuid]
		var err error
		if !ok {
			err = fmt.Errorf("%w: %s", ErrClosureNotFound, payload.Uuid)
		}
		kernel.Reply(ctx, msg, Result[*ast.ClosureDeclaration]{Value: decl, Err: err})
	case FnNames:
		names := append(sortedKeys(s.fns), sortedKeys(s.embedded)...)
		kernel.Reply(ctx, msg, Result[[]string]{Value: names})
	case TaskNames:
		kernel.Reply(ctx, msg, Result[[]string]{Value: sortedKeys(s.tasks)})
	case kernel.Shutdown:
	default:
		kernel.Reply(ctx, msg, kernel.UnknownOperation{})
	}
	return kernel.Continue{}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Registry is the client side of the types and fns stores.
type Registry struct {
	rt *Runtime
}

// TypeOf returns the semantic type of a node, or "" when it was not annotated.
func (r Registry) TypeOf(node uuid.UUID) (ast.Ty, error) {
	return request[ast.Ty](r.rt, TypesService, TypeOf{Node: node})
}

// Fn returns nil when no function is registered under name. User functions
// shadow embedded ones.
func (r Registry) Fn(name string) (*FnDescriptor, error) {
	return request[*FnDescriptor](r.rt, FnsService, FnLookup{Name: name})
}

func (r Registry) Task(component, task string) (*TaskDescriptor, error) {
	return request[*TaskDescriptor](r.rt, FnsService, TaskLookup{Component: component, Task: task})
}

func (r Registry) RegisterClosure(decl *ast.ClosureDeclaration) error {
	return r.rt.ack(FnsService, ClosureRegister{Decl: decl})
}

func (r Registry) Closure(id uuid.UUID) (*ast.ClosureDeclaration, error) {
	return request[*ast.ClosureDeclaration](r.rt, FnsService, ClosureLookup{Uuid: id})
}

func (r Registry) FnNames() ([]string, error) {
	return request[[]string](r.rt, FnsService, FnNames{})
}

func (r Registry) TaskNames() ([]string, error) {
	return request[[]string](r.rt, FnsService, TaskNames{})
}
