package object

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// Environment is one lexical level of a branch's scope stack. Levels are
// chained through Outer up to the global level. Environments carry no lock:
// they are only touched from the scope store's actor goroutine.
type Environment struct {
	Owner    uuid.UUID // uuid of the block/task/closure that opened the level
	Bindings map[string]*Binding
	Outer    *Environment
	IsGlobal bool
}

type Binding struct {
	Value Object
}

func NewEnvironment(owner uuid.UUID) *Environment {
	return &Environment{
		Owner:    owner,
		Bindings: make(map[string]*Binding),
	}
}

// NewGlobalEnvironment creates the process wide outermost level.
func NewGlobalEnvironment() *Environment {
	env := NewEnvironment(uuid.Nil)
	env.IsGlobal = true
	return env
}

// NewEnclosedEnvironment opens a level on top of outer.
func NewEnclosedEnvironment(outer *Environment, owner uuid.UUID) *Environment {
	env := NewEnvironment(owner)
	env.Outer = outer
	return env
}

func (e *Environment) GetBinding(name string) (*Binding, bool) {
	for env := e; env != nil; env = env.Outer {
		if binding, ok := env.Bindings[name]; ok {
			return binding, true
		}
	}
	return nil, false
}

// Get walks outward and returns the first value bound to name.
func (e *Environment) Get(name string) (Object, bool) {
	binding, ok := e.GetBinding(name)
	if !ok {
		return nil, false
	}
	return binding.Value, true
}

// Define binds name in this level, shadowing outer levels.
func (e *Environment) Define(name string, val Object) Object {
	val = Clone(val)
	if binding, ok := e.Bindings[name]; ok {
		binding.Value = val
	} else {
		e.Bindings[name] = &Binding{Value: val}
	}
	slog.Debug("binding value",
		slog.String("name", name),
		slog.Any("type", val.Type()),
		slog.String("level", e.Owner.String()))
	return val
}

// Assign updates the nearest existing binding of name. The global level is
// not searched: it is written only through Define on the global level.
func (e *Environment) Assign(name string, val Object) (Object, error) {
	for env := e; env != nil && !env.IsGlobal; env = env.Outer {
		if binding, ok := env.Bindings[name]; ok {
			binding.Value = Clone(val)
			return binding.Value, nil
		}
	}
	return nil, fmt.Errorf("failed to assign to '%s': not defined in any accessible scope", name)
}

// Depth counts levels down to and including the global level.
func (e *Environment) Depth() int {
	n := 0
	for env := e; env != nil; env = env.Outer {
		n++
	}
	return n
}
