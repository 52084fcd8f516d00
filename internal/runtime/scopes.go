package runtime

import (
	"fmt"
	"reflect"

	"brisk/internal/kernel"
	"brisk/internal/object"

	"github.com/google/uuid"
)

var scopeOperations = kernel.OpRights{
	reflect.TypeOf(ScopeOpen{}):           kernel.RightExec,
	reflect.TypeOf(ScopeFork{}):           kernel.RightExec,
	reflect.TypeOf(ScopeClose{}):          kernel.RightExec,
	reflect.TypeOf(ScopeEnter{}):          kernel.RightWrite,
	reflect.TypeOf(ScopeLeave{}):          kernel.RightWrite,
	reflect.TypeOf(ScopeInsert{}):         kernel.RightWrite,
	reflect.TypeOf(ScopeUpdate{}):         kernel.RightWrite,
	reflect.TypeOf(ScopeGlobal{}):         kernel.RightWrite,
	reflect.TypeOf(ScopeSetParent{}):      kernel.RightWrite,
	reflect.TypeOf(ScopeWithdrawParent{}): kernel.RightWrite,
	reflect.TypeOf(ScopeDropParent{}):     kernel.RightWrite,
	reflect.TypeOf(ScopeSetCwd{}):         kernel.RightWrite,
	reflect.TypeOf(ScopeLookup{}):         kernel.RightRead,
	reflect.TypeOf(ScopeCwd{}):            kernel.RightRead,
}

// branch is the scope stack of one logical invocation chain. base is the
// level the branch started from: the global level for a new branch, the
// parent's current level for a fork. Levels below base are read-only for
// inserts but still visible to lookups.
type branch struct {
	env    *object.Environment
	base   *object.Environment
	parent object.Object
	cwd    string
}

type scopeStore struct {
	global   *object.Environment
	branches map[uuid.UUID]*branch
}

func newScopeStore() *scopeStore {
	return &scopeStore{
		global:   object.NewGlobalEnvironment(),
		branches: make(map[uuid.UUID]*branch),
	}
}

func (s *scopeStore) branch(owner uuid.UUID) (*branch, error) {
	b, ok := s.branches[owner]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBranchNotFound, owner)
	}
	return b, nil
}

func (s *scopeStore) Handler(ctx *kernel.ActCtx, msg kernel.Message) kernel.HandlerSignal {
	switch payload := msg.Payload.(type) {
	case ScopeOpen:
		if _, ok := s.branches[payload.Owner]; ok {
			ack(ctx, msg, fmt.Errorf("%w: %s", ErrBranchAlreadyExists, payload.Owner))
			break
		}
		s.branches[payload.Owner] = &branch{env: s.global, base: s.global, cwd: payload.Cwd}
		ack(ctx, msg, nil)
	case ScopeFork:
		parent, err := s.branch(payload.Parent)
		if err != nil {
			ack(ctx, msg, err)
			break
		}
		if _, ok := s.branches[payload.Child]; ok {
			ack(ctx, msg, fmt.Errorf("%w: %s", ErrBranchAlreadyExists, payload.Child))
			break
		}
		s.branches[payload.Child] = &branch{env: parent.env, base: parent.env, cwd: parent.cwd}
		ack(ctx, msg, nil)
	case ScopeClose:
		if _, err := s.branch(payload.Owner); err != nil {
			ack(ctx, msg, err)
			break
		}
		delete(s.branches, payload.Owner)
		ack(ctx, msg, nil)
	case ScopeEnter:
		b, err := s.branch(payload.Owner)
		if err == nil {
			b.env = object.NewEnclosedEnvironment(b.env, payload.Level)
		}
		ack(ctx, msg, err)
	case ScopeLeave:
		b, err := s.branch(payload.Owner)
		if err == nil {
			if b.env == b.base {
				err = ErrAttemptToLeaveRootScopeLevel
			} else {
				b.env = b.env.Outer
			}
		}
		ack(ctx, msg, err)
	case ScopeInsert:
		b, err := s.branch(payload.Owner)
		if err == nil {
			if b.env == b.base {
				err = fmt.Errorf("%w: inserting %q", ErrNoOpenScopeLevel, payload.Name)
			} else {
				b.env.Define(payload.Name, payload.Value)
			}
		}
		ack(ctx, msg, err)
	case ScopeUpdate:
		b, err := s.branch(payload.Owner)
		if err == nil {
			if _, assignErr := b.env.Assign(payload.Name, payload.Value); assignErr != nil {
				err = fmt.Errorf("%w: %s", ErrVariableNotFound, payload.Name)
			}
		}
		ack(ctx, msg, err)
	case ScopeLookup:
		b, err := s.branch(payload.Owner)
		var val object.Object
		if err == nil {
			val, _ = b.env.Get(payload.Name)
		}
		kernel.Reply(ctx, msg, Result[object.Object]{Value: val, Err: err})
	case ScopeGlobal:
		s.global.Define(payload.Name, payload.Value)
		ack(ctx, msg, nil)
	case ScopeSetParent:
		b, err := s.branch(payload.Owner)
		if err == nil {
			b.parent = payload.Value
		}
		ack(ctx, msg, err)
	case ScopeWithdrawParent:
		b, err := s.branch(payload.Owner)
		var val object.Object
		if err == nil {
			val, b.parent = b.parent, nil
		}
		kernel.Reply(ctx, msg, Result[object.Object]{Value: val, Err: err})
	case ScopeDropParent:
		b, err := s.branch(payload.Owner)
		if err == nil {
			b.parent = nil
		}
		ack(ctx, msg, err)
	case ScopeSetCwd:
		b, err := s.branch(payload.Owner)
		if err == nil {
			b.cwd = payload.Cwd
		}
		ack(ctx, msg, err)
	case ScopeCwd:
		b, err := s.branch(payload.Owner)
		var cwd string
		if err == nil {
			cwd = b.cwd
		}
		kernel.Reply(ctx, msg, Result[string]{Value: cwd, Err: err})
	case kernel.Shutdown:
		log.Debugf("scopes: dropping %d branches (%s)", len(s.branches), payload.Reason)
		s.branches = nil
	default:
		kernel.Reply(ctx, msg, kernel.UnknownOperation{})
	}
	return kernel.Continue{}
}

// ScopeCx is the scope store bound to one branch.
type ScopeCx struct {
	rt    *Runtime
	owner uuid.UUID
}

func (s ScopeCx) Enter(level uuid.UUID) error {
	return s.rt.ack(ScopesService, ScopeEnter{Owner: s.owner, Level: level})
}

func (s ScopeCx) Leave() error {
	return s.rt.ack(ScopesService, ScopeLeave{Owner: s.owner})
}

func (s ScopeCx) Insert(name string, val object.Object) error {
	return s.rt.ack(ScopesService, ScopeInsert{Owner: s.owner, Name: name, Value: val})
}

func (s ScopeCx) Update(name string, val object.Object) error {
	return s.rt.ack(ScopesService, ScopeUpdate{Owner: s.owner, Name: name, Value: val})
}

// Lookup returns nil, false when name is not bound in the branch.
func (s ScopeCx) Lookup(name string) (object.Object, bool, error) {
	val, err := request[object.Object](s.rt, ScopesService, ScopeLookup{Owner: s.owner, Name: name})
	return val, val != nil, err
}

func (s ScopeCx) Global(name string, val object.Object) error {
	return s.rt.ack(ScopesService, ScopeGlobal{Name: name, Value: val})
}

func (s ScopeCx) SetParentValue(val object.Object) error {
	return s.rt.ack(ScopesService, ScopeSetParent{Owner: s.owner, Value: val})
}

// WithdrawParentValue takes the parent value out of the slot. It is nil when
// the slot is empty.
func (s ScopeCx) WithdrawParentValue() (object.Object, error) {
	return request[object.Object](s.rt, ScopesService, ScopeWithdrawParent{Owner: s.owner})
}

func (s ScopeCx) DropParentValue() error {
	return s.rt.ack(ScopesService, ScopeDropParent{Owner: s.owner})
}

func (s ScopeCx) SetCwd(cwd string) error {
	return s.rt.ack(ScopesService, ScopeSetCwd{Owner: s.owner, Cwd: cwd})
}

func (s ScopeCx) Cwd() (string, error) {
	return request[string](s.rt, ScopesService, ScopeCwd{Owner: s.owner})
}
