package runtime

import (
	"fmt"
	"reflect"

	"brisk/internal/kernel"
	"brisk/internal/object"

	"github.com/google/uuid"
)

var returnOperations = kernel.OpRights{
	reflect.TypeOf(ReturnOpen{}):      kernel.RightWrite,
	reflect.TypeOf(ReturnClose{}):     kernel.RightWrite,
	reflect.TypeOf(ReturnSet{}):       kernel.RightWrite,
	reflect.TypeOf(ReturnWithdraw{}):  kernel.RightWrite,
	reflect.TypeOf(ReturnDrop{}):      kernel.RightExec,
	reflect.TypeOf(ReturnIsPending{}): kernel.RightRead,
}

type returnCx struct {
	id    uuid.UUID
	value object.Object
	set   bool
}

// returnStore keeps one stack of return contexts per branch.
type returnStore struct {
	stacks map[uuid.UUID][]*returnCx
}

func newReturnStore() *returnStore {
	return &returnStore{stacks: make(map[uuid.UUID][]*returnCx)}
}

func (s *returnStore) top(owner uuid.UUID) *returnCx {
	stack := s.stacks[owner]
	if len(stack) == 0 {
		return nil
	}
	return stack[len(stack)-1]
}

func (s *returnStore) Handler(ctx *kernel.ActCtx, msg kernel.Message) kernel.HandlerSignal {
	switch payload := msg.Payload.(type) {
	case ReturnOpen:
		for _, cx := range s.stacks[payload.Owner] {
			if cx.id == payload.Cx {
				ack(ctx, msg, fmt.Errorf("%w: %s", ErrReturnContextAlreadyExists, payload.Cx))
				return kernel.Continue{}
			}
		}
		s.stacks[payload.Owner] = append(s.stacks[payload.Owner], &returnCx{id: payload.Cx})
		ack(ctx, msg, nil)
	case ReturnClose:
		stack := s.stacks[payload.Owner]
		if len(stack) == 0 {
			ack(ctx, msg, ErrNoOpenReturnContextsToClose)
			break
		}
		s.pop(payload.Owner)
		ack(ctx, msg, nil)
	case ReturnSet:
		cx := s.top(payload.Owner)
		switch {
		case cx == nil:
			ack(ctx, msg, ErrNoOpenReturnContext)
		case cx.set:
			ack(ctx, msg, fmt.Errorf("%w: %s", ErrReturnValueAlreadyExists, cx.id))
		default:
			cx.value, cx.set = payload.Value, true
			ack(ctx, msg, nil)
		}
	case ReturnWithdraw:
		cx := s.top(payload.Owner)
		switch {
		case cx == nil:
			kernel.Reply(ctx, msg, Result[object.Object]{Err: ErrNoOpenReturnContext})
		case cx.id != payload.Cx:
			kernel.Reply(ctx, msg, Result[object.Object]{
				Err: fmt.Errorf("%w: open %s, withdrawing %s", ErrReturnContextMismatch, cx.id, payload.Cx),
			})
		default:
			val := cx.value
			cx.value, cx.set = nil, false
			kernel.Reply(ctx, msg, Result[object.Object]{Value: val})
		}
	case ReturnIsPending:
		cx := s.top(payload.Owner)
		kernel.Reply(ctx, msg, Result[bool]{Value: cx != nil && cx.set})
	case ReturnDrop:
		delete(s.stacks, payload.Owner)
		ack(ctx, msg, nil)
	case kernel.Shutdown:
		s.stacks = nil
	default:
		kernel.Reply(ctx, msg, kernel.UnknownOperation{})
	}
	return kernel.Continue{}
}

func (s *returnStore) pop(owner uuid.UUID) {
	stack := s.stacks[owner]
	if len(stack) <= 1 {
		delete(s.stacks, owner)
		return
	}
	s.stacks[owner] = stack[:len(stack)-1]
}

// ReturnCx is the return store bound to one branch.
type ReturnCx struct {
	rt    *Runtime
	owner uuid.UUID
}

func (r ReturnCx) Open(cx uuid.UUID) error {
	return r.rt.ack(ReturnsService, ReturnOpen{Owner: r.owner, Cx: cx})
}

func (r ReturnCx) Close() error {
	return r.rt.ack(ReturnsService, ReturnClose{Owner: r.owner})
}

func (r ReturnCx) Set(val object.Object) error {
	return r.rt.ack(ReturnsService, ReturnSet{Owner: r.owner, Value: val})
}

// Withdraw takes the pending value of the innermost context, which must be cx.
// It returns nil when nothing was returned.
func (r ReturnCx) Withdraw(cx uuid.UUID) (object.Object, error) {
	return request[object.Object](r.rt, ReturnsService, ReturnWithdraw{Owner: r.owner, Cx: cx})
}

func (r ReturnCx) IsPending() (bool, error) {
	return request[bool](r.rt, ReturnsService, ReturnIsPending{Owner: r.owner})
}
