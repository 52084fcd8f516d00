package runtime

import (
	"fmt"
	"reflect"

	"brisk/internal/kernel"

	"github.com/google/uuid"
)

var loopOperations = kernel.OpRights{
	reflect.TypeOf(LoopOpen{}):     kernel.RightWrite,
	reflect.TypeOf(LoopClose{}):    kernel.RightWrite,
	reflect.TypeOf(LoopBreak{}):    kernel.RightWrite,
	reflect.TypeOf(LoopDrop{}):     kernel.RightExec,
	reflect.TypeOf(LoopIsBroken{}): kernel.RightRead,
}

type loopCx struct {
	id     uuid.UUID
	broken bool
}

type loopStore struct {
	stacks map[uuid.UUID][]*loopCx
}

func newLoopStore() *loopStore {
	return &loopStore{stacks: make(map[uuid.UUID][]*loopCx)}
}

func (s *loopStore) Handler(ctx *kernel.ActCtx, msg kernel.Message) kernel.HandlerSignal {
	switch payload := msg.Payload.(type) {
	case LoopOpen:
		s.stacks[payload.Owner] = append(s.stacks[payload.Owner], &loopCx{id: payload.Loop})
		ack(ctx, msg, nil)
	case LoopClose:
		stack := s.stacks[payload.Owner]
		switch len(stack) {
		case 0:
			ack(ctx, msg, ErrNoOpenLoopsToClose)
			return kernel.Continue{}
		case 1:
			delete(s.stacks, payload.Owner)
		default:
			s.stacks[payload.Owner] = stack[:len(stack)-1]
		}
		ack(ctx, msg, nil)
	case LoopBreak:
		ack(ctx, msg, s.breakLoop(payload.Owner, payload.Target))
	case LoopIsBroken:
		stack := s.stacks[payload.Owner]
		broken := len(stack) > 0 && stack[len(stack)-1].broken
		kernel.Reply(ctx, msg, Result[bool]{Value: broken})
	case LoopDrop:
		delete(s.stacks, payload.Owner)
		ack(ctx, msg, nil)
	case kernel.Shutdown:
		s.stacks = nil
	default:
		kernel.Reply(ctx, msg, kernel.UnknownOperation{})
	}
	return kernel.Continue{}
}

// breakLoop marks the innermost loop. With a target, the innermost loop with
// that uuid is marked together with every loop nested inside it.
func (s *loopStore) breakLoop(owner uuid.UUID, target *uuid.UUID) error {
	stack := s.stacks[owner]
	if len(stack) == 0 {
		return ErrNoOpenLoopsToBreak
	}
	if target == nil {
		stack[len(stack)-1].broken = true
		return nil
	}
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i].id == *target {
			for _, cx := range stack[i:] {
				cx.broken = true
			}
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNoBreakSignalFor, *target)
}

// LoopCx is the loop store bound to one branch.
type LoopCx struct {
	rt    *Runtime
	owner uuid.UUID
}

func (l LoopCx) Open(loop uuid.UUID) error {
	return l.rt.ack(LoopsService, LoopOpen{Owner: l.owner, Loop: loop})
}

func (l LoopCx) Close() error {
	return l.rt.ack(LoopsService, LoopClose{Owner: l.owner})
}

func (l LoopCx) Break(target *uuid.UUID) error {
	return l.rt.ack(LoopsService, LoopBreak{Owner: l.owner, Target: target})
}

// IsBroken reports whether the innermost open loop has been broken.
func (l LoopCx) IsBroken() (bool, error) {
	return request[bool](l.rt, LoopsService, LoopIsBroken{Owner: l.owner})
}
