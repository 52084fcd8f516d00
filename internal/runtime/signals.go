package runtime

import (
	"fmt"
	"reflect"

	"brisk/internal/kernel"
)

var signalOperations = kernel.OpRights{
	reflect.TypeOf(SignalEmit{}):    kernel.RightWrite,
	reflect.TypeOf(SignalWait{}):    kernel.RightRead,
	reflect.TypeOf(SignalWaiters{}): kernel.RightRead,
}

type signal struct {
	fired   chan struct{}
	emitted bool
	waiters int
}

type signalStore struct {
	signals map[string]*signal
}

func (s *signalStore) get(name string) *signal {
	sig, ok := s.signals[name]
	if !ok {
		sig = &signal{fired: make(chan struct{})}
		s.signals[name] = sig
	}
	return sig
}

func (s *signalStore) Handler(ctx *kernel.ActCtx, msg kernel.Message) kernel.HandlerSignal {
	switch payload := msg.Payload.(type) {
	case SignalEmit:
		sig := s.get(payload.Name)
		if sig.emitted {
			ack(ctx, msg, fmt.Errorf("%w: %s", ErrMultipleSignalEmit, payload.Name))
			break
		}
		sig.emitted = true
		close(sig.fired)
		ack(ctx, msg, nil)
	case SignalWait:
		sig := s.get(payload.Name)
		sig.waiters++
		kernel.Reply(ctx, msg, Result[<-chan struct{}]{Value: sig.fired})
	case SignalWaiters:
		var n int
		if sig, ok := s.signals[payload.Name]; ok {
			n = sig.waiters
		}
		kernel.Reply(ctx, msg, Result[int]{Value: n})
	case kernel.Shutdown:
	default:
		kernel.Reply(ctx, msg, kernel.UnknownOperation{})
	}
	return kernel.Continue{}
}

// Signals is the client side of the signal store.
type Signals struct {
	rt *Runtime
}

// Emit fires the named token. Emitting the same name twice is an error.
func (s Signals) Emit(name string) error {
	return s.rt.ack(SignalsService, SignalEmit{Name: name})
}

// Wait returns the token channel, closed once the signal is emitted.
func (s Signals) Wait(name string) (<-chan struct{}, error) {
	return request[<-chan struct{}](s.rt, SignalsService, SignalWait{Name: name})
}

func (s Signals) Waiters(name string) (int, error) {
	return request[int](s.rt, SignalsService, SignalWaiters{Name: name})
}
