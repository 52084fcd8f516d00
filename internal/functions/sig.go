package functions

import (
	"fmt"

	"brisk/internal/object"
	"brisk/internal/runtime"
)

func sigFns() []runtime.Embedded {
	return []runtime.Embedded{
		embedded("sig::emit", 1, fnSigEmit),
		embedded("sig::wait", 1, fnSigWait),
	}
}

func fnSigEmit(_ *runtime.Runtime, cx *runtime.Context, args []object.Object) (object.Object, error) {
	name, err := unpackString(args[0], "signal")
	if err != nil {
		return nil, err
	}
	if err := cx.Signals().Emit(name); err != nil {
		return nil, err
	}
	return object.VOID, nil
}

// fnSigWait blocks until the signal is emitted or the branch is cancelled.
func fnSigWait(_ *runtime.Runtime, cx *runtime.Context, args []object.Object) (object.Object, error) {
	name, err := unpackString(args[0], "signal")
	if err != nil {
		return nil, err
	}
	fired, err := cx.Signals().Wait(name)
	if err != nil {
		return nil, err
	}
	select {
	case <-fired:
		return object.VOID, nil
	case <-cx.Ctx().Done():
		return nil, fmt.Errorf("%w: waiting for signal %s", runtime.ErrCancelled, name)
	}
}
