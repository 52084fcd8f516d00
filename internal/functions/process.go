package functions

import (
	"fmt"

	"brisk/internal/object"
	"brisk/internal/runtime"
)

func processFns() []runtime.Embedded {
	return []runtime.Embedded{
		embedded("process::exit", 1, fnProcessExit),
		embedded("process::abort", 0, fnProcessAbort),
	}
}

func fnProcessExit(_ *runtime.Runtime, _ *runtime.Context, args []object.Object) (object.Object, error) {
	code, err := unpackInt(args[0], "code")
	if err != nil {
		return nil, err
	}
	return nil, &runtime.ExitError{Code: code}
}

// fnProcessAbort cancels every running job, including spawned commands.
func fnProcessAbort(rt *runtime.Runtime, cx *runtime.Context, _ []object.Object) (object.Object, error) {
	cx.Journal().Warn("abort requested")
	rt.Abort()
	return nil, fmt.Errorf("%w: aborted", runtime.ErrCancelled)
}
