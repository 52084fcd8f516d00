package functions

import (
	"fmt"
	"time"

	"brisk/internal/object"
	"brisk/internal/runtime"
)

func timeFns() []runtime.Embedded {
	return []runtime.Embedded{
		embedded("time::sleep", 1, fnTimeSleep),
	}
}

// fnTimeSleep waits the given number of milliseconds, returning early with
// an error when the branch is cancelled.
func fnTimeSleep(_ *runtime.Runtime, cx *runtime.Context, args []object.Object) (object.Object, error) {
	ms, err := unpackInt(args[0], "milliseconds")
	if err != nil {
		return nil, err
	}
	timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
	defer timer.Stop()
	select {
	case <-timer.C:
		return object.VOID, nil
	case <-cx.Ctx().Done():
		return nil, fmt.Errorf("%w: sleep interrupted", runtime.ErrCancelled)
	}
}
