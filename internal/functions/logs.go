package functions

import (
	"brisk/internal/object"
	"brisk/internal/runtime"
)

func logsFns() []runtime.Embedded {
	return []runtime.Embedded{
		embedded("logs::debug", 1, logAt(runtime.Journal.Debug)),
		embedded("logs::info", 1, logAt(runtime.Journal.Info)),
		embedded("logs::warn", 1, logAt(runtime.Journal.Warn)),
		embedded("logs::err", 1, logAt(runtime.Journal.Err)),
	}
}

// logAt writes the argument to the job's journal at one level.
func logAt(write func(runtime.Journal, string)) runtime.EmbeddedFn {
	return func(_ *runtime.Runtime, cx *runtime.Context, args []object.Object) (object.Object, error) {
		msg, err := text(args[0])
		if err != nil {
			return nil, err
		}
		write(cx.Journal(), msg)
		return object.VOID, nil
	}
}
