package functions

import (
	"fmt"
	"os"

	"brisk/internal/object"
	"brisk/internal/runtime"
)

func envFns() []runtime.Embedded {
	return []runtime.Embedded{
		embedded("env::var", 1, fnEnvVar),
		embedded("env::set_var", 2, fnEnvSetVar),
		embedded("env::remove_var", 1, fnEnvRemoveVar),
	}
}

// fnEnvVar yields void when the variable is unset.
func fnEnvVar(_ *runtime.Runtime, _ *runtime.Context, args []object.Object) (object.Object, error) {
	key, err := unpackString(args[0], "name")
	if err != nil {
		return nil, err
	}
	val, ok := os.LookupEnv(key)
	if !ok {
		return object.VOID, nil
	}
	return object.Str(val), nil
}

func fnEnvSetVar(_ *runtime.Runtime, _ *runtime.Context, args []object.Object) (object.Object, error) {
	key, err := unpackString(args[0], "name")
	if err != nil {
		return nil, err
	}
	val, err := text(args[1])
	if err != nil {
		return nil, err
	}
	if err := os.Setenv(key, val); err != nil {
		return nil, fmt.Errorf("%w: %v", runtime.ErrIO, err)
	}
	return object.VOID, nil
}

func fnEnvRemoveVar(_ *runtime.Runtime, _ *runtime.Context, args []object.Object) (object.Object, error) {
	key, err := unpackString(args[0], "name")
	if err != nil {
		return nil, err
	}
	if err := os.Unsetenv(key); err != nil {
		return nil, fmt.Errorf("%w: %v", runtime.ErrIO, err)
	}
	return object.VOID, nil
}
