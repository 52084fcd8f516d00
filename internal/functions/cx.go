package functions

import (
	"fmt"
	"os"

	"brisk/internal/object"
	"brisk/internal/runtime"
)

func cxFns() []runtime.Embedded {
	return []runtime.Embedded{
		embedded("cx::cwd", 0, fnCxCwd),
		embedded("cx::set_cwd", 1, fnCxSetCwd),
	}
}

func fnCxCwd(_ *runtime.Runtime, cx *runtime.Context, _ []object.Object) (object.Object, error) {
	cwd, err := cx.Scope().Cwd()
	if err != nil {
		return nil, err
	}
	return object.NewPath(cwd), nil
}

// fnCxSetCwd changes the working directory of the current branch only. The
// target has to be an existing directory.
func fnCxSetCwd(_ *runtime.Runtime, cx *runtime.Context, args []object.Object) (object.Object, error) {
	p, err := unpackPath(cx, args[0], "path")
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", runtime.ErrIO, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", runtime.ErrIO, p)
	}
	if err := cx.Scope().SetCwd(p); err != nil {
		return nil, err
	}
	return object.VOID, nil
}
