package functions

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"brisk/internal/object"
	"brisk/internal/runtime"
)

func pathFns() []runtime.Embedded {
	return []runtime.Embedded{
		embedded("path::join", 2, fnPathJoin),
		embedded("path::file_name", 1, fnPathFileName),
		embedded("path::parent", 1, fnPathParent),
		embedded("path::exists", 1, fnExists),
	}
}

func rawPath(arg object.Object, name string) (string, error) {
	p, ok := object.AsPath(arg)
	if !ok {
		return "", fmt.Errorf("%w: %s must be %s, got %s", object.ErrInvalidValueType, name, object.PATH_OBJ, arg.Type())
	}
	return p, nil
}

func fnPathJoin(_ *runtime.Runtime, _ *runtime.Context, args []object.Object) (object.Object, error) {
	base, err := rawPath(args[0], "path")
	if err != nil {
		return nil, err
	}
	part, err := rawPath(args[1], "part")
	if err != nil {
		return nil, err
	}
	return object.NewPath(filepath.Join(base, part)), nil
}

func fnPathFileName(_ *runtime.Runtime, _ *runtime.Context, args []object.Object) (object.Object, error) {
	p, err := rawPath(args[0], "path")
	if err != nil {
		return nil, err
	}
	return object.Str(filepath.Base(p)), nil
}

func fnPathParent(_ *runtime.Runtime, _ *runtime.Context, args []object.Object) (object.Object, error) {
	p, err := rawPath(args[0], "path")
	if err != nil {
		return nil, err
	}
	return object.NewPath(filepath.Dir(p)), nil
}

// fnExists resolves relative paths against the branch's cwd.
func fnExists(_ *runtime.Runtime, cx *runtime.Context, args []object.Object) (object.Object, error) {
	p, err := unpackPath(cx, args[0], "path")
	if err != nil {
		return nil, err
	}
	_, err = os.Stat(p)
	switch {
	case err == nil:
		return object.TRUE, nil
	case errors.Is(err, fs.ErrNotExist):
		return object.FALSE, nil
	}
	return nil, fmt.Errorf("%w: %v", runtime.ErrIO, err)
}
