package functions

import (
	"fmt"
	"os"
	"path/filepath"

	"brisk/internal/object"
	"brisk/internal/runtime"
)

func fsFns() []runtime.Embedded {
	return []runtime.Embedded{
		embedded("fs::read_to_string", 1, fnFsReadToString),
		embedded("fs::write", 2, fnFsWrite),
		embedded("fs::create_dir_all", 1, fnFsCreateDirAll),
		embedded("fs::remove", 1, fnFsRemove),
		embedded("fs::exists", 1, fnExists),
	}
}

func fnFsReadToString(_ *runtime.Runtime, cx *runtime.Context, args []object.Object) (object.Object, error) {
	p, err := unpackPath(cx, args[0], "path")
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read file: %v", runtime.ErrIO, err)
	}
	return object.Str(string(data)), nil
}

// fnFsWrite replaces the file's content, creating missing parent directories.
func fnFsWrite(_ *runtime.Runtime, cx *runtime.Context, args []object.Object) (object.Object, error) {
	p, err := unpackPath(cx, args[0], "path")
	if err != nil {
		return nil, err
	}
	content, err := text(args[1])
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", runtime.ErrIO, err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		return nil, fmt.Errorf("%w: failed to write file: %v", runtime.ErrIO, err)
	}
	return object.VOID, nil
}

func fnFsCreateDirAll(_ *runtime.Runtime, cx *runtime.Context, args []object.Object) (object.Object, error) {
	p, err := unpackPath(cx, args[0], "path")
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(p, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", runtime.ErrIO, err)
	}
	return object.VOID, nil
}

// fnFsRemove deletes a file or a whole directory tree. A missing path is not
// an error.
func fnFsRemove(_ *runtime.Runtime, cx *runtime.Context, args []object.Object) (object.Object, error) {
	p, err := unpackPath(cx, args[0], "path")
	if err != nil {
		return nil, err
	}
	if err := os.RemoveAll(p); err != nil {
		return nil, fmt.Errorf("%w: %v", runtime.ErrIO, err)
	}
	return object.VOID, nil
}
