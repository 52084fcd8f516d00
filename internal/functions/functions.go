// Package functions holds the embedded functions scripts can call, grouped by
// namespace (str::len, fs::write, ...).
package functions

import (
	"fmt"
	"path/filepath"

	"brisk/internal/object"
	"brisk/internal/runtime"
)

// All returns every embedded function, ready for runtime.WithEmbedded.
func All() []runtime.Embedded {
	var all []runtime.Embedded
	for _, ns := range [][]runtime.Embedded{
		resultFns(),
		strFns(),
		vecFns(),
		pathFns(),
		numFns(),
		fsFns(),
		envFns(),
		sigFns(),
		logsFns(),
		cxFns(),
		processFns(),
		hashFns(),
		timeFns(),
		sqlFns(),
	} {
		all = append(all, ns...)
	}
	return all
}

func embedded(name string, arity int, fn runtime.EmbeddedFn) runtime.Embedded {
	return runtime.Embedded{Name: name, Arity: arity, Fn: fn}
}

func unpackString(arg object.Object, name string) (string, error) {
	s, ok := arg.(*object.String)
	if !ok {
		return "", fmt.Errorf("%w: %s must be %s, got %s", object.ErrInvalidValueType, name, object.STRING_OBJ, arg.Type())
	}
	return s.Value, nil
}

func unpackInt(arg object.Object, name string) (int, error) {
	n, ok := object.AsInt(arg)
	if !ok {
		return 0, fmt.Errorf("%w: %s must be an integer %s, got %s", object.ErrInvalidValueType, name, object.NUMBER_OBJ, arg.Inspect())
	}
	return n, nil
}

func unpackVec(arg object.Object, name string) ([]object.Object, error) {
	els, ok := object.AsVec(arg)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be %s, got %s", object.ErrInvalidValueType, name, object.VEC_OBJ, arg.Type())
	}
	return els, nil
}

// unpackPath accepts a path or a string and resolves it against the
// branch's cwd.
func unpackPath(cx *runtime.Context, arg object.Object, name string) (string, error) {
	p, ok := object.AsPath(arg)
	if !ok {
		return "", fmt.Errorf("%w: %s must be %s, got %s", object.ErrInvalidValueType, name, object.PATH_OBJ, arg.Type())
	}
	if filepath.IsAbs(p) {
		return p, nil
	}
	cwd, err := cx.Scope().Cwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, p), nil
}

func text(arg object.Object) (string, error) {
	s, ok := object.AsString(arg)
	if !ok {
		return "", fmt.Errorf("%w: %s to string", object.ErrCannotBeConverted, arg.Type())
	}
	return s, nil
}
