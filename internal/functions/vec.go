package functions

import (
	"strings"

	"brisk/internal/object"
	"brisk/internal/runtime"
)

func vecFns() []runtime.Embedded {
	return []runtime.Embedded{
		embedded("vec::len", 1, fnVecLen),
		embedded("vec::join", 2, fnVecJoin),
		embedded("vec::push", 2, fnVecPush),
		embedded("vec::contains", 2, fnVecContains),
	}
}

func fnVecLen(_ *runtime.Runtime, _ *runtime.Context, args []object.Object) (object.Object, error) {
	els, err := unpackVec(args[0], "value")
	if err != nil {
		return nil, err
	}
	return object.Num(float64(len(els))), nil
}

func fnVecJoin(_ *runtime.Runtime, _ *runtime.Context, args []object.Object) (object.Object, error) {
	els, err := unpackVec(args[0], "value")
	if err != nil {
		return nil, err
	}
	sep, err := unpackString(args[1], "separator")
	if err != nil {
		return nil, err
	}
	parts := make([]string, len(els))
	for i, el := range els {
		if parts[i], err = text(el); err != nil {
			return nil, err
		}
	}
	return object.Str(strings.Join(parts, sep)), nil
}

// fnVecPush returns a new vector; values are never mutated in place.
func fnVecPush(_ *runtime.Runtime, _ *runtime.Context, args []object.Object) (object.Object, error) {
	els, err := unpackVec(args[0], "value")
	if err != nil {
		return nil, err
	}
	out := make([]object.Object, len(els), len(els)+1)
	copy(out, els)
	return object.NewVec(append(out, object.Clone(args[1]))...), nil
}

func fnVecContains(_ *runtime.Runtime, _ *runtime.Context, args []object.Object) (object.Object, error) {
	els, err := unpackVec(args[0], "value")
	if err != nil {
		return nil, err
	}
	for _, el := range els {
		if el.Type() != args[1].Type() {
			continue
		}
		eq, err := object.Equal(el, args[1])
		if err != nil {
			return nil, err
		}
		if eq {
			return object.TRUE, nil
		}
	}
	return object.FALSE, nil
}
