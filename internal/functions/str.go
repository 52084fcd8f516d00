package functions

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"brisk/internal/object"
	"brisk/internal/runtime"
)

func strFns() []runtime.Embedded {
	return []runtime.Embedded{
		embedded("str::len", 1, fnStrLen),
		embedded("str::to_upper", 1, strMap(strings.ToUpper)),
		embedded("str::to_lower", 1, strMap(strings.ToLower)),
		embedded("str::trim", 1, strMap(strings.TrimSpace)),
		embedded("str::is_empty", 1, fnStrIsEmpty),
		embedded("str::contains", 2, strTest(strings.Contains)),
		embedded("str::starts_with", 2, strTest(strings.HasPrefix)),
		embedded("str::ends_with", 2, strTest(strings.HasSuffix)),
		embedded("str::split", 2, fnStrSplit),
		embedded("str::repeat", 2, fnStrRepeat),
		embedded("str::to_num", 1, fnStrToNum),
	}
}

func strMap(fn func(string) string) runtime.EmbeddedFn {
	return func(_ *runtime.Runtime, _ *runtime.Context, args []object.Object) (object.Object, error) {
		s, err := unpackString(args[0], "value")
		if err != nil {
			return nil, err
		}
		return object.Str(fn(s)), nil
	}
}

func strTest(fn func(s, sub string) bool) runtime.EmbeddedFn {
	return func(_ *runtime.Runtime, _ *runtime.Context, args []object.Object) (object.Object, error) {
		s, err := unpackString(args[0], "value")
		if err != nil {
			return nil, err
		}
		sub, err := unpackString(args[1], "pattern")
		if err != nil {
			return nil, err
		}
		return object.NativeBool(fn(s, sub)), nil
	}
}

// fnStrLen counts characters, not bytes.
func fnStrLen(_ *runtime.Runtime, _ *runtime.Context, args []object.Object) (object.Object, error) {
	s, err := unpackString(args[0], "value")
	if err != nil {
		return nil, err
	}
	return object.Num(float64(utf8.RuneCountInString(s))), nil
}

func fnStrIsEmpty(_ *runtime.Runtime, _ *runtime.Context, args []object.Object) (object.Object, error) {
	s, err := unpackString(args[0], "value")
	if err != nil {
		return nil, err
	}
	return object.NativeBool(s == ""), nil
}

func fnStrSplit(_ *runtime.Runtime, _ *runtime.Context, args []object.Object) (object.Object, error) {
	s, err := unpackString(args[0], "value")
	if err != nil {
		return nil, err
	}
	sep, err := unpackString(args[1], "separator")
	if err != nil {
		return nil, err
	}
	parts := strings.Split(s, sep)
	els := make([]object.Object, len(parts))
	for i, p := range parts {
		els[i] = object.Str(p)
	}
	return object.NewVec(els...), nil
}

func fnStrRepeat(_ *runtime.Runtime, _ *runtime.Context, args []object.Object) (object.Object, error) {
	s, err := unpackString(args[0], "value")
	if err != nil {
		return nil, err
	}
	n, err := unpackInt(args[1], "count")
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: negative repeat count %d", object.ErrInvalidValueType, n)
	}
	return object.Str(strings.Repeat(s, n)), nil
}

func fnStrToNum(_ *runtime.Runtime, _ *runtime.Context, args []object.Object) (object.Object, error) {
	s, err := unpackString(args[0], "value")
	if err != nil {
		return nil, err
	}
	return object.ParseLiteral(object.NUMBER_OBJ, strings.TrimSpace(s))
}
