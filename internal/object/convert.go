package object

import (
	"fmt"
	"strconv"
	"strings"
)

// AsString renders primitive values, vectors and paths as text.
// Operators, closures and void have no string form.
func AsString(o Object) (string, bool) {
	switch v := o.(type) {
	case *Number, *Boolean, *String, *Path, *Range, *ExecuteResult, *Skipped:
		return v.Inspect(), true
	case *Vec:
		parts := make([]string, 0, len(v.Elements))
		for _, el := range v.Elements {
			s, ok := AsString(el)
			if !ok {
				return "", false
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, " "), true
	}
	return "", false
}

func AsNum(o Object) (float64, bool) {
	n, ok := o.(*Number)
	if !ok {
		return 0, false
	}
	return n.Value, true
}

func AsInt(o Object) (int, bool) {
	n, ok := o.(*Number)
	if !ok || n.Value != float64(int(n.Value)) {
		return 0, false
	}
	return int(n.Value), true
}

func AsBool(o Object) (bool, bool) {
	b, ok := o.(*Boolean)
	if !ok {
		return false, false
	}
	return b.Value, true
}

// AsPath accepts both paths and strings.
func AsPath(o Object) (string, bool) {
	switch v := o.(type) {
	case *Path:
		return v.Value, true
	case *String:
		return v.Value, true
	}
	return "", false
}

func AsVec(o Object) ([]Object, bool) {
	v, ok := o.(*Vec)
	if !ok {
		return nil, false
	}
	return v.Elements, true
}

func AsExecuteResult(o Object) (*ExecuteResult, bool) {
	r, ok := o.(*ExecuteResult)
	return r, ok
}

// Expect returns ErrInvalidValueType when o is not of type want.
func Expect(o Object, want ObjectType) error {
	if o == nil || o.Type() != want {
		got := ObjectType("nil")
		if o != nil {
			got = o.Type()
		}
		return fmt.Errorf("%w: expected %s, actual %s", ErrInvalidValueType, want, got)
	}
	return nil
}

// ParseLiteral reads back the AsString form of a primitive value.
func ParseLiteral(kind ObjectType, text string) (Object, error) {
	switch kind {
	case NUMBER_OBJ:
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a number", ErrInvalidLiteral, text)
		}
		return Num(v), nil
	case BOOLEAN_OBJ:
		v, err := strconv.ParseBool(text)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a boolean", ErrInvalidLiteral, text)
		}
		return NativeBool(v), nil
	case STRING_OBJ:
		return Str(text), nil
	case PATH_OBJ:
		return NewPath(text), nil
	}
	return nil, fmt.Errorf("%w: no literal form for %s", ErrInvalidLiteral, kind)
}

// Clone copies vectors deeply; every other value is immutable and shared.
func Clone(o Object) Object {
	v, ok := o.(*Vec)
	if !ok {
		return o
	}
	els := make([]Object, len(v.Elements))
	for i, el := range v.Elements {
		els[i] = Clone(el)
	}
	return &Vec{Elements: els}
}
