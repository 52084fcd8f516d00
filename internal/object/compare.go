package object

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Equal compares two values of the same variant. Different variants are an
// error, never false.
func Equal(a, b Object) (bool, error) {
	if a.Type() != b.Type() {
		return false, fmt.Errorf("%w: %s and %s", ErrDifferentTypeOfValues, a.Type(), b.Type())
	}
	switch av := a.(type) {
	case *Void, *Skipped:
		return true, nil
	case *Number:
		return av.Value == b.(*Number).Value, nil
	case *Boolean:
		return av.Value == b.(*Boolean).Value, nil
	case *String:
		return av.Value == b.(*String).Value, nil
	case *Path:
		return filepath.Clean(av.Value) == filepath.Clean(b.(*Path).Value), nil
	case *Range:
		bv := b.(*Range)
		return av.From == bv.From && av.To == bv.To, nil
	case *Closure:
		return av.Uuid == b.(*Closure).Uuid, nil
	case *ExecuteResult:
		return *av == *b.(*ExecuteResult), nil
	case *BinaryOperator:
		return av.Op == b.(*BinaryOperator).Op, nil
	case *ComparisonOperator:
		return av.Op == b.(*ComparisonOperator).Op, nil
	case *Vec:
		bv := b.(*Vec)
		if len(av.Elements) != len(bv.Elements) {
			return false, nil
		}
		for i := range av.Elements {
			eq, err := Equal(av.Elements[i], bv.Elements[i])
			if err != nil || !eq {
				return false, err
			}
		}
		return true, nil
	}
	return false, fmt.Errorf("%w: %s", ErrNotComparableValue, a.Type())
}

// Compare applies a comparison operator. Ordering is defined for numbers,
// strings and paths only.
func Compare(a Object, op CmpOp, b Object) (bool, error) {
	switch op {
	case OpEq:
		return Equal(a, b)
	case OpNeq:
		eq, err := Equal(a, b)
		return !eq, err
	}
	if a.Type() != b.Type() {
		return false, fmt.Errorf("%w: %s and %s", ErrDifferentTypeOfValues, a.Type(), b.Type())
	}
	var c int
	switch av := a.(type) {
	case *Number:
		bv := b.(*Number).Value
		switch {
		case av.Value < bv:
			c = -1
		case av.Value > bv:
			c = 1
		}
	case *String:
		c = strings.Compare(av.Value, b.(*String).Value)
	case *Path:
		c = strings.Compare(filepath.Clean(av.Value), filepath.Clean(b.(*Path).Value))
	default:
		return false, fmt.Errorf("%w: %s with %s", ErrNotComparableValue, a.Type(), op)
	}
	switch op {
	case OpLt:
		return c < 0, nil
	case OpGt:
		return c > 0, nil
	case OpLte:
		return c <= 0, nil
	case OpGte:
		return c >= 0, nil
	}
	return false, fmt.Errorf("%w: unknown operator %q", ErrInvalidValueType, op)
}

// Arith folds one arithmetic step. Strings concatenate with +, paths join with +.
func Arith(a Object, op BinOp, b Object) (Object, error) {
	switch av := a.(type) {
	case *Number:
		bv, ok := b.(*Number)
		if !ok {
			return nil, fmt.Errorf("%w: %s %s %s", ErrDifferentTypeOfValues, a.Type(), op, b.Type())
		}
		switch op {
		case OpAdd:
			return Num(av.Value + bv.Value), nil
		case OpSub:
			return Num(av.Value - bv.Value), nil
		case OpMul:
			return Num(av.Value * bv.Value), nil
		case OpDiv:
			if bv.Value == 0 {
				return nil, ErrDivisionByZero
			}
			return Num(av.Value / bv.Value), nil
		}
	case *String:
		bv, ok := b.(*String)
		if !ok {
			return nil, fmt.Errorf("%w: %s %s %s", ErrDifferentTypeOfValues, a.Type(), op, b.Type())
		}
		if op == OpAdd {
			return Str(av.Value + bv.Value), nil
		}
	case *Path:
		bv, ok := AsPath(b)
		if !ok {
			return nil, fmt.Errorf("%w: %s %s %s", ErrDifferentTypeOfValues, a.Type(), op, b.Type())
		}
		if op == OpAdd {
			return NewPath(filepath.Join(av.Value, bv)), nil
		}
	}
	return nil, fmt.Errorf("%w: %s %s %s", ErrNotApplicableOperation, a.Type(), op, b.Type())
}
