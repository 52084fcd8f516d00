package functions

import (
	"fmt"

	"brisk/internal/object"
	"brisk/internal/runtime"
)

func resultFns() []runtime.Embedded {
	return []runtime.Embedded{
		embedded("result::success", 1, fnResultSuccess),
		embedded("result::is_fail", 1, fnResultIsFail),
		embedded("result::executed", 1, fnResultExecuted),
		embedded("result::stop_on_fail", 1, fnResultStopOnFail),
	}
}

// results flattens a result or a vector of results, as produced by join.
func results(arg object.Object) ([]*object.ExecuteResult, error) {
	switch v := arg.(type) {
	case *object.ExecuteResult:
		return []*object.ExecuteResult{v}, nil
	case *object.Vec:
		out := make([]*object.ExecuteResult, 0, len(v.Elements))
		for _, el := range v.Elements {
			nested, err := results(el)
			if err != nil {
				return nil, err
			}
			out = append(out, nested...)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: expected %s, actual %s", object.ErrInvalidValueType, object.EXECUTE_RESULT_OBJ, arg.Type())
}

func every(arg object.Object, pred func(*object.ExecuteResult) bool) (bool, error) {
	rs, err := results(arg)
	if err != nil {
		return false, err
	}
	for _, r := range rs {
		if !pred(r) {
			return false, nil
		}
	}
	return true, nil
}

func fnResultSuccess(_ *runtime.Runtime, _ *runtime.Context, args []object.Object) (object.Object, error) {
	ok, err := every(args[0], (*object.ExecuteResult).IsSuccess)
	if err != nil {
		return nil, err
	}
	return object.NativeBool(ok), nil
}

func fnResultIsFail(_ *runtime.Runtime, _ *runtime.Context, args []object.Object) (object.Object, error) {
	ok, err := every(args[0], (*object.ExecuteResult).IsSuccess)
	if err != nil {
		return nil, err
	}
	return object.NativeBool(!ok), nil
}

func fnResultExecuted(_ *runtime.Runtime, _ *runtime.Context, args []object.Object) (object.Object, error) {
	ok, err := every(args[0], (*object.ExecuteResult).Executed)
	if err != nil {
		return nil, err
	}
	return object.NativeBool(ok), nil
}

// fnResultStopOnFail passes a successful result through and turns a failed
// one into an error.
func fnResultStopOnFail(_ *runtime.Runtime, _ *runtime.Context, args []object.Object) (object.Object, error) {
	rs, err := results(args[0])
	if err != nil {
		return nil, err
	}
	for _, r := range rs {
		if !r.IsSuccess() {
			return nil, fmt.Errorf("%w: %s", runtime.ErrExecuteFailed, r.Inspect())
		}
	}
	return args[0], nil
}
