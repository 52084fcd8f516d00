package functions

import (
	"fmt"

	"brisk/internal/object"
	"brisk/internal/runtime"
)

func sqlFns() []runtime.Embedded {
	return []runtime.Embedded{
		embedded("sql::open", 2, fnSqlOpen),
		embedded("sql::exec", runtime.Variadic, fnSqlExec),
		embedded("sql::query", runtime.Variadic, fnSqlQuery),
		embedded("sql::close", 1, fnSqlClose),
	}
}

func fnSqlOpen(rt *runtime.Runtime, _ *runtime.Context, args []object.Object) (object.Object, error) {
	driver, err := unpackString(args[0], "driver")
	if err != nil {
		return nil, err
	}
	dsn, err := unpackString(args[1], "dsn")
	if err != nil {
		return nil, err
	}
	handle, err := rt.SQL().Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	return object.Num(float64(handle)), nil
}

// statement unpacks handle, query and bind parameters of exec and query.
func statement(name string, args []object.Object) (int, string, []any, error) {
	if len(args) < 2 {
		return 0, "", nil, fmt.Errorf("%w: %s expects a handle and a query, got %d arguments",
			runtime.ErrInvalidFnArgumentsNumber, name, len(args))
	}
	handle, err := unpackInt(args[0], "handle")
	if err != nil {
		return 0, "", nil, err
	}
	query, err := unpackString(args[1], "query")
	if err != nil {
		return 0, "", nil, err
	}
	params := make([]any, 0, len(args)-2)
	for _, arg := range args[2:] {
		p, err := sqlParam(arg)
		if err != nil {
			return 0, "", nil, err
		}
		params = append(params, p)
	}
	return handle, query, params, nil
}

func sqlParam(arg object.Object) (any, error) {
	switch v := arg.(type) {
	case *object.Void:
		return nil, nil
	case *object.Number:
		if n, ok := object.AsInt(v); ok {
			return int64(n), nil
		}
		return v.Value, nil
	case *object.Boolean:
		return v.Value, nil
	case *object.String:
		return v.Value, nil
	case *object.Path:
		return v.Value, nil
	}
	return nil, fmt.Errorf("%w: %s cannot be bound as a query parameter", object.ErrInvalidValueType, arg.Type())
}

func fnSqlExec(rt *runtime.Runtime, _ *runtime.Context, args []object.Object) (object.Object, error) {
	handle, query, params, err := statement("sql::exec", args)
	if err != nil {
		return nil, err
	}
	n, err := rt.SQL().Exec(handle, query, params...)
	if err != nil {
		return nil, err
	}
	return object.Num(float64(n)), nil
}

// fnSqlQuery returns the rows as a vector of vectors.
func fnSqlQuery(rt *runtime.Runtime, _ *runtime.Context, args []object.Object) (object.Object, error) {
	handle, query, params, err := statement("sql::query", args)
	if err != nil {
		return nil, err
	}
	rows, err := rt.SQL().Query(handle, query, params...)
	if err != nil {
		return nil, err
	}
	out := make([]object.Object, len(rows))
	for i, row := range rows {
		out[i] = object.NewVec(row...)
	}
	return object.NewVec(out...), nil
}

func fnSqlClose(rt *runtime.Runtime, _ *runtime.Context, args []object.Object) (object.Object, error) {
	handle, err := unpackInt(args[0], "handle")
	if err != nil {
		return nil, err
	}
	if err := rt.SQL().Close(handle); err != nil {
		return nil, err
	}
	return object.VOID, nil
}
