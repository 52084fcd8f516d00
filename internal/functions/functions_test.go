package functions

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"brisk/internal/ast"
	"brisk/internal/object"
	"brisk/internal/reporter"
	"brisk/internal/runtime"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*runtime.Runtime, *runtime.Context) {
	t.Helper()
	rt, err := runtime.New(runtime.RtParameters{Cwd: t.TempDir()}, &ast.Anchor{},
		runtime.WithReporter(reporter.Silent{}), runtime.WithEmbedded(All()...))
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, rt.Destroy(ctx))
	})
	cx, err := rt.RootContext("test")
	require.NoError(t, err)
	require.NoError(t, cx.Scope().Enter(uuid.New()))
	return rt, cx
}

func call(t *testing.T, rt *runtime.Runtime, cx *runtime.Context, name string, args ...object.Object) (object.Object, error) {
	t.Helper()
	fn, err := rt.Registry().Fn(name)
	require.NoError(t, err)
	require.NotNil(t, fn, "function %s is not registered", name)
	if arity := fn.Arity(); arity != runtime.Variadic {
		require.Len(t, args, arity, "arguments of %s", name)
	}
	return fn.Embedded.Fn(rt, cx, args)
}

func TestAllNamesAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, fn := range All() {
		assert.False(t, seen[fn.Name], "duplicate %s", fn.Name)
		seen[fn.Name] = true
	}
}

func TestPureFunctions(t *testing.T) {
	rt, cx := setup(t)
	tests := []struct {
		name string
		args []object.Object
		want string
	}{
		{"str::len", []object.Object{object.Str("héllo")}, "5"},
		{"str::to_upper", []object.Object{object.Str("abc")}, "ABC"},
		{"str::to_lower", []object.Object{object.Str("ABC")}, "abc"},
		{"str::trim", []object.Object{object.Str("  x \n")}, "x"},
		{"str::is_empty", []object.Object{object.Str("")}, "true"},
		{"str::contains", []object.Object{object.Str("release"), object.Str("lea")}, "true"},
		{"str::starts_with", []object.Object{object.Str("release"), object.Str("re")}, "true"},
		{"str::ends_with", []object.Object{object.Str("release"), object.Str("re")}, "false"},
		{"str::split", []object.Object{object.Str("a,b,c"), object.Str(",")}, "[a, b, c]"},
		{"str::repeat", []object.Object{object.Str("ab"), object.Num(3)}, "ababab"},
		{"str::to_num", []object.Object{object.Str(" 42 ")}, "42"},
		{"vec::len", []object.Object{object.NewVec(object.Num(1), object.Num(2))}, "2"},
		{"vec::join", []object.Object{object.NewVec(object.Str("a"), object.Num(1)), object.Str("-")}, "a-1"},
		{"vec::push", []object.Object{object.NewVec(object.Num(1)), object.Num(2)}, "[1, 2]"},
		{"vec::contains", []object.Object{object.NewVec(object.Str("1"), object.Num(1)), object.Num(1)}, "true"},
		{"vec::contains", []object.Object{object.NewVec(object.Str("1")), object.Num(1)}, "false"},
		{"path::join", []object.Object{object.NewPath("/srv"), object.Str("app")}, "/srv/app"},
		{"path::file_name", []object.Object{object.NewPath("/srv/app/main.go")}, "main.go"},
		{"path::parent", []object.Object{object.NewPath("/srv/app/main.go")}, "/srv/app"},
		{"num::to_str", []object.Object{object.Num(2.5)}, "2.5"},
		{"hash::sha256", []object.Object{object.Str("abc")}, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{"hash::blake2b", []object.Object{object.Str("")}, "0e5751c026e543b2e8ab2eb06099daa1d1e5df47778f7787faab45cdf12fe3a8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := call(t, rt, cx, tt.name, tt.args...)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got.Inspect()); diff != "" {
				t.Errorf("%s mismatch (-want +got):\n%s", tt.name, diff)
			}
		})
	}
}

func TestVecPushDoesNotMutate(t *testing.T) {
	rt, cx := setup(t)
	orig := object.NewVec(object.Num(1))
	_, err := call(t, rt, cx, "vec::push", orig, object.Num(2))
	require.NoError(t, err)
	assert.Len(t, orig.Elements, 1)
}

func TestResultCombinators(t *testing.T) {
	rt, cx := setup(t)
	mixed := object.NewVec(object.Success(), object.Failed(2))
	allOk := object.NewVec(object.Success(), object.Success())

	tests := []struct {
		name string
		arg  object.Object
		want object.Object
	}{
		{"result::success", object.Success(), object.TRUE},
		{"result::success", mixed, object.FALSE},
		{"result::success", allOk, object.TRUE},
		{"result::is_fail", object.Failed(1), object.TRUE},
		{"result::is_fail", mixed, object.TRUE},
		{"result::is_fail", allOk, object.FALSE},
		{"result::executed", object.Failed(1), object.TRUE},
		{"result::executed", object.RunError("no such shell"), object.FALSE},
	}
	for _, tt := range tests {
		got, err := call(t, rt, cx, tt.name, tt.arg)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s(%s)", tt.name, tt.arg.Inspect())
	}

	got, err := call(t, rt, cx, "result::stop_on_fail", allOk)
	require.NoError(t, err)
	assert.Same(t, allOk, got)
	_, err = call(t, rt, cx, "result::stop_on_fail", mixed)
	assert.ErrorIs(t, err, runtime.ErrExecuteFailed)
	_, err = call(t, rt, cx, "result::success", object.Num(0))
	assert.ErrorIs(t, err, object.ErrInvalidValueType)
}

func TestFsRelativeToCwd(t *testing.T) {
	rt, cx := setup(t)
	cwd, err := cx.Scope().Cwd()
	require.NoError(t, err)

	_, err = call(t, rt, cx, "fs::write", object.NewPath("out/report.txt"), object.Str("done"))
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(cwd, "out", "report.txt"))
	require.NoError(t, err)
	assert.Equal(t, "done", string(data))

	got, err := call(t, rt, cx, "fs::read_to_string", object.Str("out/report.txt"))
	require.NoError(t, err)
	assert.Equal(t, "done", got.Inspect())

	got, err = call(t, rt, cx, "path::exists", object.NewPath("out"))
	require.NoError(t, err)
	assert.Equal(t, object.TRUE, got)

	_, err = call(t, rt, cx, "fs::remove", object.NewPath("out"))
	require.NoError(t, err)
	got, err = call(t, rt, cx, "fs::exists", object.NewPath("out"))
	require.NoError(t, err)
	assert.Equal(t, object.FALSE, got)

	_, err = call(t, rt, cx, "fs::read_to_string", object.NewPath("missing"))
	assert.ErrorIs(t, err, runtime.ErrIO)
}

func TestSetCwd(t *testing.T) {
	rt, cx := setup(t)
	_, err := call(t, rt, cx, "fs::create_dir_all", object.NewPath("a/b"))
	require.NoError(t, err)
	_, err = call(t, rt, cx, "cx::set_cwd", object.NewPath("a/b"))
	require.NoError(t, err)

	got, err := call(t, rt, cx, "cx::cwd")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(rt.Params.Cwd, "a", "b"), got.Inspect())

	_, err = call(t, rt, cx, "cx::set_cwd", object.NewPath("nowhere"))
	assert.ErrorIs(t, err, runtime.ErrIO)
}

func TestEnv(t *testing.T) {
	rt, cx := setup(t)
	const key = "BRISK_FUNCTIONS_TEST_VAR"
	t.Cleanup(func() { os.Unsetenv(key) })

	got, err := call(t, rt, cx, "env::var", object.Str(key))
	require.NoError(t, err)
	assert.Equal(t, object.VOID, got)

	_, err = call(t, rt, cx, "env::set_var", object.Str(key), object.Num(7))
	require.NoError(t, err)
	got, err = call(t, rt, cx, "env::var", object.Str(key))
	require.NoError(t, err)
	assert.Equal(t, "7", got.Inspect())

	_, err = call(t, rt, cx, "env::remove_var", object.Str(key))
	require.NoError(t, err)
	_, ok := os.LookupEnv(key)
	assert.False(t, ok)
}

func TestSignals(t *testing.T) {
	rt, cx := setup(t)
	wait, err := rt.Registry().Fn("sig::wait")
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() {
		_, err := wait.Embedded.Fn(rt, cx, []object.Object{object.Str("ready")})
		done <- err
	}()
	require.Eventually(t, func() bool {
		n, err := rt.Signals().Waiters("ready")
		return err == nil && n == 1
	}, time.Second, 5*time.Millisecond)

	_, err = call(t, rt, cx, "sig::emit", object.Str("ready"))
	require.NoError(t, err)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("waiter was not released")
	}

	_, err = call(t, rt, cx, "sig::emit", object.Str("ready"))
	assert.ErrorIs(t, err, runtime.ErrMultipleSignalEmit)
}

func TestCancellationInterruptsBlockingCalls(t *testing.T) {
	rt, cx := setup(t)
	require.NoError(t, rt.Jobs().Cancel(cx.Job.Owner))

	_, err := call(t, rt, cx, "time::sleep", object.Num(60_000))
	assert.ErrorIs(t, err, runtime.ErrCancelled)
	_, err = call(t, rt, cx, "sig::wait", object.Str("never"))
	assert.ErrorIs(t, err, runtime.ErrCancelled)
}

func TestProcess(t *testing.T) {
	rt, cx := setup(t)
	_, err := call(t, rt, cx, "process::exit", object.Num(4))
	var exit *runtime.ExitError
	require.True(t, errors.As(err, &exit))
	assert.Equal(t, 4, exit.Code)

	_, err = call(t, rt, cx, "process::abort")
	assert.ErrorIs(t, err, runtime.ErrCancelled)
	assert.Error(t, cx.Check())
}

func TestLogsGoToJournal(t *testing.T) {
	rt, cx := setup(t)
	_, err := call(t, rt, cx, "logs::warn", object.Str("disk almost full"))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		recs, err := cx.Journal().Tail(1)
		return err == nil && len(recs) == 1 &&
			recs[0].Message == "disk almost full" && recs[0].Level == reporter.LevelWarn
	}, time.Second, 5*time.Millisecond)
}

func TestSql(t *testing.T) {
	rt, cx := setup(t)
	h, err := call(t, rt, cx, "sql::open", object.Str("sqlite"), object.Str(":memory:"))
	require.NoError(t, err)

	_, err = call(t, rt, cx, "sql::exec", h, object.Str("CREATE TABLE kv (k TEXT, v INTEGER)"))
	require.NoError(t, err)
	n, err := call(t, rt, cx, "sql::exec", h, object.Str("INSERT INTO kv VALUES (?, ?)"), object.Str("builds"), object.Num(3))
	require.NoError(t, err)
	assert.Equal(t, "1", n.Inspect())

	rows, err := call(t, rt, cx, "sql::query", h, object.Str("SELECT k, v FROM kv WHERE v > ?"), object.Num(1))
	require.NoError(t, err)
	assert.Equal(t, "[[builds, 3]]", rows.Inspect())

	_, err = call(t, rt, cx, "sql::query", h)
	assert.ErrorIs(t, err, runtime.ErrInvalidFnArgumentsNumber)
	_, err = call(t, rt, cx, "sql::exec", h, object.Str("SELECT ?"), object.NewVec())
	assert.ErrorIs(t, err, object.ErrInvalidValueType)

	_, err = call(t, rt, cx, "sql::close", h)
	require.NoError(t, err)
}
