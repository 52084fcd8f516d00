package interpreter

import (
	"context"
	"testing"
	"time"

	"brisk/internal/ast"
	"brisk/internal/functions"
	"brisk/internal/object"
	"brisk/internal/reporter"
	"brisk/internal/runtime"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// Tree builders. Every node gets a fresh uuid.

func meta() ast.Meta { return ast.Meta{Uuid: uuid.New()} }

func num(v float64) *ast.Number        { return &ast.Number{Meta: meta(), Value: v} }
func boolean(v bool) *ast.Boolean      { return &ast.Boolean{Meta: meta(), Value: v} }
func str(s string) *ast.PrimitiveString { return &ast.PrimitiveString{Meta: meta(), Value: s} }
func variable(name string) *ast.Variable {
	return &ast.Variable{Meta: meta(), Name: name}
}
func array(items ...ast.Node) *ast.Array { return &ast.Array{Meta: meta(), Items: items} }
func block(nodes ...ast.Node) *ast.Block { return &ast.Block{Meta: meta(), Nodes: nodes} }
func op(s string) *ast.BinaryOp          { return &ast.BinaryOp{Meta: meta(), Op: s} }
func seq(nodes ...ast.Node) *ast.BinaryExpSeq {
	return &ast.BinaryExpSeq{Meta: meta(), Nodes: nodes}
}
func group(n ast.Node) *ast.BinaryExpGroup { return &ast.BinaryExpGroup{Meta: meta(), Node: n} }
func compare(l ast.Node, o string, r ast.Node) *ast.Comparison {
	return &ast.Comparison{Meta: meta(), Left: l, Op: &ast.ComparisonOp{Meta: meta(), Op: o}, Right: r}
}
func let(name string, v ast.Node) *ast.VariableDeclaration {
	return &ast.VariableDeclaration{Meta: meta(), Name: name, Value: v}
}
func addTo(name string, v ast.Node) *ast.CompoundAssignment {
	return &ast.CompoundAssignment{Meta: meta(), Name: name, Op: "+=", Value: v}
}
func fnCall(name string, args ...ast.Node) *ast.FunctionCall {
	return &ast.FunctionCall{Meta: meta(), Name: name, Args: args}
}
func taskCall(task string, args ...ast.Node) *ast.TaskCall {
	return &ast.TaskCall{Meta: meta(), Task: task, Args: args}
}
func ret(v ast.Node) *ast.Return { return &ast.Return{Meta: meta(), Value: v} }
func brk() *ast.Break            { return &ast.Break{Meta: meta()} }
func when(cond ast.Node, body ...ast.Node) *ast.If {
	return &ast.If{Meta: meta(), Cases: []ast.IfCase{{Cond: cond, Block: block(body...)}}}
}
func command(parts ...ast.Node) *ast.Command { return &ast.Command{Meta: meta(), Parts: parts} }
func closure(args []string, body ...ast.Node) *ast.ClosureDeclaration {
	return &ast.ClosureDeclaration{Meta: meta(), Args: params(args...), Block: block(body...)}
}

func params(names ...string) []*ast.ArgumentDeclaration {
	out := make([]*ast.ArgumentDeclaration, len(names))
	for i, name := range names {
		out[i] = &ast.ArgumentDeclaration{Meta: meta(), Name: name}
	}
	return out
}

func chained[T ast.Node](n T, ppm ...ast.Node) T {
	n.Md().Ppm = ppm
	return n
}

func task(name string, body ...ast.Node) *ast.Task {
	return &ast.Task{Meta: meta(), Name: name, Public: true, Block: block(body...)}
}

func fn(name string, args []string, body ...ast.Node) *ast.FunctionDeclaration {
	return &ast.FunctionDeclaration{Meta: meta(), Name: name, Args: params(args...), Block: block(body...)}
}

func script(tasks ...*ast.Task) *ast.Anchor {
	return &ast.Anchor{
		Meta:       meta(),
		Types:      map[uuid.UUID]ast.Ty{},
		Components: []*ast.Component{{Meta: meta(), Name: "app", Tasks: tasks}},
	}
}

// Harness

func newRuntime(t *testing.T, anchor *ast.Anchor, params runtime.RtParameters) *runtime.Runtime {
	t.Helper()
	if params.Cwd == "" {
		params.Cwd = t.TempDir()
	}
	rt, err := runtime.New(params, anchor,
		runtime.WithReporter(reporter.Silent{}), runtime.WithEmbedded(functions.All()...))
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, rt.Destroy(ctx))
	})
	return rt
}

// eval runs body as the only task of a one-component script.
func eval(t *testing.T, body ...ast.Node) (object.Object, error) {
	t.Helper()
	return Run(newRuntime(t, script(task("main", body...)), runtime.RtParameters{}))
}
