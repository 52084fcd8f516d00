package interpreter

import (
	"fmt"

	"brisk/internal/ast"
	"brisk/internal/object"
	"brisk/internal/runtime"
)

// Interpreter walks a decoded tree against a Runtime's stores. It holds no
// per-branch state, so one Interpreter serves every concurrent branch.
type Interpreter struct {
	rt *runtime.Runtime
}

func New(rt *runtime.Runtime) *Interpreter {
	return &Interpreter{rt: rt}
}

// Interpret evaluates node within the branch cx.
func Interpret(node ast.Node, rt *runtime.Runtime, cx *runtime.Context) (object.Object, error) {
	return New(rt).Eval(node, cx)
}

// Eval evaluates node, then applies its postfix chain. Errors come back
// linked to the innermost node that produced them.
func (in *Interpreter) Eval(node ast.Node, cx *runtime.Context) (object.Object, error) {
	val, err := in.eval(node, cx)
	if err != nil {
		return nil, runtime.Link(err, node)
	}
	if ppm := node.Md().Ppm; len(ppm) > 0 {
		if val, err = in.chain(val, ppm, cx); err != nil {
			return nil, runtime.Link(err, node)
		}
	}
	switch n := node.(type) {
	case *ast.Variable:
		if n.Negated {
			val, err = negate(val)
		}
	case *ast.FunctionCall:
		if n.Negated {
			val, err = negate(val)
		}
	}
	if err != nil {
		return nil, runtime.Link(err, node)
	}
	return val, nil
}

func (in *Interpreter) eval(node ast.Node, cx *runtime.Context) (object.Object, error) {
	switch node := node.(type) {

	// Statements
	case *ast.Block:
		return in.evalBlock(node, cx)

	case *ast.If:
		return in.evalIf(node, cx)

	case *ast.For:
		return in.evalFor(node, cx)

	case *ast.While:
		return in.evalWhile(node, cx)

	case *ast.Loop:
		return in.evalLoop(node, cx)

	case *ast.Return:
		return in.evalReturn(node, cx)

	case *ast.Break:
		return object.VOID, cx.Loops().Break(node.Target)

	case *ast.Assignation:
		return in.evalAssignation(node, cx)

	case *ast.Join:
		return in.evalJoin(node, cx)

	case *ast.OneOf:
		return in.evalOneOf(node, cx)

	case *ast.Optional:
		return in.evalOptional(node, cx)

	// Expressions
	case *ast.Variable:
		val, ok, err := cx.Scope().Lookup(node.Name)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s", runtime.ErrVariableNotFound, node.Name)
		}
		return val, nil

	case *ast.BinaryExpSeq:
		return in.evalBinarySeq(node, cx)

	case *ast.BinaryExpGroup:
		return in.Eval(node.Node, cx)

	case *ast.BinaryOp:
		op, ok := object.ParseBinOp(node.Op)
		if !ok {
			return nil, fmt.Errorf("%w: unknown arithmetic operator %q", object.ErrInvalidValueType, node.Op)
		}
		return &object.BinaryOperator{Op: op}, nil

	case *ast.ComparisonSeq:
		return in.evalComparisonSeq(node, cx)

	case *ast.ComparisonGroup:
		val, err := in.evalBool(node.Node, cx)
		if err != nil {
			return nil, err
		}
		return object.NativeBool(val != node.Negated), nil

	case *ast.Comparison:
		return in.evalComparison(node, cx)

	case *ast.ComparisonOp:
		op, ok := object.ParseCmpOp(node.Op)
		if !ok {
			return nil, fmt.Errorf("%w: unknown comparison operator %q", object.ErrInvalidValueType, node.Op)
		}
		return &object.ComparisonOperator{Op: op}, nil

	case *ast.CompoundAssignment:
		return in.evalCompoundAssignment(node, cx)

	case *ast.FunctionCall:
		return in.call(node, nil, cx)

	case *ast.TaskCall:
		return in.evalTaskCall(node, cx)

	case *ast.Command:
		return in.evalCommand(node, cx)

	case *ast.Accessor:
		return nil, fmt.Errorf("%w: accessor %s has no value to index", runtime.ErrNoParentValueToCallFn, node)

	case *ast.Range:
		return &object.Range{From: node.From, To: node.To}, nil

	// Values
	case *ast.Number:
		return object.Num(node.Value), nil

	case *ast.Boolean:
		return object.NativeBool(node.Value), nil

	case *ast.PrimitiveString:
		return object.Str(node.Value), nil

	case *ast.InterpolatedString:
		text, err := in.concat(node.Parts, cx)
		if err != nil {
			return nil, err
		}
		return object.Str(text), nil

	case *ast.Array:
		items := make([]object.Object, 0, len(node.Items))
		for _, item := range node.Items {
			val, err := in.Eval(item, cx)
			if err != nil {
				return nil, err
			}
			items = append(items, val)
		}
		return object.NewVec(items...), nil

	// Declarations
	case *ast.VariableDeclaration:
		return in.evalVariableDeclaration(node, cx)

	case *ast.ClosureDeclaration:
		if err := cx.Registry().RegisterClosure(node); err != nil {
			return nil, err
		}
		return &object.Closure{Uuid: node.Uuid}, nil

	case *ast.FunctionDeclaration:
		// registered when the runtime loads the anchor
		return object.VOID, nil
	}

	return nil, fmt.Errorf("%w: cannot interpret %T", object.ErrInvalidValueType, node)
}

// chain applies the postfix nodes to val, passing each step's value through
// the branch's parent value slot.
func (in *Interpreter) chain(val object.Object, ppm []ast.Node, cx *runtime.Context) (object.Object, error) {
	scope := cx.Scope()
	for _, node := range ppm {
		if err := scope.SetParentValue(val); err != nil {
			return nil, err
		}
		next, err := in.postfix(node, cx)
		if err != nil {
			_ = scope.DropParentValue()
			return nil, runtime.Link(err, node)
		}
		val = next
	}
	return val, scope.DropParentValue()
}

func (in *Interpreter) postfix(node ast.Node, cx *runtime.Context) (object.Object, error) {
	parent, err := cx.Scope().WithdrawParentValue()
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, fmt.Errorf("%w: %s", runtime.ErrNoParentValueToCallFn, node)
	}
	switch node := node.(type) {
	case *ast.FunctionCall:
		val, err := in.call(node, parent, cx)
		if err != nil || !node.Negated {
			return val, err
		}
		return negate(val)
	case *ast.Accessor:
		return in.access(node, parent, cx)
	}
	return nil, fmt.Errorf("%w: %T cannot follow a value", object.ErrInvalidValueType, node)
}

func (in *Interpreter) evalBool(node ast.Node, cx *runtime.Context) (bool, error) {
	val, err := in.Eval(node, cx)
	if err != nil {
		return false, err
	}
	b, ok := object.AsBool(val)
	if !ok {
		return false, runtime.Link(object.Expect(val, object.BOOLEAN_OBJ), node)
	}
	return b, nil
}

func negate(val object.Object) (object.Object, error) {
	b, ok := object.AsBool(val)
	if !ok {
		return nil, object.Expect(val, object.BOOLEAN_OBJ)
	}
	return object.NativeBool(!b), nil
}
