package interpreter

import (
	"fmt"
	"path/filepath"
	"strings"

	"brisk/internal/ast"
	"brisk/internal/object"
	"brisk/internal/runtime"
)

// evalBinarySeq folds operand, operator, operand, ... strictly left to right.
// Precedence only comes from BinaryExpGroup nodes.
func (in *Interpreter) evalBinarySeq(node *ast.BinaryExpSeq, cx *runtime.Context) (object.Object, error) {
	if len(node.Nodes)%2 == 0 {
		return nil, fmt.Errorf("%w: arithmetic sequence of %d nodes", object.ErrInvalidValueType, len(node.Nodes))
	}
	acc, err := in.Eval(node.Nodes[0], cx)
	if err != nil {
		return nil, err
	}
	for i := 1; i < len(node.Nodes); i += 2 {
		opVal, err := in.Eval(node.Nodes[i], cx)
		if err != nil {
			return nil, err
		}
		op, ok := opVal.(*object.BinaryOperator)
		if !ok {
			return nil, runtime.Link(object.Expect(opVal, object.BINARY_OPERATOR_OBJ), node.Nodes[i])
		}
		right, err := in.Eval(node.Nodes[i+1], cx)
		if err != nil {
			return nil, err
		}
		if acc, err = object.Arith(acc, op.Op, right); err != nil {
			return nil, runtime.Link(err, node.Nodes[i])
		}
	}
	return acc, nil
}

// evalComparisonSeq folds && and || left to right, skipping the right operand
// when the left side already decides the result.
func (in *Interpreter) evalComparisonSeq(node *ast.ComparisonSeq, cx *runtime.Context) (object.Object, error) {
	if len(node.Nodes)%2 == 0 {
		return nil, fmt.Errorf("%w: logical sequence of %d nodes", object.ErrInvalidValueType, len(node.Nodes))
	}
	acc, err := in.evalBool(node.Nodes[0], cx)
	if err != nil {
		return nil, err
	}
	for i := 1; i < len(node.Nodes); i += 2 {
		op, ok := node.Nodes[i].(*ast.LogicalOp)
		if !ok {
			return nil, runtime.Link(fmt.Errorf("%w: expected && or ||, got %T", object.ErrInvalidValueType, node.Nodes[i]), node.Nodes[i])
		}
		switch op.Op {
		case "||":
			if acc {
				continue
			}
		case "&&":
			if !acc {
				continue
			}
		default:
			return nil, runtime.Link(fmt.Errorf("%w: unknown logical operator %q", object.ErrInvalidValueType, op.Op), op)
		}
		if acc, err = in.evalBool(node.Nodes[i+1], cx); err != nil {
			return nil, err
		}
	}
	return object.NativeBool(acc), nil
}

func (in *Interpreter) evalComparison(node *ast.Comparison, cx *runtime.Context) (object.Object, error) {
	left, err := in.Eval(node.Left, cx)
	if err != nil {
		return nil, err
	}
	opVal, err := in.Eval(node.Op, cx)
	if err != nil {
		return nil, err
	}
	op, ok := opVal.(*object.ComparisonOperator)
	if !ok {
		return nil, runtime.Link(object.Expect(opVal, object.COMPARISON_OPERATOR_OBJ), node.Op)
	}
	right, err := in.Eval(node.Right, cx)
	if err != nil {
		return nil, err
	}
	res, err := object.Compare(left, op.Op, right)
	if err != nil {
		return nil, err
	}
	return object.NativeBool(res), nil
}

func (in *Interpreter) evalCompoundAssignment(node *ast.CompoundAssignment, cx *runtime.Context) (object.Object, error) {
	left, ok, err := cx.Scope().Lookup(node.Name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", runtime.ErrVariableNotFound, node.Name)
	}
	right, err := in.Eval(node.Value, cx)
	if err != nil {
		return nil, err
	}
	updated, err := compound(left, node.Op, right)
	if err != nil {
		return nil, err
	}
	if err := cx.Scope().Update(node.Name, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

func compound(left object.Object, operator string, right object.Object) (object.Object, error) {
	op, ok := object.ParseBinOp(strings.TrimSuffix(operator, "="))
	if !ok || !strings.HasSuffix(operator, "=") {
		return nil, fmt.Errorf("%w: unknown assignment operator %q", object.ErrInvalidValueType, operator)
	}
	switch l := left.(type) {
	case *object.Number:
		if _, ok := right.(*object.Number); ok {
			return object.Arith(l, op, right)
		}
	case *object.String:
		if op != object.OpAdd {
			break
		}
		s, ok := object.AsString(right)
		if !ok {
			return nil, fmt.Errorf("%w: %s to string", object.ErrCannotBeConverted, right.Type())
		}
		return object.Str(l.Value + s), nil
	case *object.Path:
		if op != object.OpAdd {
			break
		}
		if p, ok := object.AsPath(right); ok {
			return object.NewPath(filepath.Join(l.Value, p)), nil
		}
	}
	return nil, fmt.Errorf("%w: %s %s %s", object.ErrInvalidValueType, left.Type(), operator, right.Type())
}

// access indexes a vector, a string (by character) or a range.
func (in *Interpreter) access(node *ast.Accessor, parent object.Object, cx *runtime.Context) (object.Object, error) {
	idxVal, err := in.Eval(node.Index, cx)
	if err != nil {
		return nil, err
	}
	i, ok := object.AsInt(idxVal)
	if !ok {
		return nil, runtime.Link(fmt.Errorf("%w: index must be a whole number, got %s", object.ErrInvalidValueType, idxVal.Inspect()), node.Index)
	}
	var size int
	switch p := parent.(type) {
	case *object.Vec:
		if size = len(p.Elements); i >= 0 && i < size {
			return p.Elements[i], nil
		}
	case *object.String:
		runes := []rune(p.Value)
		if size = len(runes); i >= 0 && i < size {
			return object.Str(string(runes[i])), nil
		}
	case *object.Range:
		if size = p.Len(); i >= 0 && i < size {
			return object.Num(float64(p.At(i))), nil
		}
	default:
		return nil, fmt.Errorf("%w: %s cannot be indexed", object.ErrInvalidValueType, parent.Type())
	}
	return nil, fmt.Errorf("%w: index %d, length %d", object.ErrOutOfBounds, i, size)
}

// concat joins the string forms of parts.
func (in *Interpreter) concat(parts []ast.Node, cx *runtime.Context) (string, error) {
	var b strings.Builder
	for _, part := range parts {
		val, err := in.Eval(part, cx)
		if err != nil {
			return "", err
		}
		s, ok := object.AsString(val)
		if !ok {
			return "", runtime.Link(fmt.Errorf("%w: %s to string", object.ErrCannotBeConverted, val.Type()), part)
		}
		b.WriteString(s)
	}
	return b.String(), nil
}
