package interpreter

import (
	"brisk/internal/ast"
	"brisk/internal/object"
	"brisk/internal/runtime"
)

// evalBlock runs the block's statements in a scope level of its own. The
// block's value is that of the last statement that ran.
func (in *Interpreter) evalBlock(block *ast.Block, cx *runtime.Context) (object.Object, error) {
	scope := cx.Scope()
	if err := scope.Enter(block.Uuid); err != nil {
		return nil, err
	}
	val, err := in.statements(block.Nodes, cx)
	if leaveErr := scope.Leave(); err == nil {
		err = leaveErr
	}
	return val, err
}

func (in *Interpreter) statements(nodes []ast.Node, cx *runtime.Context) (object.Object, error) {
	var last object.Object = object.VOID
	for _, node := range nodes {
		if err := cx.Check(); err != nil {
			return nil, runtime.Link(err, node)
		}
		stopped, err := cx.IsStopped()
		if err != nil {
			return nil, err
		}
		if stopped {
			break
		}
		if last, err = in.Eval(node, cx); err != nil {
			return nil, err
		}
	}
	return last, nil
}

func (in *Interpreter) evalIf(node *ast.If, cx *runtime.Context) (object.Object, error) {
	for _, c := range node.Cases {
		if c.Cond != nil {
			ok, err := in.evalBool(c.Cond, cx)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		return in.evalBlock(c.Block, cx)
	}
	return object.VOID, nil
}

func (in *Interpreter) evalOptional(node *ast.Optional, cx *runtime.Context) (object.Object, error) {
	ok, err := in.evalBool(node.Cond, cx)
	if err != nil || !ok {
		return object.VOID, err
	}
	return in.Eval(node.Action, cx)
}

func (in *Interpreter) evalReturn(node *ast.Return, cx *runtime.Context) (object.Object, error) {
	var val object.Object = object.VOID
	if node.Value != nil {
		var err error
		if val, err = in.Eval(node.Value, cx); err != nil {
			return nil, err
		}
	}
	return object.VOID, cx.Returns().Set(val)
}

func (in *Interpreter) evalVariableDeclaration(node *ast.VariableDeclaration, cx *runtime.Context) (object.Object, error) {
	var val object.Object = object.VOID
	if node.Value != nil {
		var err error
		if val, err = in.Eval(node.Value, cx); err != nil {
			return nil, err
		}
	}
	return object.VOID, cx.Scope().Insert(node.Name, val)
}

func (in *Interpreter) evalAssignation(node *ast.Assignation, cx *runtime.Context) (object.Object, error) {
	val, err := in.Eval(node.Value, cx)
	if err != nil {
		return nil, err
	}
	if node.Global {
		return object.VOID, cx.Scope().Global(node.Name, val)
	}
	return object.VOID, cx.Scope().Update(node.Name, val)
}
