package interpreter

import (
	"brisk/internal/ast"
	"brisk/internal/object"
	"brisk/internal/runtime"
	"brisk/internal/spawner"
)

// evalCommand joins the command's parts and runs it through the shell in
// the branch's cwd. Its output goes to the branch's journal.
func (in *Interpreter) evalCommand(node *ast.Command, cx *runtime.Context) (object.Object, error) {
	command, err := in.concat(node.Parts, cx)
	if err != nil {
		return nil, err
	}
	cwd, err := cx.Scope().Cwd()
	if err != nil {
		return nil, err
	}
	journal := cx.Journal()
	journal.Debug("$ " + command)
	return spawner.Spawn(cx.Ctx(), spawner.Options{
		Command: command,
		Cwd:     cwd,
		Shell:   in.rt.Params.Shell,
		Env:     in.rt.Params.Env,
	}, journal)
}
