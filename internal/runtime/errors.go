package runtime

import (
	"errors"
	"fmt"

	"brisk/internal/ast"
	"brisk/internal/object"
)

type Error = object.Error

// Codes follow one numbering shared with the value model errors in object.
var (
	ErrVariableNotFound             = object.NewError("00024", "variable not found")
	ErrAttemptToLeaveRootScopeLevel = object.NewError("00019", "attempt to leave root scope level")
	ErrNoOpenScopeLevel             = object.NewError("00020", "no open scope level")
	ErrBranchNotFound               = object.NewError("00022", "branch not found")
	ErrBranchAlreadyExists          = object.NewError("00087", "branch already exists")
	ErrIO                           = object.NewError("00050", "io error")
	ErrStorage                      = object.NewError("00052", "storage error")
	ErrInvalidIterationSource       = object.NewError("00056", "invalid iteration source")

	ErrFunctionNotFound           = object.NewError("00030", "function not found")
	ErrClosureNotFound            = object.NewError("00031", "closure not found")
	ErrInvalidFnArgumentsNumber   = object.NewError("00033", "invalid number of function arguments")
	ErrNoParentValueToCallFn      = object.NewError("00036", "no parent value to call function")
	ErrComponentNotFound          = object.NewError("00041", "component not found")
	ErrTaskNotFound               = object.NewError("00042", "task not found")
	ErrDismatchTaskArgumentsCount = object.NewError("00044", "task arguments count mismatch")

	ErrNoBreakSignalFor   = object.NewError("00057", "loop to break is not open")
	ErrNoOpenLoopsToBreak = object.NewError("00060", "no open loops to break")
	ErrNoOpenLoopsToClose = object.NewError("00061", "no open loops to close")
	ErrMaxIterations      = object.NewError("00084", "maximum number of iterations reached")

	ErrReturnContextAlreadyExists  = object.NewError("00062", "return context already exists")
	ErrNoOpenReturnContext         = object.NewError("00063", "no open return context")
	ErrNoOpenReturnContextsToClose = object.NewError("00064", "no open return contexts to close")
	ErrReturnValueAlreadyExists    = object.NewError("00065", "return value already exists")
	ErrReturnContextMismatch       = object.NewError("00083", "return context does not match the withdrawing owner")
	ErrSpawnSetup                  = object.NewError("00068", "fail to setup process")
	ErrJobAlreadyExists            = object.NewError("00072", "job already exists")
	ErrJobDoesNotExist             = object.NewError("00073", "job does not exist")
	ErrFailToFindJoinResult        = object.NewError("00075", "fail to find join result")
	ErrSomeNodesHadSameUuid        = object.NewError("00076", "some nodes had same uuid")
	ErrMultipleSignalEmit          = object.NewError("00077", "signal has already been emitted")
	ErrCancelled                   = object.NewError("00085", "execution cancelled")
	ErrExecuteFailed               = object.NewError("00086", "command failed")
	ErrUnknownOperation            = object.NewError("00088", "store does not support operation")
)

// LinkedErr attaches a source position to an error.
type LinkedErr struct {
	Err  error
	Link ast.SrcLink
}

func (e *LinkedErr) Error() string { return e.Err.Error() }
func (e *LinkedErr) Unwrap() error { return e.Err }

// Link wraps err with the position of node. An error that already carries a
// position is returned unchanged, so the innermost position wins.
func Link(err error, node ast.Node) error {
	if err == nil {
		return nil
	}
	var linked *LinkedErr
	if errors.As(err, &linked) {
		return err
	}
	if node == nil {
		return err
	}
	return &LinkedErr{Err: err, Link: node.Md().Link}
}

// ExitError is returned by process::exit and carries the requested exit code.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string { return fmt.Sprintf("exit requested with code %d", e.Code) }
